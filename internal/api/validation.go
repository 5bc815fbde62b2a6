package api

import (
	"alcyxob/coach-app/internal/composer"
	"errors"
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by request structs:
//
//	weekday  integer 0 (Sunday) to 6
//	hhmm     time of day such as "07:30"
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	if err := v.RegisterValidation("weekday", validateWeekday); err != nil {
		return err
	}
	return v.RegisterValidation("hhmm", validateHHMM)
}

func validateWeekday(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		d := fl.Field().Int()
		return d >= 0 && d <= 6
	}
	return false
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := composer.NormalizeTimeOfDay(fl.Field().String())
	return err == nil
}
