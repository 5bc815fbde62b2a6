package composer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemField names a scalar field of a workout or meal item.
type ItemField string

const (
	FieldExerciseID  ItemField = "exerciseId"
	FieldSets        ItemField = "sets"
	FieldRepsMin     ItemField = "repsMin"
	FieldRepsMax     ItemField = "repsMax"
	FieldRestSeconds ItemField = "restSeconds"
	FieldNotes       ItemField = "notes"

	FieldFoodName ItemField = "foodName"
	FieldQuantity ItemField = "quantity"
	FieldUnit     ItemField = "unit"
	FieldCalories ItemField = "calories"
	FieldProtein  ItemField = "protein"
	FieldCarbs    ItemField = "carbs"
	FieldFat      ItemField = "fat"
)

// Values arrive either typed (Go callers) or decoded from JSON, where every
// number is a float64 or json.Number.

func asInt(v any) (int, error) {
	var i int64
	switch n := v.(type) {
	case int:
		i = int64(n)
	case int32:
		i = int64(n)
	case int64:
		i = n
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %v is not a whole number", ErrInvalidValue, n)
		}
		if math.Abs(n) > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %v is out of range", ErrInvalidValue, n)
		}
		i = int64(n)
	case json.Number:
		var err error
		if i, err = n.Int64(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
	default:
		return 0, fmt.Errorf("%w: expected a number, got %T", ErrInvalidValue, v)
	}
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, fmt.Errorf("%w: %d is out of range", ErrInvalidValue, i)
	}
	return int(i), nil
}

func asFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
	default:
		return 0, fmt.Errorf("%w: expected a number, got %T", ErrInvalidValue, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not a finite number", ErrInvalidValue, f)
	}
	return f, nil
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected a string, got %T", ErrInvalidValue, v)
	}
	return strings.TrimSpace(s), nil
}

func asObjectID(v any) (primitive.ObjectID, error) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id, nil
	case string:
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return oid, nil
	}
	return primitive.NilObjectID, fmt.Errorf("%w: expected an id, got %T", ErrInvalidValue, v)
}
