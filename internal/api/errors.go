package api

import (
	"alcyxob/coach-app/internal/composer"
	"alcyxob/coach-app/internal/ledger"
	"alcyxob/coach-app/internal/progress"
	"alcyxob/coach-app/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondServiceError maps a service error to a status code and aborts.
// Unexpected errors are logged and reported without detail.
func respondServiceError(c *gin.Context, err error) {
	var (
		verr  *composer.ValidationError
		dup   *composer.DuplicateSlotError
		perr  *composer.PersistenceError
		nf    *ledger.NotFoundError
		opErr *service.OpError
	)

	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "Validation failed",
			"problems": verr.Problems(),
		})
	case errors.As(err, &dup):
		abortWithError(c, http.StatusConflict, dup.Error())
	case errors.Is(err, service.ErrLinkNotFound):
		// no detail for unknown or revoked links
		c.AbortWithStatus(http.StatusNotFound)
	case errors.As(err, &nf),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, composer.ErrSlotNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.As(err, &opErr),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidTimeZone),
		errors.Is(err, ledger.ErrInvalidKind),
		errors.Is(err, progress.ErrInvalidRange):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrArchiveDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &perr):
		// already logged by the plan service
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Could not save the plan",
			"step":  perr.Step,
			"code":  perr.Code,
		})
	default:
		log.WithField("route", c.FullPath()).Errorf("unexpected error: %v", err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
