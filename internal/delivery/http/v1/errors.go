package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-board/internal/services"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

var (
	errInvalidRequestBody      = errors.New("invalid request body")
	errMandatoryCookieNotFound = errors.New("mandatory cookie not found")
	errTryAgain                = errors.New("something went wrong, please try again")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// newWorkflowError maps the error kinds of the workflow package to HTTP
// statuses. Persistence details never reach the client.
func newWorkflowError(err error) apiError {
	switch {
	case errors.Is(err, services.ErrUserAlreadyExists):
		return newConflictError(services.ErrUserAlreadyExists.Error())
	case errors.Is(err, workflow.ErrValidation):
		return newBadRequestError(err.Error())
	case errors.Is(err, workflow.ErrAuth):
		return newUnauthorizedError(authMessage(err))
	case errors.Is(err, workflow.ErrInvalidTransition):
		return newConflictError(err.Error())
	default:
		return newAPIError(http.StatusInternalServerError, errTryAgain.Error())
	}
}

func authMessage(err error) string {
	for _, known := range []error{
		services.ErrUserNotFound,
		services.ErrUserPasswordMismatch,
		services.ErrSessionNotFound,
		services.ErrSessionExpired,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return http.StatusText(http.StatusUnauthorized)
}
