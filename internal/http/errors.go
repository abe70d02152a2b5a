package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/example/campus-planner/internal/application"
	"github.com/example/campus-planner/internal/identity"
	"github.com/example/campus-planner/internal/logging"
)

var (
	errMissingBearer = echo.NewHTTPError(http.StatusUnauthorized, "a bearer token is required")
	errInvalidBearer = echo.NewHTTPError(http.StatusUnauthorized, "the bearer token is invalid or expired")
	errBadRequest    = echo.NewHTTPError(http.StatusBadRequest, "the request body is malformed")
)

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// fieldErrors reports boundary parse failures the validator cannot express.
type fieldErrors map[string]string

func (f fieldErrors) Error() string {
	return "invalid request fields"
}

// newErrorHandler returns an echo.HTTPErrorHandler that maps service errors to
// the API's status codes and error body.
func newErrorHandler(validate *requestValidator, fallback *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := translateError(err, validate)

		logger := logging.FromContext(c.Request().Context())
		if logger == nil {
			logger = defaultLogger(fallback)
		}
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed", "status", status, "error", err)
		} else {
			logger.InfoContext(c.Request().Context(), "request rejected", "status", status, "error", err, "error_kind", application.ErrorKind(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.ErrorContext(c.Request().Context(), "failed to encode response", "error", err)
		}
	}
}

func translateError(err error, validate *requestValidator) (int, errorResponse) {
	var (
		httpErr  *echo.HTTPError
		vErrs    validator.ValidationErrors
		appVErr  *application.ValidationError
		boundary fieldErrors
	)

	switch {
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, errorResponse{ErrorCode: "not_found", Message: "the requested resource was not found"}
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden, errorResponse{ErrorCode: "forbidden", Message: "you are not allowed to perform this operation"}
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{ErrorCode: "invalid_credentials", Message: "invalid email or password"}
	case errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{ErrorCode: "invalid_token", Message: errInvalidBearer.Message.(string)}
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict, errorResponse{ErrorCode: "conflict", Message: "the request conflicts with an existing resource"}
	case errors.As(err, &vErrs):
		return http.StatusUnprocessableEntity, errorResponse{ErrorCode: "validation_failed", Message: "the request contains invalid fields", Errors: validate.fieldErrors(vErrs)}
	case errors.As(err, &appVErr):
		return http.StatusUnprocessableEntity, errorResponse{ErrorCode: "validation_failed", Message: "the request contains invalid fields", Errors: appVErr.FieldErrors}
	case errors.As(err, &boundary):
		return http.StatusUnprocessableEntity, errorResponse{ErrorCode: "validation_failed", Message: "the request contains invalid fields", Errors: boundary}
	case errors.As(err, &httpErr):
		message, ok := httpErr.Message.(string)
		if !ok || message == "" {
			message = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorResponse{ErrorCode: codeForStatus(httpErr.Code), Message: message}
	}
	return http.StatusInternalServerError, errorResponse{ErrorCode: "internal", Message: http.StatusText(http.StatusInternalServerError)}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	}
	return ""
}
