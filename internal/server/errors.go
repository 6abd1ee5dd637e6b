package server

import (
	"errors"
	"net/http"

	"schemad/internal/credit"
	"schemad/internal/schema"
	"schemad/internal/user"
)

// statusFor maps semantic service errors to HTTP status codes and messages.
// Anything unrecognized is reported as a generic internal failure so internal
// detail never reaches the client.
func statusFor(err error) (int, string) {
	var (
		tableNotFound  *schema.TableNotFoundError
		tableExists    *schema.TableExistsError
		columnNotFound *schema.ColumnNotFoundError
		columnExists   *schema.ColumnExistsError
		criticalColumn *schema.CriticalColumnError
		validation     *schema.ValidationError
		execution      *schema.ExecutionError
		userNotFound   *credit.UserNotFoundError
		insufficient   *credit.InsufficientCreditsError
		noUser         *user.NotFoundError
		emailExists    *user.EmailExistsError
	)

	switch {
	case errors.As(err, &tableNotFound):
		return http.StatusNotFound, tableNotFound.Error()
	case errors.As(err, &columnNotFound):
		return http.StatusNotFound, columnNotFound.Error()
	case errors.As(err, &userNotFound):
		return http.StatusNotFound, userNotFound.Error()
	case errors.As(err, &noUser):
		return http.StatusNotFound, noUser.Error()
	case errors.As(err, &tableExists):
		return http.StatusConflict, tableExists.Error()
	case errors.As(err, &columnExists):
		return http.StatusConflict, columnExists.Error()
	case errors.As(err, &emailExists):
		return http.StatusNotAcceptable, emailExists.Error()
	case errors.As(err, &criticalColumn):
		return http.StatusForbidden, criticalColumn.Error()
	case errors.As(err, &insufficient):
		return http.StatusBadRequest, insufficient.Error()
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &execution):
		return http.StatusInternalServerError, "schema operation failed"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
