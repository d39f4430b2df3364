package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sushihentaime/blogsphere/internal/common"
	"github.com/sushihentaime/blogsphere/internal/credential"
	"github.com/sushihentaime/blogsphere/internal/userservice"
)

const credentialExpiredCode = "credential_expired"

func (app *application) logError(r *http.Request, err error) {
	var (
		method  = r.Method
		url     = r.URL.RequestURI()
		message = err.Error()
	)

	app.logger.Error(message, slog.String("method", method), slog.String("url", url), slog.String("request_id", requestID(r)))
}

func (app *application) writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string, extra envelope) {
	env := envelope{"success": false, "message": message}
	for k, v := range extra {
		env[k] = v
	}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	app.writeErrorResponse(w, r, http.StatusInternalServerError, message, nil)
}

func (app *application) badRequestErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.writeErrorResponse(w, r, http.StatusBadRequest, err.Error(), nil)
}

func (app *application) notFoundErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusNotFound, "resource not found", nil)
}

func (app *application) methodNotAllowedErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
}

func (app *application) failedValidationErrorResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.writeErrorResponse(w, r, http.StatusBadRequest, "invalid input", envelope{"errors": errors})
}

func (app *application) invalidCredentialsErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusUnauthorized, "invalid authentication credentials", nil)
}

func (app *application) expiredCredentialsErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusUnauthorized, credential.ErrExpiredCredential.Error(), envelope{"code": credentialExpiredCode})
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded", nil)
}

// errorResponse maps an error returned by a service to its HTTP status.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr common.ValidationError

	switch {
	case errors.As(err, &validationErr):
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	case errors.Is(err, credential.ErrExpiredCredential):
		app.expiredCredentialsErrorResponse(w, r)
	case errors.Is(err, credential.ErrInvalidCredential),
		errors.Is(err, credential.ErrVersionMismatch):
		app.invalidCredentialsErrorResponse(w, r)
	case errors.Is(err, userservice.ErrWrongPassword):
		app.writeErrorResponse(w, r, http.StatusUnauthorized, "incorrect email or password", nil)
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrNotSignedIn):
		app.writeErrorResponse(w, r, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, common.ErrForbidden):
		app.writeErrorResponse(w, r, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, common.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.Is(err, common.ErrAlreadyAuthenticated):
		app.writeErrorResponse(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, common.ErrEditConflict),
		errors.Is(err, common.ErrDuplicateSlug):
		app.writeErrorResponse(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, common.ErrRateLimited):
		app.writeErrorResponse(w, r, http.StatusTooManyRequests, err.Error(), nil)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
