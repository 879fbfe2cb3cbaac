package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

const (
	apiVersion  = "2.0"
	errorDomain = "highlight-sync"
)

type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	TraceID string      `json:"traceId,omitempty"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorMapping struct {
	target     error
	httpStatus int
	reason     string
	status     string
}

// errorMappings is checked in order; the first mark that matches wins.
var errorMappings = []errorMapping{
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrConflict, http.StatusConflict, "syncInProgress", "ABORTED"},
	{usecase.ErrRateLimited, http.StatusServiceUnavailable, "providerRateLimited", "UNAVAILABLE"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
	{usecase.ErrTransientHTTP, http.StatusBadGateway, "providerUnavailable", "UNAVAILABLE"},
}

var internalErrorMapping = errorMapping{
	httpStatus: http.StatusInternalServerError,
	reason:     "internalError",
	status:     "INTERNAL",
}

const internalErrorMessage = "internal server error"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

// writeError answers with the mapped status. Unmapped errors become a 500
// whose message does not echo driver or provider details.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(err)
	message := internalErrorMessage
	if mapped.httpStatus != http.StatusInternalServerError {
		message = err.Error()
	}
	writeErrorBody(ctx, w, mapped, message)
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeErrorBody(ctx, w, internalErrorMapping, internalErrorMessage)
}

func writeErrorBody(ctx context.Context, w http.ResponseWriter, mapped errorMapping, message string) {
	writeJSON(w, mapped.httpStatus, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    mapped.httpStatus,
			Message: message,
			Status:  mapped.status,
			TraceID: traceIDFromContext(ctx),
			Errors: []errorItem{{
				Domain:  errorDomain,
				Reason:  mapped.reason,
				Message: message,
			}},
		},
	})
}

func mapError(err error) errorMapping {
	for _, m := range errorMappings {
		if crerr.Is(err, m.target) {
			return m
		}
	}
	return internalErrorMapping
}
