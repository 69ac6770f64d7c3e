// Package api — RFC 7807 Problem Detail error responses and HTTP handlers
// for the timelock gate's operations surface.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Mindburn-Labs/timelock/pkg/timelock"
)

// ProblemDetail implements RFC 7807 (Problem Details for HTTP APIs).
// All API error responses use this format.
type ProblemDetail struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`
	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`
	// Status is the HTTP status code.
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
	// Instance is a URI reference identifying the specific occurrence.
	Instance string `json:"instance,omitempty"`
}

// Error implements the error interface.
func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// WriteError writes an RFC 7807 Problem Detail JSON response.
func WriteError(w http.ResponseWriter, status int, title, detail string) {
	problem := &ProblemDetail{
		Type:   fmt.Sprintf("https://timelock.mindburn.dev/errors/%d", status),
		Title:  title,
		Status: status,
		Detail: detail,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusBadRequest, "Bad Request", detail)
}

// WriteUnauthorized writes a 401 error response.
func WriteUnauthorized(w http.ResponseWriter, detail string) {
	if detail == "" {
		detail = "Authentication required"
	}
	WriteError(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// WriteMethodNotAllowed writes a 405 error response.
func WriteMethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
}

// WriteInternal writes a 500 error response.
func WriteInternal(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
}

// WriteDomainError maps a gate error to its problem-detail response.
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		alreadyQueued *timelock.AlreadyQueuedError
		timeWindow    *timelock.TimeWindowError
		notQueued     *timelock.NotQueuedError
		tooEarly      *timelock.TooEarlyError
		expired       *timelock.ExpiredError
		callFailed    *timelock.CallFailedError
	)

	switch {
	case errors.Is(err, timelock.ErrNotOwner):
		WriteError(w, http.StatusForbidden, "Not Owner", err.Error())
	case errors.As(err, &alreadyQueued):
		WriteError(w, http.StatusConflict, "Already Queued", err.Error())
	case errors.As(err, &notQueued):
		WriteError(w, http.StatusNotFound, "Not Queued", err.Error())
	case errors.As(err, &timeWindow), errors.As(err, &tooEarly), errors.As(err, &expired):
		WriteError(w, http.StatusUnprocessableEntity, "Time Window Violation", err.Error())
	case errors.As(err, &callFailed):
		WriteError(w, http.StatusBadGateway, "Call Failed", err.Error())
	default:
		WriteInternal(w, err)
	}
}
