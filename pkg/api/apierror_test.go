package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mindburn-Labs/timelock/pkg/contracts"
	"github.com/Mindburn-Labs/timelock/pkg/timelock"
)

func TestWriteDomainError_Mapping(t *testing.T) {
	var id contracts.TxID

	cases := []struct {
		name   string
		err    error
		status int
		title  string
	}{
		{"not owner", timelock.ErrNotOwner, http.StatusForbidden, "Not Owner"},
		{"already queued", &timelock.AlreadyQueuedError{TxID: id}, http.StatusConflict, "Already Queued"},
		{"not queued", &timelock.NotQueuedError{TxID: id}, http.StatusNotFound, "Not Queued"},
		{"queue window", &timelock.TimeWindowError{Now: 10, ScheduledTime: 5}, http.StatusUnprocessableEntity, "Time Window Violation"},
		{"too early", &timelock.TooEarlyError{Now: 10, ScheduledTime: 20}, http.StatusUnprocessableEntity, "Time Window Violation"},
		{"expired", &timelock.ExpiredError{Now: 5000, ScheduledTime: 20}, http.StatusUnprocessableEntity, "Time Window Violation"},
		{"call failed", &timelock.CallFailedError{TxID: id, Err: errors.New("boom")}, http.StatusBadGateway, "Call Failed"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteDomainError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem ProblemDetail
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tc.title, problem.Title)
			assert.Equal(t, tc.status, problem.Status)
		})
	}
}
