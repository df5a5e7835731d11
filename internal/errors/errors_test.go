package appErrors_test

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", appErrors.NewCampaignNotFound(7), http.StatusNotFound},
		{"validation", appErrors.Validation("comment is required"), http.StatusUnprocessableEntity},
		{"forbidden", appErrors.Forbidden("not your campaign"), http.StatusForbidden},
		{"conflict", appErrors.Conflict("no attached pieces"), http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("send: %w", appErrors.Conflict("no attached pieces")), http.StatusConflict},
		{"driver error", sql.ErrConnDone, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, appErrors.HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := appErrors.Validation("bad payload", appErrors.WithErr(sql.ErrNoRows))

	assert.Equal(t, "[validation_failed] bad payload: sql: no rows in result set", err.Error())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.True(t, appErrors.Is(err, appErrors.KindValidation))
	assert.False(t, appErrors.Is(nil, appErrors.KindValidation))
}

func TestWriteHTTP(t *testing.T) {
	w := httptest.NewRecorder()
	internal := appErrors.WriteHTTP(w, appErrors.Validation("comment is required",
		appErrors.WithDetails(appErrors.Detail{Field: "reviews[0].comment", Message: "required"})))

	assert.False(t, internal)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t,
		`{"error":{"code":"validation_failed","message":"comment is required","details":[{"field":"reviews[0].comment","message":"required"}]}}`,
		w.Body.String())
}

func TestWriteHTTPHidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	internal := appErrors.WriteHTTP(w, fmt.Errorf("select campaign: %w", sql.ErrConnDone))

	assert.True(t, internal)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":{"code":"internal","message":"internal error"}}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "connection")
}
