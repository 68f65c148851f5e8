package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reservio/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation maps to 400", apperrors.ErrValidation, http.StatusBadRequest},
		{"not found maps to 404", apperrors.ErrNotFound, http.StatusNotFound},
		{"capacity maps to 409", apperrors.ErrCapacityExceeded, http.StatusConflict},
		{"state transition maps to 422", apperrors.ErrInvalidStateTransition, http.StatusUnprocessableEntity},
		{"concurrency maps to 409", apperrors.ErrConcurrencyConflict, http.StatusConflict},
		{"unclassified maps to 500", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			RespondError(c, "request failed", tc.err)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			var body StandardApiResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Message != "request failed" {
				t.Errorf("message = %q, want the caller's message", body.Message)
			}
			if body.Errors == nil {
				t.Errorf("error detail missing from envelope")
			}
		})
	}
}
