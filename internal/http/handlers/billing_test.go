package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func TestWriteBillError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "missing table", err: pgx.ErrNoRows, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "wrapped missing table", err: fmt.Errorf("load bill: %w", pgx.ErrNoRows), wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "storage failure", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantCode: "STORAGE_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeBillError(rec, zap.NewNop(), tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Fatalf("expected success=false")
			}
			if body.Error != tc.wantCode {
				t.Fatalf("error code = %q, want %q", body.Error, tc.wantCode)
			}
		})
	}
}
