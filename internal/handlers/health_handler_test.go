package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hvac-backend/internal/health"

	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestReadinessHealth(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"database up, no redis", nil, http.StatusOK},
		{"database down", errors.New("refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(health.NewHealthChecker(pinger{tt.err}, nil, nil))
			rec := httptest.NewRecorder()
			h.ReadinessHealth(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBasicHealth(t *testing.T) {
	h := NewHealthHandler(health.NewHealthChecker(pinger{errors.New("down")}, nil, nil))
	rec := httptest.NewRecorder()
	h.BasicHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
