package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"shopflow-tracking/internal/apperr"
	"shopflow-tracking/internal/logx"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandlers_Ping(t *testing.T) {
	t.Parallel()

	h := New(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()

	h.Ping(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, "pong", body["message"])
}

func TestHandlers_HealthcheckHead(t *testing.T) {
	t.Parallel()

	t.Run("store up", func(t *testing.T) {
		h := New(logx.Nop(), pingFunc(func(context.Context) error { return nil }))
		rr := httptest.NewRecorder()
		h.HealthcheckHead(rr, httptest.NewRequest(http.MethodHead, "/healthcheck", nil))
		require.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("store down", func(t *testing.T) {
		h := New(logx.Nop(), pingFunc(func(context.Context) error { return errors.New("conn refused") }))
		rr := httptest.NewRecorder()
		h.HealthcheckHead(rr, httptest.NewRequest(http.MethodHead, "/healthcheck", nil))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		code int
	}{
		{apperr.ErrInvalid, http.StatusBadRequest},
		{errors.Join(errors.New("load"), apperr.ErrNotFound), http.StatusNotFound},
		{apperr.ErrConflict, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		writeServiceError(logx.Nop(), rr, httptest.NewRequest(http.MethodGet, "/orders/x", nil), tt.err)
		require.Equal(t, tt.code, rr.Code, tt.err.Error())
		require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	decode := func(body string) (*httptest.ResponseRecorder, locationRequest, bool) {
		var dst locationRequest
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/orders/x/location", strings.NewReader(body))
		ok := decodeJSON(logx.Nop(), rr, req, &dst)
		return rr, dst, ok
	}

	_, dst, ok := decode(`{"lat":23.8,"lng":90.4}`)
	require.True(t, ok)
	require.InDelta(t, 23.8, *dst.Lat, 1e-9)

	_, dst, ok = decode(`{"lat":0,"lng":0}`)
	require.True(t, ok, "zero is a valid coordinate")
	require.Zero(t, *dst.Lng)

	for _, body := range []string{
		`{"lat":23.8}`,
		`{"lat":91,"lng":0}`,
		`{"lat":1,"lng":2,"alt":3}`,
		`{"lat":1,"lng":2}{}`,
		`not json`,
	} {
		rr, _, ok := decode(body)
		require.False(t, ok, body)
		require.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestValidationMessage(t *testing.T) {
	t.Parallel()

	err := validate.Struct(&riderDTO{Phone: "123"})
	msg := validationMessage(err)
	require.Contains(t, msg, "riderDTO.ID required")
	require.Contains(t, msg, "riderDTO.Phone e164")
}
