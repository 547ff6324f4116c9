package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chocandle/cho-candle-backend/api/middleware"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
)

var testLogger = logger.Nop()

type testRequest struct {
	method  string
	target  string
	body    any
	session *middleware.Session
	params  map[string]string
	headers map[string]string
}

func customerSession() *middleware.Session {
	return &middleware.Session{UserID: uuid.New(), Email: "buyer@example.com", Role: enums.UserRoleCustomer}
}

func serve(t *testing.T, handler http.HandlerFunc, tr testRequest) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	switch v := tr.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(v)
	default:
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(tr.method, tr.target, body)
	for k, v := range tr.headers {
		req.Header.Set(k, v)
	}
	ctx := req.Context()
	if len(tr.params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range tr.params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	if tr.session != nil {
		ctx = middleware.WithSession(ctx, *tr.session)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req.WithContext(ctx))
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Error.Code
}
