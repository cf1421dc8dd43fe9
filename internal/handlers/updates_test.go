package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/broadcast"
	"github.com/nfrund/relay/internal/dispatch"
	"github.com/nfrund/relay/internal/handlers"
)

type recordingRequester struct {
	mu   sync.Mutex
	reqs []dispatch.UpdateRequested
	err  error
}

func (r *recordingRequester) RequestUpdate(_ context.Context, req dispatch.UpdateRequested) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.reqs = append(r.reqs, req)
	return nil
}

func postUpdate(t *testing.T, h *handlers.UpdatesHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = handlers.NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/api/updates", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Post(e.NewContext(req, rec)))
	return rec
}

func TestUpdatesHandler_Accepted(t *testing.T) {
	requester := &recordingRequester{}
	h := handlers.NewUpdatesHandler(requester, broadcast.Strict)

	rec := postUpdate(t, h, `{"category":"blog","action":"created","room":"dashboard","data":{"id":"p1"}}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"accepted"}`, rec.Body.String())
	require.Len(t, requester.reqs, 1)
	got := requester.reqs[0]
	assert.Equal(t, "blog", got.Category)
	assert.Equal(t, "created", got.Action)
	assert.Equal(t, "dashboard", got.Room)
	assert.JSONEq(t, `{"id":"p1"}`, string(got.Data))
}

func TestUpdatesHandler_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		mode     broadcast.Validation
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "malformed body", mode: broadcast.Strict, body: `{"category":`, wantCode: http.StatusBadRequest, wantErr: "bad_request"},
		{name: "missing category", mode: broadcast.Strict, body: `{"action":"created"}`, wantCode: http.StatusBadRequest, wantErr: "validation_failed"},
		{name: "unknown category", mode: broadcast.Permissive, body: `{"category":"video","action":"created"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "invalid_category"},
		{name: "missing action", mode: broadcast.Strict, body: `{"category":"blog"}`, wantCode: http.StatusBadRequest, wantErr: "validation_failed"},
		{name: "bad room name", mode: broadcast.Strict, body: `{"category":"blog","action":"created","room":"Has Spaces"}`, wantCode: http.StatusBadRequest, wantErr: "validation_failed"},
		{name: "strict unknown action", mode: broadcast.Strict, body: `{"category":"like","action":"created"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "invalid_action"},
		{name: "array data", mode: broadcast.Strict, body: `{"category":"blog","action":"created","data":[1,2]}`, wantCode: http.StatusUnprocessableEntity, wantErr: "invalid_payload"},
		{name: "scalar data", mode: broadcast.Strict, body: `{"category":"blog","action":"created","data":"x"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "invalid_payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requester := &recordingRequester{}
			rec := postUpdate(t, handlers.NewUpdatesHandler(requester, tt.mode), tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Code)
			assert.Empty(t, requester.reqs)
		})
	}
}

func TestUpdatesHandler_PermissiveForwardsUnknownAction(t *testing.T) {
	requester := &recordingRequester{}
	h := handlers.NewUpdatesHandler(requester, broadcast.Permissive)

	rec := postUpdate(t, h, `{"category":"like","action":"exploded"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, requester.reqs, 1)
	assert.Equal(t, "exploded", requester.reqs[0].Action)
}

func TestUpdatesHandler_NullDataAccepted(t *testing.T) {
	requester := &recordingRequester{}
	h := handlers.NewUpdatesHandler(requester, broadcast.Strict)

	rec := postUpdate(t, h, `{"category":"dashboard","action":"stats","data":null}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, requester.reqs, 1)
}

func TestUpdatesHandler_BusFailure(t *testing.T) {
	requester := &recordingRequester{err: errors.New("bus closed")}
	h := handlers.NewUpdatesHandler(requester, broadcast.Strict)

	rec := postUpdate(t, h, `{"category":"comment","action":"deleted"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
}
