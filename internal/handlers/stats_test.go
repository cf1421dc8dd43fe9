package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/handlers"
	"github.com/nfrund/relay/internal/registry"
	"github.com/nfrund/relay/internal/rooms"
)

func newStatsFixture(t *testing.T) (*handlers.StatsHandler, *registry.Registry, *rooms.Index) {
	t.Helper()
	reg := registry.New()
	idx := rooms.NewIndex(reg)
	return handlers.NewStatsHandler(reg, idx), reg, idx
}

func TestStatsHandler_Stats(t *testing.T) {
	h, reg, idx := newStatsFixture(t)
	ctx := context.Background()
	reg.Register(ctx, "a")
	reg.Register(ctx, "b")
	require.NoError(t, idx.Join(domain.RoomDashboard, "a"))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/stats", nil), rec)
	require.NoError(t, h.Stats(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Connections)
	assert.Equal(t, map[string]int{"dashboard": 1}, resp.Rooms)
}

func TestStatsHandler_Room(t *testing.T) {
	h, reg, idx := newStatsFixture(t)
	ctx := context.Background()
	reg.Register(ctx, "b")
	reg.Register(ctx, "a")
	require.NoError(t, idx.Join(domain.RoomDashboard, "b"))
	require.NoError(t, idx.Join(domain.RoomDashboard, "a"))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("name")
	c.SetParamValues(domain.RoomDashboard)
	require.NoError(t, h.Room(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"room":"dashboard","members":["a","b"]}`, rec.Body.String())
}

func TestStatsHandler_RoomNotFound(t *testing.T) {
	h, _, _ := newStatsFixture(t)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("name")
	c.SetParamValues("nowhere")
	require.NoError(t, h.Room(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "room_not_found")
}

func TestStatsHandler_RoomDroppedWhenEmpty(t *testing.T) {
	h, reg, idx := newStatsFixture(t)
	ctx := context.Background()
	reg.Register(ctx, "a")
	require.NoError(t, idx.Join(domain.RoomDashboard, "a"))
	reg.Unregister(ctx, "a")

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("name")
	c.SetParamValues(domain.RoomDashboard)
	require.NoError(t, h.Room(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
