package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/relay/internal/domain"
)

// ConnectionCounter reports the number of registered clients.
type ConnectionCounter interface {
	Count() int
}

// RoomDirectory exposes room membership.
type RoomDirectory interface {
	Rooms() map[string]int
	Members(room string) ([]domain.ClientID, error)
}

// StatsHandler serves read-only views of connections and rooms.
type StatsHandler struct {
	conns ConnectionCounter
	rooms RoomDirectory
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(conns ConnectionCounter, rooms RoomDirectory) *StatsHandler {
	return &StatsHandler{conns: conns, rooms: rooms}
}

// Stats returns the connection count and the size of every room.
func (h *StatsHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, StatsResponse{
		Connections: h.conns.Count(),
		Rooms:       h.rooms.Rooms(),
	})
}

// Room returns the members of the room named in the path.
func (h *StatsHandler) Room(c echo.Context) error {
	name := c.Param("name")
	members, err := h.rooms.Members(name)
	if errors.Is(err, domain.ErrUnknownRoom) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "room_not_found", Message: err.Error()})
	}
	if err != nil {
		return err
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.String()
	}
	return c.JSON(http.StatusOK, RoomResponse{Room: name, Members: ids})
}
