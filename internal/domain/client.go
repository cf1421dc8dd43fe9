package domain

// ClientID identifies one live transport connection. It is assigned on
// connect and never reused for another connection.
type ClientID string

func (id ClientID) String() string {
	return string(id)
}

// RoomDashboard is the room clients join to receive dashboard updates.
const RoomDashboard = "dashboard"

// EventConnectionConfirmed is sent to a client, and only to that client,
// right after it connects.
const EventConnectionConfirmed = "connection_confirmed"

// EventError is sent to a single client when one of its signals fails.
const EventError = "error"

// ConnectionConfirmed is the payload of EventConnectionConfirmed.
type ConnectionConfirmed struct {
	Message string `json:"message"`
}

// SignalError is the payload of EventError.
type SignalError struct {
	Signal  string `json:"signal"`
	Message string `json:"message"`
}
