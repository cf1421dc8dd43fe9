package handlers

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AcceptedResponse acknowledges an update that was queued for broadcast.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// StatsResponse describes the live connection state.
type StatsResponse struct {
	Connections int            `json:"connections"`
	Rooms       map[string]int `json:"rooms"`
}

// RoomResponse lists the members of one room.
type RoomResponse struct {
	Room    string   `json:"room"`
	Members []string `json:"members"`
}
