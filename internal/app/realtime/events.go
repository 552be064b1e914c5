/*
Package realtime implements the live channel shared by every connected client:
the broadcast hub, the WebSocket client pumps, handshake authentication and the
connection lifecycle that keeps the presence registry in step with the transport.

There is exactly one broadcast domain. Every frame a client receives has the shape
{"event": <name>, "data": <payload>}.
*/
package realtime

import (
	"encoding/json"
)

// Outbound event names.
const (
	EventOnlineUsers    = "onlineUsers"
	EventChatMessage    = "newChatMessage"
	EventStudentCreated = "studentCreated"
	EventStudentUpdated = "studentUpdated"
	EventStudentDeleted = "studentDeleted"
	EventError          = "error"
)

// Inbound event names.
const (
	EventLogout = "logout"
)

// Frame is the envelope of every WebSocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload is the data of an error frame.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Publisher is the broadcast capability handed to HTTP handlers.
type Publisher interface {
	Publish(event string, payload any)
}

// encodeFrame marshals payload once into a ready-to-write frame.
func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}
