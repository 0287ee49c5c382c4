package domain

import "encoding/json"

// Action describes what happened to an entity.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Valid reports whether the action is one of the known values.
func (a Action) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// Wire message types. These are the only frames that cross a session's
// connection; anything else inbound is ignored.
const (
	MessageTypePing                  = "ping"
	MessageTypePong                  = "pong"
	MessageTypeConnectionEstablished = "connection_established"
	MessageTypeUpdate                = "update"
)

// UpdateEvent is an entity-change notification. The payload is opaque at
// this layer; routing depends only on the room it is announced for.
type UpdateEvent struct {
	Entity string          `json:"entity"`
	Action Action          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// UpdateMessage is the outbound wire frame for an UpdateEvent.
type UpdateMessage struct {
	Type   string          `json:"type"`
	Entity string          `json:"entity"`
	Action Action          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// ControlMessage covers the non-update frames: ping, pong and the
// connection_established acknowledgment.
type ControlMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// WireFrame serializes the event as an update message.
func (e UpdateEvent) WireFrame() ([]byte, error) {
	return json.Marshal(UpdateMessage{
		Type:   MessageTypeUpdate,
		Entity: e.Entity,
		Action: e.Action,
		Data:   e.Data,
	})
}
