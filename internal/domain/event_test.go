package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateEvent_WireFrame(t *testing.T) {
	event := UpdateEvent{
		Entity: "enquiry",
		Action: ActionCreated,
		Data:   json.RawMessage(`{"id":1}`),
	}

	frame, err := event.WireFrame()
	require.NoError(t, err)

	var msg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(frame, &msg))
	assert.JSONEq(t, `"update"`, string(msg["type"]))
	assert.JSONEq(t, `"enquiry"`, string(msg["entity"]))
	assert.JSONEq(t, `"created"`, string(msg["action"]))
	assert.JSONEq(t, `{"id":1}`, string(msg["data"]))
}

func TestAction_Valid(t *testing.T) {
	assert.True(t, ActionCreated.Valid())
	assert.True(t, ActionUpdated.Valid())
	assert.True(t, ActionDeleted.Valid())
	assert.False(t, Action("renamed").Valid())
	assert.False(t, Action("").Valid())
}
