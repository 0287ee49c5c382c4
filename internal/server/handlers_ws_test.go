package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankithung/ConsultancyDev/internal/domain"
)

func startTestServer(t *testing.T, srv *Server) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)
	return ts
}

func dialUpdates(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/updates?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSONFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func assertNoFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "expected no frame but read one")
}

func TestUpdatesSession_AckOnConnect(t *testing.T) {
	userID := uuid.New()
	srv := newTestServer(t, &stubDirectory{companies: map[uuid.UUID]string{userID: "42"}})
	ts := startTestServer(t, srv)

	conn := dialUpdates(t, ts, signToken(t, userID))

	frame := readJSONFrame(t, conn)
	assert.Equal(t, "connection_established", frame["type"])
	assert.Equal(t, "Connected to real-time updates", frame["message"])
}

func TestUpdatesSession_PingPong(t *testing.T) {
	userID := uuid.New()
	srv := newTestServer(t, &stubDirectory{companies: map[uuid.UUID]string{userID: "42"}})
	ts := startTestServer(t, srv)

	conn := dialUpdates(t, ts, signToken(t, userID))
	readJSONFrame(t, conn) // ack

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	frame := readJSONFrame(t, conn)
	assert.Equal(t, "pong", frame["type"])
}

func TestUpdatesSession_ScopedFanout(t *testing.T) {
	user42 := uuid.New()
	user99 := uuid.New()
	srv := newTestServer(t, &stubDirectory{companies: map[uuid.UUID]string{
		user42: "42",
		user99: "99",
	}})
	ts := startTestServer(t, srv)

	conn42 := dialUpdates(t, ts, signToken(t, user42))
	conn99 := dialUpdates(t, ts, signToken(t, user99))
	readJSONFrame(t, conn42) // ack
	readJSONFrame(t, conn99) // ack

	err := srv.announcer.AnnounceCompany(context.Background(), "42", "enquiry", domain.ActionCreated, json.RawMessage(`{"id":17}`))
	require.NoError(t, err)

	frame := readJSONFrame(t, conn42)
	assert.Equal(t, "update", frame["type"])
	assert.Equal(t, "enquiry", frame["entity"])
	assert.Equal(t, "created", frame["action"])

	assertNoFrame(t, conn99)
}

func TestUpdatesSession_OperatorRoom(t *testing.T) {
	operator := uuid.New()
	// Not in the directory: lands in the operator room.
	srv := newTestServer(t, &stubDirectory{})
	ts := startTestServer(t, srv)

	conn := dialUpdates(t, ts, signToken(t, operator))
	readJSONFrame(t, conn) // ack

	err := srv.announcer.AnnounceCompany(context.Background(), "", "signup_request", domain.ActionCreated, json.RawMessage(`{}`))
	require.NoError(t, err)

	frame := readJSONFrame(t, conn)
	assert.Equal(t, "update", frame["type"])
	assert.Equal(t, "signup_request", frame["entity"])
}

func TestUpdatesSession_NoCompanyUserJoinsOperatorRoom(t *testing.T) {
	userID := uuid.New()
	// Known user without a company association.
	srv := newTestServer(t, &stubDirectory{companies: map[uuid.UUID]string{userID: ""}})
	ts := startTestServer(t, srv)

	conn := dialUpdates(t, ts, signToken(t, userID))
	readJSONFrame(t, conn) // ack

	err := srv.announcer.Announce(context.Background(), domain.SentinelRoom, "company", domain.ActionCreated, json.RawMessage(`{}`))
	require.NoError(t, err)

	frame := readJSONFrame(t, conn)
	assert.Equal(t, "update", frame["type"])
}

func TestUpdatesSession_UnknownFramesIgnored(t *testing.T) {
	userID := uuid.New()
	srv := newTestServer(t, &stubDirectory{companies: map[uuid.UUID]string{userID: "42"}})
	ts := startTestServer(t, srv)

	conn := dialUpdates(t, ts, signToken(t, userID))
	readJSONFrame(t, conn) // ack

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json at all`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","room":"company_1"}`)))

	// Session stays up and still answers pings.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	frame := readJSONFrame(t, conn)
	assert.Equal(t, "pong", frame["type"])
}

func TestUpdatesSession_Unauthenticated(t *testing.T) {
	srv := newTestServer(t, &stubDirectory{})
	ts := startTestServer(t, srv)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/updates"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdatesSession_DirectoryErrorRejects(t *testing.T) {
	srv := newTestServer(t, &stubDirectory{err: context.DeadlineExceeded})
	ts := startTestServer(t, srv)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/updates?token=" + signToken(t, uuid.New())
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUpdatesSession_DisconnectedPeerGetsNothing(t *testing.T) {
	user42 := uuid.New()
	other := uuid.New()
	srv := newTestServer(t, &stubDirectory{companies: map[uuid.UUID]string{
		user42: "42",
		other:  "42",
	}})
	ts := startTestServer(t, srv)

	conn1 := dialUpdates(t, ts, signToken(t, user42))
	conn2 := dialUpdates(t, ts, signToken(t, other))
	readJSONFrame(t, conn1)
	readJSONFrame(t, conn2)

	conn2.Close()

	// Wait for the server side to notice the disconnect.
	require.Eventually(t, func() bool {
		return srv.hub.ClientCount(domain.GroupName("company_42")) == 1
	}, 2*time.Second, 20*time.Millisecond)

	err := srv.announcer.AnnounceCompany(context.Background(), "42", "task", domain.ActionUpdated, json.RawMessage(`{}`))
	require.NoError(t, err)

	frame := readJSONFrame(t, conn1)
	assert.Equal(t, "update", frame["type"])
}
