package web

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/rechenschnell/internal/config"
)

func dialWS(t *testing.T, srv *Server, baseURL string, sessionID string) *websocket.Conn {
	t.Helper()

	q := url.Values{"token": {srv.Token()}}
	if sessionID != "" {
		q.Set("session", sessionID)
	}
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws?" + q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WebMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WebMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readState(t *testing.T, conn *websocket.Conn) WebMessage {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeState, msg.Type, "unexpected message: %+v", msg)
	require.NotNil(t, msg.State)
	return msg
}

func TestWebSocketRejectsInvalidToken(t *testing.T) {
	_, ts := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketKeysAndButtons(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	conn := dialWS(t, srv, ts.URL, "")

	initial := readState(t, conn)
	require.NotEmpty(t, initial.SessionID)
	assert.Equal(t, "0", initial.State.Expression)
	assert.True(t, initial.State.Valid)

	steps := []struct {
		msg        WebMessage
		expression string
		preview    string
	}{
		{msg: WebMessage{Type: MessageTypeKey, Key: "7"}, expression: "7", preview: "7"},
		{msg: WebMessage{Type: MessageTypeButton, Value: "×"}, expression: "7×", preview: ""},
		{msg: WebMessage{Type: MessageTypeKey, Key: "/"}, expression: "7÷", preview: ""},
		{msg: WebMessage{Type: MessageTypeKey, Key: "2"}, expression: "7÷2", preview: "3.5"},
		{msg: WebMessage{Type: MessageTypeButton, Action: "equals"}, expression: "3.5", preview: "3.5"},
		{msg: WebMessage{Type: MessageTypeKey, Key: "Backspace"}, expression: "3.", preview: "3"},
		{msg: WebMessage{Type: MessageTypeKey, Key: "F5"}, expression: "3.", preview: "3"},
		{msg: WebMessage{Type: MessageTypeKey, Key: "Escape"}, expression: "0", preview: "0"},
	}

	for _, step := range steps {
		require.NoError(t, conn.WriteJSON(step.msg))
		got := readState(t, conn)
		assert.Equal(t, initial.SessionID, got.SessionID)
		assert.Equal(t, step.expression, got.State.Expression, "after %+v", step.msg)
		assert.Equal(t, step.preview, got.State.PreviewText, "after %+v", step.msg)
	}

	require.NoError(t, conn.WriteJSON(WebMessage{Type: MessageTypeState}))
	assert.Equal(t, "0", readState(t, conn).State.Expression)
}

func TestWebSocketErrors(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	conn := dialWS(t, srv, ts.URL, "")
	readState(t, conn)

	require.NoError(t, conn.WriteJSON(WebMessage{Type: "launch"}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Contains(t, msg.Error, "launch")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg.Type)
}

func TestWebSocketSharedSession(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	first := dialWS(t, srv, ts.URL, "")
	id := readState(t, first).SessionID

	second := dialWS(t, srv, ts.URL, id)
	assert.Equal(t, id, readState(t, second).SessionID)
	require.Eventually(t, func() bool { return srv.hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, first.WriteJSON(WebMessage{Type: MessageTypeKey, Key: "4"}))
	assert.Equal(t, "4", readState(t, first).State.Expression)
	assert.Equal(t, "4", readState(t, second).State.Expression)

	resp := doJSON(t, srv, ts, http.MethodPost, "/api/sessions/"+id+"/keys", KeysRequest{Keys: []string{"+", "1", "="}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "5", readState(t, first).State.Expression)
	assert.Equal(t, "5", readState(t, second).State.Expression)
	assert.Equal(t, 1, srv.Sessions().Len())
}

func TestWebSocketRateLimit(t *testing.T) {
	srv, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Web.MessagesPerSecond = 0.001
		cfg.Web.Burst = 1
	})
	conn := dialWS(t, srv, ts.URL, "")
	readState(t, conn)

	require.NoError(t, conn.WriteJSON(WebMessage{Type: MessageTypeKey, Key: "1"}))
	assert.Equal(t, "1", readState(t, conn).State.Expression)

	require.NoError(t, conn.WriteJSON(WebMessage{Type: MessageTypeKey, Key: "2"}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Equal(t, errRateLimited, msg.Error)

	state, err := srv.Sessions().Do(srv.Sessions().IDs()[0], nil)
	require.NoError(t, err)
	assert.Equal(t, "1", state.Expression)
}

func TestHubStopClosesClients(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	conn := dialWS(t, srv, ts.URL, "")
	readState(t, conn)

	srv.hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestWebSocketSessionSurvivesIdleSweep(t *testing.T) {
	srv, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Web.SessionIdleSeconds = 1
	})

	first := dialWS(t, srv, ts.URL, "")
	id := readState(t, first).SessionID
	require.NoError(t, first.WriteJSON(WebMessage{Type: MessageTypeKey, Key: "7"}))
	assert.Equal(t, "7", readState(t, first).State.Expression)
	require.Eventually(t, func() bool { return srv.hub.HasSession(id) }, time.Second, 10*time.Millisecond)

	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, 0, srv.Sessions().Sweep())
	assert.Equal(t, []string{id}, srv.Sessions().IDs())

	resp := doJSON(t, srv, ts, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	second := dialWS(t, srv, ts.URL, id)
	joined := readState(t, second)
	assert.Equal(t, id, joined.SessionID)
	assert.Equal(t, "7", joined.State.Expression)

	first.Close()
	second.Close()
	require.Eventually(t, func() bool { return srv.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, 1, srv.Sessions().Sweep())
	assert.Zero(t, srv.Sessions().Len())
}

func TestDeleteSessionClosesClients(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	conn := dialWS(t, srv, ts.URL, "")
	id := readState(t, conn).SessionID
	require.Eventually(t, func() bool { return srv.hub.HasSession(id) }, time.Second, 10*time.Millisecond)

	resp := doJSON(t, srv, ts, http.MethodDelete, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	require.Eventually(t, func() bool { return !srv.hub.HasSession(id) }, time.Second, 10*time.Millisecond)

	again := dialWS(t, srv, ts.URL, id)
	assert.NotEqual(t, id, readState(t, again).SessionID)
}
