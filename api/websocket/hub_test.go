package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	svtypes "github.com/openalpha/stakevault/x/stakevault/types"
)

type countingObserver struct {
	messages chan string
}

func (o *countingObserver) RecordWSConnection(int) {}

func (o *countingObserver) RecordWSMessage(channel string) {
	select {
	case o.messages <- channel:
	default:
	}
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil, &countingObserver{messages: make(chan string, 16)}, nil)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func subscribe(t *testing.T, conn *websocket.Conn, channel string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "subscribe", Channel: channel}))
	msg := readMessage(t, conn)
	require.Equal(t, "subscribed", msg.Type)
	require.Equal(t, channel, msg.Channel)
}

func stakedEntry(t *testing.T, staker string) svtypes.AuditEntry {
	t.Helper()
	payload, err := json.Marshal(svtypes.TokensStaked{Staker: staker, Amount: 10, TotalStaked: 10})
	require.NoError(t, err)
	return svtypes.AuditEntry{
		Sequence: 1,
		Version:  svtypes.AuditVersion,
		Kind:     svtypes.EventTypeTokensStaked,
		Payload:  payload,
	}
}

func TestHubPublishAudit(t *testing.T) {
	hub, url := startHub(t)

	auditConn := dial(t, url)
	subscribe(t, auditConn, ChannelAudit)

	stakerConn := dial(t, url)
	subscribe(t, stakerConn, StakesChannelPrefix+"alice")

	otherConn := dial(t, url)
	subscribe(t, otherConn, StakesChannelPrefix+"bob")

	require.Equal(t, 3, hub.GetClientCount())
	require.Equal(t, 1, hub.GetChannelClientCount(ChannelAudit))

	hub.PublishAudit(stakedEntry(t, "alice"))

	msg := readMessage(t, auditConn)
	require.Equal(t, svtypes.EventTypeTokensStaked, msg.Type)
	require.Equal(t, ChannelAudit, msg.Channel)

	msg = readMessage(t, stakerConn)
	require.Equal(t, StakesChannelPrefix+"alice", msg.Channel)

	// bob's channel got nothing; a ping round trip proves the queue is empty
	require.NoError(t, otherConn.WriteJSON(ClientMessage{Action: "ping"}))
	require.Equal(t, "pong", readMessage(t, otherConn).Type)
}

func TestClientRejectsUnknownChannel(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url)

	for _, channel := range []string{"", "ticker:BTC", StakesChannelPrefix} {
		require.NoError(t, conn.WriteJSON(ClientMessage{Action: "subscribe", Channel: channel}))
		msg := readMessage(t, conn)
		require.Equal(t, "error", msg.Type, channel)
	}

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "dance"}))
	require.Equal(t, "error", readMessage(t, conn).Type)
}

func TestSendAfterUnregisterIsDropped(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	client := NewClient(hub, nil, "c1", "127.0.0.1")
	hub.registerClient(client)

	client.sendJSON(&WSMessage{Type: "pong"})
	require.Len(t, client.send, 1)

	hub.unregisterClient(client)
	require.NotPanics(t, func() {
		client.sendJSON(&WSMessage{Type: "pong"})
		client.sendError("late", "after close")
		client.closeSend()
		hub.closeAll()
	})

	_, ok := <-client.send
	require.True(t, ok, "queued message survives the close")
	_, ok = <-client.send
	require.False(t, ok)
}

func TestValidChannel(t *testing.T) {
	require.True(t, validChannel(ChannelAudit))
	require.True(t, validChannel("stakes:cosmos1abc"))
	require.False(t, validChannel("stakes:"))
	require.False(t, validChannel("orders:cosmos1abc"))
}
