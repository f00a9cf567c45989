package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(HubConfig{
		PingInterval:      time.Second,
		PongTimeout:       2 * time.Second,
		WriteTimeout:      time.Second,
		MessageBufferSize: 16,
		Logger:            zap.NewNop(),
	})
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_SnapshotOnConnect(t *testing.T) {
	hub, url := newTestHub(t)

	hub.Update("MATCH_STAKE", "Paris SG - Marseille", true)
	hub.Update("ODDS_STAKE", nil, false)

	conn := dial(t, url)
	msg := readMessage(t, conn)

	assert.Equal(t, TypeSnapshot, msg.Type)
	require.Len(t, msg.Slots, 2)
	assert.Equal(t, SlotState{Value: "Paris SG - Marseille", Visible: true}, msg.Slots["MATCH_STAKE"])
	assert.False(t, msg.Slots["ODDS_STAKE"].Visible)
}

func TestHub_BroadcastUpdateAndPopup(t *testing.T) {
	hub, url := newTestHub(t)

	first := dial(t, url)
	second := dial(t, url)

	// The snapshot is queued at registration, so reading it means the
	// viewer is subscribed.
	assert.Equal(t, TypeSnapshot, readMessage(t, first).Type)
	assert.Equal(t, TypeSnapshot, readMessage(t, second).Type)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Update("DATE_COMBINE", "Sunday 14 March 2021 20:45", true)
	hub.Popup("Match non disponible sur betclic")

	for _, conn := range []*websocket.Conn{first, second} {
		update := readMessage(t, conn)
		assert.Equal(t, TypeUpdate, update.Type)
		assert.Equal(t, "DATE_COMBINE", update.Key)
		assert.Equal(t, "Sunday 14 March 2021 20:45", update.Value)
		assert.True(t, update.Visible)

		popup := readMessage(t, conn)
		assert.Equal(t, TypePopup, popup.Type)
		assert.Equal(t, "Match non disponible sur betclic", popup.Text)
	}
}

func TestHub_TableValue(t *testing.T) {
	hub, url := newTestHub(t)

	conn := dial(t, url)
	readMessage(t, conn)

	hub.Update("ODDS_STAKE", [][]string{{"winamax", "2.1", "3"}}, true)

	msg := readMessage(t, conn)
	assert.Equal(t, []any{[]any{"winamax", "2.1", "3"}}, msg.Value)
}

func TestHub_ViewerDisconnect(t *testing.T) {
	hub, url := newTestHub(t)

	conn := dial(t, url)
	readMessage(t, conn)
	require.Equal(t, 1, hub.ClientCount())

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHub_CloseDisconnectsViewers(t *testing.T) {
	hub, url := newTestHub(t)

	conn := dial(t, url)
	readMessage(t, conn)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_RefusesAfterClose(t *testing.T) {
	hub, url := newTestHub(t)
	require.NoError(t, hub.Close())

	conn := dial(t, url)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_UpdateWithoutViewers(t *testing.T) {
	hub := NewHub(HubConfig{})

	assert.NotPanics(t, func() {
		hub.Update("MATCH_FREEBET", "Aucun match trouvé", true)
		hub.Popup("ignored")
	})
	assert.NoError(t, hub.Close())
}
