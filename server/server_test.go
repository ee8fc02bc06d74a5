package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/mafiaserver/config"
	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/network"
	"github.com/wfunc/mafiaserver/timer"
)

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T) (*GameServer, string) {
	t.Helper()
	timers, err := timer.NewTimerManagerWithTick(4, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(timers.Stop)

	cfg := &config.Config{
		Server: config.ServerConfig{HTTPAddress: "127.0.0.1:0"},
		Game: config.GameConfig{
			DayDuration:   time.Hour,
			NightDuration: time.Hour,
			EndedGrace:    time.Hour,
			RolePool:      []string{"Mafia", "Detective", "Doctor", "Townsperson", "Townsperson"},
		},
	}
	gs, err := NewGameServer(cfg, timers, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(gs.httpServer.Handler)
	t.Cleanup(srv.Close)
	return gs, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(msgID uint16, v interface{}) {
	c.t.Helper()
	var data []byte
	if raw, ok := v.([]byte); ok {
		data = raw
	} else {
		var err error
		data, err = json.Marshal(v)
		require.NoError(c.t, err)
	}
	packet, err := network.Encode(msgID, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.BinaryMessage, packet))
}

// expect skips other events until msgID arrives and decodes it into v.
func (c *testClient) expect(msgID uint16, v interface{}) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %s", network.EventName(msgID))
		packet, err := network.Decode(data)
		require.NoError(c.t, err)
		if packet.MsgID != msgID {
			continue
		}
		if v != nil {
			require.NoError(c.t, json.Unmarshal(packet.Data, v))
		}
		return
	}
}

func (c *testClient) expectError(contains string) {
	c.t.Helper()
	var msg models.ErrorMessage
	c.expect(network.MsgTypeError, &msg)
	assert.Contains(c.t, msg.Message, contains)
}

func TestGameServer_RoomFlow(t *testing.T) {
	gs, url := newTestServer(t)

	host := dial(t, url)
	host.send(network.MsgTypeCreateRoom, models.RoomSettings{})
	var created models.RoomResponse
	host.expect(network.MsgTypeRoomCreated, &created)
	require.NotEmpty(t, created.RoomID)

	var guests []*testClient
	for i := 0; i < 3; i++ {
		c := dial(t, url)
		c.send(network.MsgTypeJoinRoom, models.JoinRoomRequest{RoomID: created.RoomID})
		var joined models.RoomResponse
		c.expect(network.MsgTypeJoinedRoom, &joined)
		assert.Equal(t, created.RoomID, joined.RoomID)
		guests = append(guests, c)
	}

	// voting before the game starts is rejected for the sender only
	guests[0].send(network.MsgTypeSubmitVote, models.TargetRequest{RoomID: created.RoomID, TargetID: created.PlayerID})
	guests[0].expectError("not allowed in the current phase")

	stranger := dial(t, url)
	stranger.send(network.MsgTypeJoinRoom, models.JoinRoomRequest{RoomID: "nope"})
	stranger.expectError("room not found")
	stranger.send(network.MsgTypeStartGame, []byte("{"))
	stranger.expectError("invalid start-game payload")

	host.send(network.MsgTypeStartGame, models.RoomRequest{RoomID: created.RoomID})
	for _, c := range append([]*testClient{host}, guests...) {
		var role models.RoleAssignment
		c.expect(network.MsgTypeRoleAssigned, &role)
		assert.NotEmpty(t, role.Role)
		var phase models.PhaseChange
		c.expect(network.MsgTypePhaseChanged, &phase)
		assert.Equal(t, "day", phase.Phase)
	}

	summaries := gs.Rooms().Summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, 4, summaries[0].Players)

	// a late joiner cannot enter
	stranger.send(network.MsgTypeJoinRoom, models.JoinRoomRequest{RoomID: created.RoomID})
	stranger.expectError("game already started")
}

func TestGameServer_DisconnectUpdatesRoster(t *testing.T) {
	_, url := newTestServer(t)

	host := dial(t, url)
	host.send(network.MsgTypeCreateRoom, models.RoomSettings{Name: "Ann"})
	var created models.RoomResponse
	host.expect(network.MsgTypeRoomCreated, &created)

	guest := dial(t, url)
	guest.send(network.MsgTypeJoinRoom, models.JoinRoomRequest{RoomID: created.RoomID, Name: "Bob"})
	guest.expect(network.MsgTypeJoinedRoom, nil)

	var roster []models.PlayerInfo
	host.expect(network.MsgTypeUpdatePlayers, &roster)
	require.Len(t, roster, 2)
	assert.Equal(t, "Bob", roster[1].Name)

	require.NoError(t, guest.conn.Close())

	// still waiting, so the leaver is dropped from the roster
	host.expect(network.MsgTypeUpdatePlayers, &roster)
	require.Len(t, roster, 1)
	assert.Equal(t, "Ann", roster[0].Name)
}
