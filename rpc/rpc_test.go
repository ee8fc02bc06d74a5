package rpc

import (
	"net/rpc"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/mafiaserver/models"
)

type stubRooms []models.RoomSummary

func (s stubRooms) Summaries() []models.RoomSummary { return s }

type stubArchive struct{}

func (stubArchive) FactionStats() (map[string]int64, error) {
	return map[string]int64{"Town": 3, "Mafia": 1}, nil
}

func (stubArchive) RecentGames(limit int) ([]models.GameRecord, error) {
	return []models.GameRecord{{RoomID: "abc1234", Winner: "Town", Rounds: limit}}, nil
}

func startServer(t *testing.T, svc *RoomService) *rpc.Client {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0", svc)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	t.Cleanup(func() {
		srv.Stop()
		require.NoError(t, <-done)
	})

	client, err := rpc.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRoomService_ListRooms(t *testing.T) {
	rooms := stubRooms{{RoomID: "abc1234", Phase: "day", Round: 2, Players: 5, Alive: 4}}
	client := startServer(t, NewRoomService(rooms, stubArchive{}))

	var reply ListRoomsReply
	require.NoError(t, client.Call("RoomService.ListRooms", &ListRoomsArgs{}, &reply))
	require.Len(t, reply.Rooms, 1)
	assert.Equal(t, "day", reply.Rooms[0].Phase)
	assert.Equal(t, 4, reply.Rooms[0].Alive)
}

func TestRoomService_Archive(t *testing.T) {
	client := startServer(t, NewRoomService(stubRooms{}, stubArchive{}))

	var stats FactionStatsReply
	require.NoError(t, client.Call("RoomService.FactionStats", &FactionStatsArgs{}, &stats))
	assert.Equal(t, int64(3), stats.Wins["Town"])

	var recent RecentGamesReply
	require.NoError(t, client.Call("RoomService.RecentGames", &RecentGamesArgs{Limit: 7}, &recent))
	require.Len(t, recent.Games, 1)
	assert.Equal(t, 7, recent.Games[0].Rounds)
}

func TestRoomService_NoArchive(t *testing.T) {
	client := startServer(t, NewRoomService(stubRooms{}, nil))

	var stats FactionStatsReply
	err := client.Call("RoomService.FactionStats", &FactionStatsArgs{}, &stats)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrNoArchive.Error())
}
