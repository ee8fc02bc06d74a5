package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/network"
)

func TestCommand(t *testing.T) {
	msgID, payload, ok := command("join abc1234 Bob", "")
	assert.True(t, ok)
	assert.Equal(t, uint16(network.MsgTypeJoinRoom), msgID)
	assert.Equal(t, models.JoinRoomRequest{RoomID: "abc1234", Name: "Bob"}, payload)

	msgID, payload, ok = command("vote  p2 ", "abc1234")
	assert.True(t, ok)
	assert.Equal(t, uint16(network.MsgTypeSubmitVote), msgID)
	assert.Equal(t, models.TargetRequest{RoomID: "abc1234", TargetID: "p2"}, payload)

	msgID, payload, ok = command("mafia kill the doctor", "abc1234")
	assert.True(t, ok)
	assert.Equal(t, uint16(network.MsgTypeMafiaChatMessage), msgID)
	assert.Equal(t, models.ChatRequest{RoomID: "abc1234", Message: "kill the doctor"}, payload)

	_, _, ok = command("spin", "")
	assert.False(t, ok)
}
