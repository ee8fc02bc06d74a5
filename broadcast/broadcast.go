// broadcast/broadcast.go
package broadcast

import (
	"errors"
	"fmt"

	"github.com/wfunc/mafiaserver/logger"
	"github.com/wfunc/mafiaserver/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToPlayers(playerIDs []string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
}

// 基于会话的广播器. 玩家ID就是会话ID
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
	}
}

// BroadcastToPlayers sends to every listed player that still has a session.
// A failed send does not stop delivery to the others; all failures are
// returned joined.
func (b *RoomBroadcaster) BroadcastToPlayers(playerIDs []string, msgID uint16, data []byte) error {
	var errs []error
	for _, s := range b.sessionManager.Lookup(playerIDs) {
		if err := s.Send(msgID, data); err != nil {
			// 处理发送错误, 连接的读循环会负责清理
			logger.Log.Debugf("send %d to %s failed: %v", msgID, s.ID, err)
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	return b.BroadcastToPlayers(b.sessionManager.IDs(), msgID, data)
}
