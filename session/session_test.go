package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/mafiaserver/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []uint16
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	if _, exists = manager.Get(sessionID); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_Lookup(t *testing.T) {
	manager := NewManager()
	manager.Add(NewSession("a", &MockConnection{}))
	manager.Add(NewSession("b", &MockConnection{}))
	manager.Add(NewSession("c", &MockConnection{}))

	found := manager.Lookup([]string{"a", "c", "missing"})
	if len(found) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(found))
	}
	if found[0].ID != "a" || found[1].ID != "c" {
		t.Errorf("Lookup should keep the requested order, got %s, %s", found[0].ID, found[1].ID)
	}
}

func TestSession_RoomID(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("test_session", conn)
	if sess.RoomID() != "" {
		t.Fatalf("new session should not be in a room, got %q", sess.RoomID())
	}

	sess.SetRoomID("room1")
	if sess.RoomID() != "room1" {
		t.Errorf("Expected room1, got %q", sess.RoomID())
	}

	before := sess.LastActive()
	time.Sleep(time.Millisecond)
	sess.Touch()
	if !sess.LastActive().After(before) {
		t.Error("Touch should advance LastActive")
	}

	if err := sess.Send(network.MsgTypeChatMessage, nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0] != network.MsgTypeChatMessage {
		t.Errorf("Send should reach the connection, got %v", conn.sent)
	}
}
