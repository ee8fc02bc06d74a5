package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/network"
)

const usage = `commands:
  create [name]         create a room
  join <room> [name]    join a room
  start                 start the game
  vote <player>         day vote
  act <player>          night action
  say <message>         room chat
  mafia <message>       mafia team chat`

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// command turns one input line into an outbound packet.
func command(line, roomID string) (uint16, interface{}, bool) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "create":
		return network.MsgTypeCreateRoom, models.RoomSettings{Name: rest}, true
	case "join":
		id, name, _ := strings.Cut(rest, " ")
		return network.MsgTypeJoinRoom, models.JoinRoomRequest{RoomID: id, Name: strings.TrimSpace(name)}, true
	case "start":
		return network.MsgTypeStartGame, models.RoomRequest{RoomID: roomID}, true
	case "vote":
		return network.MsgTypeSubmitVote, models.TargetRequest{RoomID: roomID, TargetID: rest}, true
	case "act":
		return network.MsgTypeNightAction, models.TargetRequest{RoomID: roomID, TargetID: rest}, true
	case "say":
		return network.MsgTypeChatMessage, models.ChatRequest{RoomID: roomID, Message: rest}, true
	case "mafia":
		return network.MsgTypeMafiaChatMessage, models.ChatRequest{RoomID: roomID, Message: rest}, true
	}
	return 0, nil, false
}

func main() {
	addr := flag.String("addr", "localhost:3000", "server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})
	joined := make(chan string, 1)

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.Decode(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			if packet.MsgID == network.MsgTypeRoomCreated || packet.MsgID == network.MsgTypeJoinedRoom {
				var resp models.RoomResponse
				if json.Unmarshal(packet.Data, &resp) == nil {
					joined <- resp.RoomID
				}
			}
			log.Printf("<- %s: %s", network.EventName(packet.MsgID), string(packet.Data))
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	// keep the read deadline on the server side fresh
	heartbeat := time.NewTicker(10 * time.Second)
	defer heartbeat.Stop()

	log.Println(usage)
	roomID := ""
	for {
		select {
		case <-done:
			return
		case <-heartbeat.C:
			packet, _ := network.Encode(network.MsgTypeHeartbeat, nil)
			if err := c.WriteMessage(websocket.BinaryMessage, packet); err != nil {
				log.Println("Write error:", err)
				return
			}
		case id := <-joined:
			roomID = id
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line := <-lines:
			msgID, payload, ok := command(line, roomID)
			if !ok {
				log.Println(usage)
				continue
			}
			if err := send(c, msgID, payload); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> %s", network.EventName(msgID))
		}
	}
}
