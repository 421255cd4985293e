package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeCreateRoom   = 101
	MsgTypeJoinRoom     = 102
	MsgTypeReconnect    = 103
	MsgTypeLeaveRoom    = 104
	MsgTypeStartRound   = 201
	MsgTypeSubmitGuess  = 202
	MsgTypeFinishRound  = 203
	MsgTypeResetRoom    = 204
	MsgTypeRoomSnapshot = 301
	MsgTypeSoloStart    = 401
	MsgTypeSoloGuess    = 402
	MsgTypeSoloHistory  = 403
)

// send frames and sends one message to the gateway.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendJSON(c *websocket.Conn, msgID uint16, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return send(c, msgID, data)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	playerID := os.Getenv("GEOROOM_PLAYER_ID")
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	if playerID != "" {
		u.RawQuery = "playerId=" + playerID
	}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			if msgID == MsgTypeRoomSnapshot {
				log.Printf("<- SNAPSHOT: %s", string(data))
			} else {
				log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
			}
		}
	}()

	fmt.Println(`Commands:
  create <name> <seconds>   create a room
  join <code> <name>        join a waiting room
  reconnect <code> <name>   resume after a refresh
  start                     start the round (creator only)
  guess <lat> <lng>         submit a guess
  finish                    finish the round
  reset                     back to the lobby (creator only)
  leave                     leave the room
  solo                      start a single-player round
  sologuess <lat> <lng>     guess the single-player round
  history                   recent single-player results`)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
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
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "create":
				if len(fields) != 3 {
					fmt.Println("usage: create <name> <seconds>")
					continue
				}
				seconds, convErr := strconv.Atoi(fields[2])
				if convErr != nil {
					fmt.Println("bad duration:", fields[2])
					continue
				}
				err = sendJSON(c, MsgTypeCreateRoom, map[string]any{"name": fields[1], "durationSec": seconds})
			case "join", "reconnect":
				if len(fields) != 3 {
					fmt.Printf("usage: %s <code> <name>\n", fields[0])
					continue
				}
				msgID := uint16(MsgTypeJoinRoom)
				if fields[0] == "reconnect" {
					msgID = MsgTypeReconnect
				}
				err = sendJSON(c, msgID, map[string]string{"code": fields[1], "name": fields[2]})
			case "start":
				err = send(c, MsgTypeStartRound, nil)
			case "guess", "sologuess":
				if len(fields) != 3 {
					fmt.Printf("usage: %s <lat> <lng>\n", fields[0])
					continue
				}
				lat, latErr := strconv.ParseFloat(fields[1], 64)
				lng, lngErr := strconv.ParseFloat(fields[2], 64)
				if latErr != nil || lngErr != nil {
					fmt.Println("bad coordinates")
					continue
				}
				msgID := uint16(MsgTypeSubmitGuess)
				if fields[0] == "sologuess" {
					msgID = MsgTypeSoloGuess
				}
				err = sendJSON(c, msgID, map[string]any{
					"guess": map[string]float64{"lat": lat, "lng": lng},
				})
			case "finish":
				err = send(c, MsgTypeFinishRound, nil)
			case "reset":
				err = send(c, MsgTypeResetRoom, nil)
			case "leave":
				err = send(c, MsgTypeLeaveRoom, nil)
			case "solo":
				err = send(c, MsgTypeSoloStart, nil)
			case "history":
				err = send(c, MsgTypeSoloHistory, nil)
			default:
				fmt.Println("unknown command:", fields[0])
				continue
			}

			if err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}
