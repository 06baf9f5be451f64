package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536
	sendBufSize    = 64
	eventBufSize   = 256
)

// Channel is the bidirectional message channel to the game server. Exactly
// one is opened per match view instance; inbound events are decoded into
// typed Events and delivered on Events(). Snapshots may be pushed as JSON
// text frames or compact msgpack binary frames.
type Channel struct {
	conn   *websocket.Conn
	send   chan []byte
	events chan Event

	entryOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// DialChannel opens the websocket connection and starts the read and write
// pumps. The session token rides in the Authorization header.
func DialChannel(wsURL, token string) (*Channel, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	ch := &Channel{
		conn:   conn,
		send:   make(chan []byte, sendBufSize),
		events: make(chan Event, eventBufSize),
		done:   make(chan struct{}),
	}
	ch.events <- ConnectedEvent{}
	go ch.writePump()
	go ch.readPump()
	return ch, nil
}

// Events returns the inbound event stream. The channel is closed after a
// DisconnectedEvent when the read pump terminates.
func (ch *Channel) Events() <-chan Event { return ch.events }

// EnterRoom emits the single room-entry intent for this view instance:
// create if the seat is the creator, join otherwise. Repeat calls are
// no-ops, so a transport-level reconnect cannot produce a duplicate entry.
func (ch *Channel) EnterRoom(seat Seat, roomID string) {
	ch.entryOnce.Do(func() {
		if seat.IsCreator {
			ch.SendJSON(Envelope{T: MsgCreateRoom, Data: CreateRoomMsg{RoomID: roomID, UserID: seat.UserID}})
		} else {
			ch.SendJSON(Envelope{T: MsgJoinRoom, Data: JoinRoomMsg{RoomID: roomID, UserID: seat.UserID}})
		}
	})
}

// SendJSON marshals and queues an outbound message. Messages are dropped if
// the write buffer is full or the channel is closed.
func (ch *Channel) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Warnw("marshal error", "err", err)
		return
	}
	select {
	case ch.send <- data:
	case <-ch.done:
	default:
	}
}

// Close tears the channel down deterministically. It is fire-and-forget
// cleanup: safe to call more than once, never blocks, never retries.
func (ch *Channel) Close() {
	ch.closeOnce.Do(func() {
		close(ch.done)
		deadline := time.Now().Add(writeWait)
		_ = ch.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = ch.conn.Close()
	})
}

// readPump reads frames until the connection drops, decoding each into a
// typed event.
func (ch *Channel) readPump() {
	defer func() {
		ch.Close()
		close(ch.events)
	}()

	ch.conn.SetReadLimit(maxMessageSize)
	ch.conn.SetReadDeadline(time.Now().Add(pongWait))
	ch.conn.SetPingHandler(func(appData string) error {
		ch.conn.SetReadDeadline(time.Now().Add(pongWait))
		deadline := time.Now().Add(writeWait)
		return ch.conn.WriteControl(websocket.PongMessage, []byte(appData), deadline)
	})
	ch.conn.SetPongHandler(func(string) error {
		ch.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := ch.conn.ReadMessage()
		if err != nil {
			select {
			case <-ch.done:
				ch.deliver(DisconnectedEvent{})
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warnw("ws read error", "err", err)
				}
				ch.deliver(DisconnectedEvent{Err: err})
			}
			return
		}
		ch.conn.SetReadDeadline(time.Now().Add(pongWait))

		if msgType == websocket.BinaryMessage {
			// Binary frames carry msgpack-encoded snapshots only
			var snap GameSnapshot
			if err := msgpack.Unmarshal(message, &snap); err != nil {
				logger.Warnw("msgpack decode error", "err", err)
				continue
			}
			ch.deliver(SnapshotEvent{Snapshot: &snap})
			continue
		}
		ch.handleMessage(message)
	}
}

// writePump writes queued messages and keeps the connection alive with pings
func (ch *Channel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ch.Close()
	}()

	for {
		select {
		case <-ch.done:
			return
		case message := <-ch.send:
			ch.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ch.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			ch.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ch.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage routes one inbound text frame (single-pass decode via InEnvelope)
func (ch *Channel) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warnw("unmarshal error", "err", err)
		return
	}

	switch env.T {
	case MsgTemplates:
		var msg TemplatesMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return
		}
		ch.deliver(TemplatesEvent{Templates: msg})

	case MsgStart:
		var msg StartMsg
		if len(env.D) > 0 {
			_ = json.Unmarshal(env.D, &msg)
		}
		ch.deliver(StartEvent{RoomID: msg.RoomID})

	case MsgState:
		var snap GameSnapshot
		if err := json.Unmarshal(env.D, &snap); err != nil {
			logger.Warnw("snapshot decode error", "err", err)
			return
		}
		ch.deliver(SnapshotEvent{Snapshot: &snap})

	case MsgEnd:
		var msg EndMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return
		}
		ch.deliver(EndEvent{WinnerID: msg.WinnerID})

	case MsgPeerDisconnected:
		var msg PeerMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return
		}
		ch.deliver(PeerDisconnectedEvent{PlayerID: msg.PlayerID, Reason: msg.Reason})

	case MsgPeerReconnected:
		var msg PeerMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return
		}
		ch.deliver(PeerReconnectedEvent{PlayerID: msg.PlayerID})

	case MsgAbandoned:
		var msg AbandonedMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return
		}
		ch.deliver(AbandonedEvent{Reason: msg.Reason, WinnerID: msg.WinnerID, LoserID: msg.LoserID})

	case MsgError:
		var msg ErrorMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return
		}
		ch.deliver(ErrorEvent{Msg: msg.Msg})

	default:
		logger.Debugw("unknown message type", "type", env.T)
	}
}

// deliver queues an event for the consumer. A closed channel aborts the
// send so no callback fires after teardown.
func (ch *Channel) deliver(ev Event) {
	select {
	case ch.events <- ev:
	case <-ch.done:
	}
}
