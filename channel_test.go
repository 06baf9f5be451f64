package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startGameServer runs a scripted fake server. The handler receives each
// accepted connection; the returned URL is ws://-schemed.
func startGameServer(t *testing.T, handler func(conn *websocket.Conn, r *http.Request)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handler(conn, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func recvEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("event stream closed early")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

// sendEnvelope writes one scripted frame. It runs on the server goroutine,
// so failures are reported with Errorf rather than Fatalf.
func sendEnvelope(t *testing.T, conn *websocket.Conn, typ string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(Envelope{T: typ, Data: data})
	if err != nil {
		t.Errorf("marshal: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Errorf("write: %v", err)
	}
}

func TestChannelDeliversConnectedFirst(t *testing.T) {
	url := startGameServer(t, func(conn *websocket.Conn, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("missing bearer token, got %q", got)
		}
		conn.ReadMessage() // block until the client goes away
	})

	ch, err := DialChannel(url, "tok-123")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ch.Close()

	if _, ok := recvEvent(t, ch.Events()).(ConnectedEvent); !ok {
		t.Fatal("first event must be ConnectedEvent")
	}
}

func TestEnterRoomEmitsExactlyOnce(t *testing.T) {
	got := make(chan InEnvelope, 8)
	url := startGameServer(t, func(conn *websocket.Conn, r *http.Request) {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				close(got)
				return
			}
			var env InEnvelope
			if json.Unmarshal(raw, &env) == nil {
				got <- env
			}
		}
	})

	ch, err := DialChannel(url, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	seat := Seat{UserID: 7, IsCreator: true}
	ch.EnterRoom(seat, "room-9")
	ch.EnterRoom(seat, "room-9") // reconnect path must not duplicate

	env := <-got
	if env.T != MsgCreateRoom {
		t.Fatalf("expected %s, got %s", MsgCreateRoom, env.T)
	}
	var msg CreateRoomMsg
	if err := json.Unmarshal(env.D, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.RoomID != "room-9" || msg.UserID != 7 {
		t.Fatalf("wrong entry payload: %+v", msg)
	}

	ch.Close()
	for env := range got {
		if env.T == MsgCreateRoom || env.T == MsgJoinRoom {
			t.Fatalf("duplicate entry intent %s", env.T)
		}
	}
}

func TestJoinerEmitsJoin(t *testing.T) {
	got := make(chan InEnvelope, 1)
	url := startGameServer(t, func(conn *websocket.Conn, r *http.Request) {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env InEnvelope
		json.Unmarshal(raw, &env)
		got <- env
		conn.ReadMessage()
	})

	ch, err := DialChannel(url, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ch.Close()
	ch.EnterRoom(Seat{UserID: 8, IsCreator: false}, "room-9")

	if env := <-got; env.T != MsgJoinRoom {
		t.Fatalf("expected %s, got %s", MsgJoinRoom, env.T)
	}
}

func TestChannelDecodesScriptedMatch(t *testing.T) {
	binarySnap, err := msgpack.Marshal(&GameSnapshot{
		Players: []Player{{ID: 1, Resources: 170}, {ID: 2, Resources: 200}},
		Status:  StatusActive,
	})
	if err != nil {
		t.Fatalf("msgpack: %v", err)
	}

	url := startGameServer(t, func(conn *websocket.Conn, r *http.Request) {
		sendEnvelope(t, conn, MsgTemplates, TemplatesMsg{
			Defenses: []DefenseTemplate{{Type: DefWall, Cost: 55, MaxHP: 100, Limit: 10}},
		})
		sendEnvelope(t, conn, MsgStart, StartMsg{RoomID: "room-9"})
		sendEnvelope(t, conn, MsgState, GameSnapshot{
			Players: []Player{{ID: 1, Resources: 200}, {ID: 2, Resources: 200}},
			Status:  StatusActive,
		})
		if err := conn.WriteMessage(websocket.BinaryMessage, binarySnap); err != nil {
			t.Errorf("binary write: %v", err)
		}
		sendEnvelope(t, conn, MsgPeerDisconnected, PeerMsg{PlayerID: 2, Reason: "network"})
		sendEnvelope(t, conn, MsgPeerReconnected, PeerMsg{PlayerID: 2})
		sendEnvelope(t, conn, MsgEnd, EndMsg{WinnerID: 1})
		conn.ReadMessage()
	})

	ch, err := DialChannel(url, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ch.Close()
	events := ch.Events()

	if _, ok := recvEvent(t, events).(ConnectedEvent); !ok {
		t.Fatal("expected ConnectedEvent")
	}
	tev, ok := recvEvent(t, events).(TemplatesEvent)
	if !ok {
		t.Fatal("expected TemplatesEvent")
	}
	if len(tev.Templates.Defenses) != 1 || tev.Templates.Defenses[0].Cost != 55 {
		t.Fatalf("wrong templates: %+v", tev.Templates)
	}
	sev, ok := recvEvent(t, events).(StartEvent)
	if !ok || sev.RoomID != "room-9" {
		t.Fatalf("expected StartEvent for room-9, got %#v", sev)
	}
	jsonSnap, ok := recvEvent(t, events).(SnapshotEvent)
	if !ok || jsonSnap.Snapshot.Players[0].Resources != 200 {
		t.Fatalf("expected JSON snapshot, got %#v", jsonSnap)
	}
	binSnap, ok := recvEvent(t, events).(SnapshotEvent)
	if !ok || binSnap.Snapshot.Players[0].Resources != 170 {
		t.Fatalf("expected msgpack snapshot, got %#v", binSnap)
	}
	if _, ok := recvEvent(t, events).(PeerDisconnectedEvent); !ok {
		t.Fatal("expected PeerDisconnectedEvent")
	}
	if _, ok := recvEvent(t, events).(PeerReconnectedEvent); !ok {
		t.Fatal("expected PeerReconnectedEvent")
	}
	eev, ok := recvEvent(t, events).(EndEvent)
	if !ok || eev.WinnerID != 1 {
		t.Fatalf("expected EndEvent winner 1, got %#v", eev)
	}
}

func TestServerDropDeliversDisconnected(t *testing.T) {
	url := startGameServer(t, func(conn *websocket.Conn, r *http.Request) {
		sendEnvelope(t, conn, MsgError, ErrorMsg{Msg: "Room not found"})
		// abrupt close, no close handshake
	})

	ch, err := DialChannel(url, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ch.Close()
	events := ch.Events()

	recvEvent(t, events) // ConnectedEvent
	errEv, ok := recvEvent(t, events).(ErrorEvent)
	if !ok || errEv.Msg != "Room not found" {
		t.Fatalf("expected ErrorEvent, got %#v", errEv)
	}

	sawDisconnect := false
	for {
		select {
		case ev, open := <-events:
			if !open {
				if !sawDisconnect {
					t.Fatal("stream closed without DisconnectedEvent")
				}
				return
			}
			if _, ok := ev.(DisconnectedEvent); ok {
				sawDisconnect = true
			}
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for stream close")
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	url := startGameServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.ReadMessage()
	})

	ch, err := DialChannel(url, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	ch.Close()
	ch.Close()
	ch.Close()

	// Sends after close must not panic or block
	ch.SendJSON(Envelope{T: MsgPlaceDefense, Data: PlaceDefenseMsg{RoomID: "r"}})

	// The event stream drains and closes
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, open := <-ch.Events():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("event stream did not close after Close")
		}
	}
}

func TestUnknownMessageTypeIgnored(t *testing.T) {
	url := startGameServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"t":"game:fogOfWar","d":{}}`))
		sendEnvelope(t, conn, MsgStart, StartMsg{RoomID: "r"})
		conn.ReadMessage()
	})

	ch, err := DialChannel(url, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ch.Close()

	recvEvent(t, ch.Events()) // ConnectedEvent
	if _, ok := recvEvent(t, ch.Events()).(StartEvent); !ok {
		t.Fatal("unknown frame must be skipped, start must still arrive")
	}
}
