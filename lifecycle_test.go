package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLifecycle(seat Seat, policy SnapshotPolicy) *Lifecycle {
	return NewLifecycle(seat, NewCatalog(), NewNotificationQueue(), policy)
}

func testSnapshot(status string) *GameSnapshot {
	return &GameSnapshot{
		Players: []Player{
			{ID: 1, Resources: 200, CoreHP: 1000, CorePosition: Vec2{X: 50, Y: 300}},
			{ID: 2, Resources: 200, CoreHP: 1000, CorePosition: Vec2{X: 750, Y: 300}},
		},
		Status: status,
	}
}

func TestConnectMovesToWaiting(t *testing.T) {
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	assert.Equal(t, PhaseConnecting, lc.Phase())

	lc.HandleEvent(ConnectedEvent{})
	assert.Equal(t, PhaseWaiting, lc.Phase())
}

func TestCountdownSequence(t *testing.T) {
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	lc.HandleEvent(ConnectedEvent{})
	lc.HandleEvent(StartEvent{RoomID: "r1"})

	require.Equal(t, PhaseCountdown, lc.Phase())

	var labels []string
	labels = append(labels, lc.CountdownLabel())
	for lc.Phase() == PhaseCountdown {
		lc.TickCountdown()
		if lc.Phase() == PhaseCountdown {
			labels = append(labels, lc.CountdownLabel())
		}
	}
	assert.Equal(t, []string{"5", "4", "3", "2", "1", "GO!"}, labels)
	assert.Equal(t, PhaseActive, lc.Phase())
	assert.Empty(t, lc.CountdownLabel())
}

func TestSnapshotBeforeStartIsKept(t *testing.T) {
	// Snapshot and start race on the wire. Applying the snapshot first must
	// not advance the phase, and the start event must not drop the snapshot.
	lc := newTestLifecycle(Seat{UserID: 2, IsCreator: false}, SnapshotIgnoreAfterEnd)
	lc.HandleEvent(ConnectedEvent{})

	snap := testSnapshot(StatusActive)
	lc.HandleEvent(SnapshotEvent{Snapshot: snap})
	assert.Equal(t, PhaseWaiting, lc.Phase())
	assert.Same(t, snap, lc.Snapshot())

	lc.HandleEvent(StartEvent{RoomID: "r1"})
	assert.Equal(t, PhaseCountdown, lc.Phase())
	assert.Same(t, snap, lc.Snapshot())
}

func TestStartBeforeSnapshotEquivalent(t *testing.T) {
	seat := Seat{UserID: 2, IsCreator: false}
	snap := testSnapshot(StatusActive)

	a := newTestLifecycle(seat, SnapshotIgnoreAfterEnd)
	a.HandleEvent(ConnectedEvent{})
	a.HandleEvent(SnapshotEvent{Snapshot: snap})
	a.HandleEvent(StartEvent{RoomID: "r1"})

	b := newTestLifecycle(seat, SnapshotIgnoreAfterEnd)
	b.HandleEvent(ConnectedEvent{})
	b.HandleEvent(StartEvent{RoomID: "r1"})
	b.HandleEvent(SnapshotEvent{Snapshot: snap})

	assert.Equal(t, a.Phase(), b.Phase())
	assert.Same(t, a.Snapshot(), b.Snapshot())
	assert.Equal(t, a.CountdownLabel(), b.CountdownLabel())
}

func TestSnapshotNeverAdvancesPhase(t *testing.T) {
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	lc.HandleEvent(ConnectedEvent{})
	lc.HandleEvent(StartEvent{RoomID: "r1"})

	// Even a snapshot claiming an active match leaves the countdown running
	lc.HandleEvent(SnapshotEvent{Snapshot: testSnapshot(StatusActive)})
	assert.Equal(t, PhaseCountdown, lc.Phase())
}

func TestNilSnapshotIgnored(t *testing.T) {
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	snap := testSnapshot(StatusActive)
	lc.ApplySnapshot(snap)
	lc.ApplySnapshot(nil)
	assert.Same(t, snap, lc.Snapshot())
}

func TestEndWonAndLost(t *testing.T) {
	winner := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	winner.HandleEvent(EndEvent{WinnerID: 1})
	assert.Equal(t, PhaseEnded, winner.Phase())
	assert.Equal(t, EndResult, winner.Outcome().Kind)
	assert.True(t, winner.Outcome().Won)

	loser := newTestLifecycle(Seat{UserID: 2, IsCreator: false}, SnapshotIgnoreAfterEnd)
	loser.HandleEvent(EndEvent{WinnerID: 1})
	assert.Equal(t, PhaseEnded, loser.Phase())
	assert.False(t, loser.Outcome().Won)
}

func TestAbandonedRenderedAsWinForSurvivor(t *testing.T) {
	// The winner in an abandoned match is whoever the event names, not
	// whoever stayed connected from the local point of view.
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	lc.HandleEvent(AbandonedEvent{Reason: "opponent left", WinnerID: 1, LoserID: 2})

	assert.Equal(t, PhaseEnded, lc.Phase())
	assert.Equal(t, EndAbandoned, lc.Outcome().Kind)
	assert.True(t, lc.Outcome().Won)
	assert.Equal(t, "opponent left", lc.Outcome().Reason)
}

func TestAbandonedRenderedAsLossForLeaver(t *testing.T) {
	lc := newTestLifecycle(Seat{UserID: 2, IsCreator: false}, SnapshotIgnoreAfterEnd)
	lc.HandleEvent(AbandonedEvent{Reason: "timeout", WinnerID: 1, LoserID: 2})
	assert.Equal(t, EndAbandoned, lc.Outcome().Kind)
	assert.False(t, lc.Outcome().Won)
}

func TestEndAfterEndIsIgnored(t *testing.T) {
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	lc.HandleEvent(EndEvent{WinnerID: 1})
	first := lc.Outcome()

	lc.HandleEvent(EndEvent{WinnerID: 2})
	lc.HandleEvent(AbandonedEvent{WinnerID: 2, LoserID: 1})
	assert.Equal(t, first, lc.Outcome())
}

func TestPeerDisconnectIsNotTerminal(t *testing.T) {
	notify := NewNotificationQueue()
	lc := NewLifecycle(Seat{UserID: 1, IsCreator: true}, NewCatalog(), notify, SnapshotIgnoreAfterEnd)
	lc.HandleEvent(ConnectedEvent{})
	lc.HandleEvent(StartEvent{RoomID: "r1"})

	lc.HandleEvent(PeerDisconnectedEvent{PlayerID: 2, Reason: "network"})
	assert.Equal(t, PhaseCountdown, lc.Phase())
	assert.Equal(t, EndNone, lc.Outcome().Kind)
	assert.Equal(t, 1, notify.Len())

	lc.HandleEvent(PeerReconnectedEvent{PlayerID: 2})
	assert.Equal(t, PhaseCountdown, lc.Phase())
	assert.Equal(t, 2, notify.Len())
}

func TestTerminalVsTransientErrors(t *testing.T) {
	transient := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	transient.HandleEvent(ConnectedEvent{})
	transient.HandleEvent(ErrorEvent{Msg: "Not enough resources"})
	assert.Equal(t, PhaseWaiting, transient.Phase())
	assert.Equal(t, EndNone, transient.Outcome().Kind)

	terminal := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	terminal.HandleEvent(ConnectedEvent{})
	terminal.HandleEvent(ErrorEvent{Msg: "Room not found"})
	assert.Equal(t, PhaseEnded, terminal.Phase())
	assert.Equal(t, EndError, terminal.Outcome().Kind)
}

func TestDisconnectBeforeEndIsError(t *testing.T) {
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	lc.HandleEvent(ConnectedEvent{})
	lc.HandleEvent(StartEvent{RoomID: "r1"})

	lc.HandleEvent(DisconnectedEvent{})
	assert.Equal(t, PhaseEnded, lc.Phase())
	assert.Equal(t, EndError, lc.Outcome().Kind)
}

func TestDisconnectAfterEndKeepsOutcome(t *testing.T) {
	// The channel tears down after a match ends; the planned disconnect must
	// not overwrite the result.
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	lc.HandleEvent(EndEvent{WinnerID: 1})
	lc.HandleEvent(DisconnectedEvent{})
	assert.Equal(t, EndResult, lc.Outcome().Kind)
	assert.True(t, lc.Outcome().Won)
}

func TestSnapshotPolicyAfterEnd(t *testing.T) {
	first := testSnapshot(StatusActive)
	late := testSnapshot(StatusEnded)

	ignore := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	ignore.ApplySnapshot(first)
	ignore.HandleEvent(EndEvent{WinnerID: 1})
	ignore.ApplySnapshot(late)
	assert.Same(t, first, ignore.Snapshot())

	apply := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotApplyAfterEnd)
	apply.ApplySnapshot(first)
	apply.HandleEvent(EndEvent{WinnerID: 1})
	apply.ApplySnapshot(late)
	assert.Same(t, late, apply.Snapshot())
	assert.Equal(t, PhaseEnded, apply.Phase())
}

func TestNavigateDueFiresExactlyOnce(t *testing.T) {
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lc.now = func() time.Time { return clock }

	assert.False(t, lc.NavigateDue())

	lc.HandleEvent(EndEvent{WinnerID: 1})
	assert.False(t, lc.NavigateDue(), "delay has not elapsed")

	clock = clock.Add(navigateDelay - time.Millisecond)
	assert.False(t, lc.NavigateDue())

	clock = clock.Add(2 * time.Millisecond)
	assert.True(t, lc.NavigateDue())
	assert.False(t, lc.NavigateDue(), "must fire once")
}

func TestNavigateDelayNotRescheduledBySecondTerminal(t *testing.T) {
	lc := newTestLifecycle(Seat{UserID: 1, IsCreator: true}, SnapshotIgnoreAfterEnd)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lc.now = func() time.Time { return clock }

	lc.HandleEvent(ErrorEvent{Msg: "room not found"})
	clock = clock.Add(2 * time.Second)
	lc.HandleEvent(DisconnectedEvent{})

	clock = clock.Add(navigateDelay - 2*time.Second)
	assert.True(t, lc.NavigateDue(), "delay counts from the first terminal transition")
}

func TestTemplatesEventUpdatesCatalog(t *testing.T) {
	catalog := NewCatalog()
	lc := NewLifecycle(Seat{UserID: 1, IsCreator: true}, catalog, NewNotificationQueue(), SnapshotIgnoreAfterEnd)

	lc.HandleEvent(TemplatesEvent{Templates: TemplatesMsg{
		Defenses: []DefenseTemplate{{Type: DefWall, Cost: 75, MaxHP: 120, Limit: 6}},
	}})

	tpl, ok := catalog.Defense(DefWall)
	require.True(t, ok)
	assert.Equal(t, 75, tpl.Cost)
	assert.Equal(t, 6, tpl.Limit)
}
