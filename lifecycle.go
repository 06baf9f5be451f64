package main

import (
	"strconv"
	"strings"
	"time"
)

// Seat identifies the local participant. It is derived once at match entry
// and fixed for the lifetime of the match.
type Seat struct {
	UserID    int64
	IsCreator bool
}

// Phase is the coarse lifecycle state of the match view
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseWaiting
	PhaseCountdown
	PhaseActive
	PhaseEnded
)

// EndKind distinguishes how a match reached a terminal state
type EndKind int

const (
	EndNone      EndKind = iota
	EndResult            // match-end event with a winner
	EndAbandoned         // peer unreachable beyond the grace period
	EndError             // terminal protocol error
)

// Outcome describes a terminal state. Won is meaningful for EndResult and
// EndAbandoned; an abandoned match is rendered as a win or loss purely from
// the embedded winner id, independent of which side disconnected.
type Outcome struct {
	Kind   EndKind
	Won    bool
	Reason string
}

// SnapshotPolicy controls whether snapshots arriving after a terminal state
// still replace the stored snapshot. The source behavior is ambiguous here,
// so both modes are supported and tested.
type SnapshotPolicy int

const (
	SnapshotIgnoreAfterEnd SnapshotPolicy = iota
	SnapshotApplyAfterEnd
)

const (
	CountdownStart = 5               // initial countdown value
	countdownGo    = "GO!"           // textual sub-state after 1
	navigateDelay  = 4 * time.Second // time to read the outcome before redirect
)

// Terminal protocol error conditions, matched by substring. Anything else is
// surfaced as a notification without changing lifecycle state.
var terminalErrorPhrases = []string{
	"room not found",
	"already started",
	"already finished",
	"no longer reachable",
}

func isTerminalError(msg string) bool {
	m := strings.ToLower(msg)
	for _, p := range terminalErrorPhrases {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}

// Event is an inbound occurrence delivered by the connection channel
type Event interface{ isEvent() }

// ConnectedEvent fires once when the channel is open
type ConnectedEvent struct{}

// DisconnectedEvent fires when the channel read loop terminates
type DisconnectedEvent struct{ Err error }

// TemplatesEvent carries the catalogue sent at connect
type TemplatesEvent struct{ Templates TemplatesMsg }

// StartEvent signals the match beginning
type StartEvent struct{ RoomID string }

// SnapshotEvent carries a full state replacement
type SnapshotEvent struct{ Snapshot *GameSnapshot }

// EndEvent carries the match result
type EndEvent struct{ WinnerID int64 }

// PeerDisconnectedEvent is a transient connectivity signal
type PeerDisconnectedEvent struct {
	PlayerID int64
	Reason   string
}

// PeerReconnectedEvent is a transient connectivity signal
type PeerReconnectedEvent struct{ PlayerID int64 }

// AbandonedEvent reports a forfeited match
type AbandonedEvent struct {
	Reason   string
	WinnerID int64
	LoserID  int64
}

// ErrorEvent carries a protocol-level error message
type ErrorEvent struct{ Msg string }

func (ConnectedEvent) isEvent()        {}
func (DisconnectedEvent) isEvent()     {}
func (TemplatesEvent) isEvent()        {}
func (StartEvent) isEvent()            {}
func (SnapshotEvent) isEvent()         {}
func (EndEvent) isEvent()              {}
func (PeerDisconnectedEvent) isEvent() {}
func (PeerReconnectedEvent) isEvent()  {}
func (AbandonedEvent) isEvent()        {}
func (ErrorEvent) isEvent()            {}

// Lifecycle is the match state machine. Lifecycle transitions are driven
// only by explicit lifecycle events; snapshot application is a separate
// reducer that never advances the phase. The split is required because the
// first snapshot and the start event may arrive in either order and neither
// must be dropped.
type Lifecycle struct {
	seat    Seat
	catalog *Catalog
	notify  *NotificationQueue
	policy  SnapshotPolicy
	now     func() time.Time

	phase     Phase
	outcome   Outcome
	snapshot  *GameSnapshot
	countdown int  // 5..1 while counting, 0 during the "GO!" hold
	inGoHold  bool // textual sub-state between 1 and Active

	navAt    time.Time
	navSet   bool
	navFired bool
}

// NewLifecycle creates a lifecycle in the Connecting phase.
func NewLifecycle(seat Seat, catalog *Catalog, notify *NotificationQueue, policy SnapshotPolicy) *Lifecycle {
	return &Lifecycle{
		seat:    seat,
		catalog: catalog,
		notify:  notify,
		policy:  policy,
		now:     time.Now,
		phase:   PhaseConnecting,
	}
}

// Phase returns the current lifecycle phase
func (lc *Lifecycle) Phase() Phase { return lc.phase }

// Seat returns the local participant's seat
func (lc *Lifecycle) Seat() Seat { return lc.seat }

// Outcome returns the terminal outcome; Kind is EndNone before a terminal
// transition.
func (lc *Lifecycle) Outcome() Outcome { return lc.outcome }

// Snapshot returns the most recent stored snapshot, which may be nil before
// the first state push.
func (lc *Lifecycle) Snapshot() *GameSnapshot { return lc.snapshot }

// CountdownLabel returns the overlay text during the countdown phase
func (lc *Lifecycle) CountdownLabel() string {
	if lc.phase != PhaseCountdown {
		return ""
	}
	if lc.inGoHold {
		return countdownGo
	}
	return strconv.Itoa(lc.countdown)
}

// HandleEvent is the lifecycle reducer. It processes every event kind except
// snapshots, which go through ApplySnapshot.
func (lc *Lifecycle) HandleEvent(ev Event) {
	switch e := ev.(type) {
	case ConnectedEvent:
		if lc.phase == PhaseConnecting {
			lc.phase = PhaseWaiting
		}

	case TemplatesEvent:
		lc.catalog.ApplyTemplates(e.Templates)

	case StartEvent:
		if lc.phase == PhaseWaiting || lc.phase == PhaseConnecting {
			lc.phase = PhaseCountdown
			lc.countdown = CountdownStart
			lc.inGoHold = false
		}

	case SnapshotEvent:
		lc.ApplySnapshot(e.Snapshot)

	case EndEvent:
		if lc.phase == PhaseEnded {
			return
		}
		won := e.WinnerID == lc.seat.UserID
		lc.end(Outcome{Kind: EndResult, Won: won})
		if won {
			lc.notify.Push("Victory! Your core stands.", SeveritySuccess, NotifyLong)
		} else {
			lc.notify.Push("Defeat. Your core was destroyed.", SeverityError, NotifyLong)
		}

	case AbandonedEvent:
		if lc.phase == PhaseEnded {
			return
		}
		won := e.WinnerID == lc.seat.UserID
		lc.end(Outcome{Kind: EndAbandoned, Won: won, Reason: e.Reason})
		if won {
			lc.notify.Push("Opponent abandoned the match — you win.", SeveritySuccess, NotifyLong)
		} else {
			lc.notify.Push("Match abandoned: "+e.Reason, SeverityWarning, NotifyLong)
		}

	case PeerDisconnectedEvent:
		// Not a lifecycle transition: the match may continue, or the server
		// may later escalate to Abandoned.
		msg := "Opponent disconnected"
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
		lc.notify.Push(msg, SeverityWarning, NotifyShort)

	case PeerReconnectedEvent:
		lc.notify.Push("Opponent reconnected", SeverityInfo, NotifyShort)

	case ErrorEvent:
		lc.notify.Push(e.Msg, SeverityError, NotifyLong)
		if isTerminalError(e.Msg) && lc.phase != PhaseEnded {
			lc.end(Outcome{Kind: EndError, Reason: e.Msg})
		}

	case DisconnectedEvent:
		if lc.phase != PhaseEnded {
			lc.notify.Push("Connection to server lost", SeverityError, NotifyLong)
			reason := "connection lost"
			if e.Err != nil {
				reason = e.Err.Error()
			}
			lc.end(Outcome{Kind: EndError, Reason: reason})
		}
	}
}

// ApplySnapshot is the data reducer: it unconditionally replaces the stored
// snapshot and never changes the phase. After a terminal state the
// configured policy decides whether the final frame still updates.
func (lc *Lifecycle) ApplySnapshot(s *GameSnapshot) {
	if s == nil {
		return
	}
	if lc.phase == PhaseEnded && lc.policy == SnapshotIgnoreAfterEnd {
		return
	}
	lc.snapshot = s
}

// TickCountdown advances the self-driving countdown by one second. The
// sequence is 5,4,3,2,1, then the "GO!" hold, then Active. Driving it from
// a local ticker gives both clients an identical lead-in regardless of
// message latency.
func (lc *Lifecycle) TickCountdown() {
	if lc.phase != PhaseCountdown {
		return
	}
	switch {
	case lc.inGoHold:
		lc.phase = PhaseActive
	case lc.countdown > 1:
		lc.countdown--
	default:
		lc.countdown = 0
		lc.inGoHold = true
	}
}

// end performs the terminal transition and schedules the single delayed
// navigation away from the match view.
func (lc *Lifecycle) end(o Outcome) {
	lc.phase = PhaseEnded
	lc.outcome = o
	if !lc.navSet {
		lc.navAt = lc.now().Add(navigateDelay)
		lc.navSet = true
	}
}

// NavigateDue reports, exactly once, that the post-terminal delay elapsed
// and the view should navigate away.
func (lc *Lifecycle) NavigateDue() bool {
	if !lc.navSet || lc.navFired {
		return false
	}
	if lc.now().Before(lc.navAt) {
		return false
	}
	lc.navFired = true
	return true
}
