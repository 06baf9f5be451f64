package main

import (
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
)

// App owns the long-lived collaborators: screen, config, local database,
// REST client, sprites and audio. Match views are created per room and torn
// down with a single deterministic cleanup.
type App struct {
	screen  tcell.Screen
	cfg     *Config
	db      *DB
	api     *APIClient
	session *Session
	sprites *SpriteSet
	audio   *AudioPlayer

	input chan tcell.Event
}

// NewApp wires the application together.
func NewApp(screen tcell.Screen, cfg *Config, db *DB, api *APIClient) *App {
	return &App{
		screen:  screen,
		cfg:     cfg,
		db:      db,
		api:     api,
		sprites: LoadSprites(cfg.SpritesPath),
		audio:   NewAudioPlayer(cfg.Audio),
		input:   make(chan tcell.Event, 32),
	}
}

// Run drives the screen flow: login, dashboard, match, and back. It returns
// when the user quits.
func (a *App) Run() error {
	go a.pollInput()

	// Restore a saved session when one is present and unexpired
	if s, err := LoadSession(a.db, ""); err == nil && s.Valid(time.Now()) {
		a.session = s
		a.api.SetToken(s.Token)
	}

	for {
		if a.session == nil || !a.session.Valid(time.Now()) {
			ok, err := a.runLogin()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			continue
		}

		action := a.runDashboard()
		switch action.kind {
		case actionQuit:
			return nil
		case actionLogout:
			a.session = nil
			a.api.SetToken("")
			if err := ClearSession(a.db); err != nil {
				logger.Warnw("clear session failed", "err", err)
			}
		case actionMatch:
			if err := a.runMatch(action.roomID, action.isCreator); err != nil {
				logger.Warnw("match ended with error", "room", action.roomID, "err", err)
			}
		}
	}
}

// pollInput forwards tcell events into the single select loop. PollEvent
// returns nil once the screen is finalized, which ends the goroutine.
func (a *App) pollInput() {
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			close(a.input)
			return
		}
		a.input <- ev
	}
}

// matchView bundles the per-match mutable state: the lifecycle machine, the
// two timers and the pointer. Everything here dies in one teardown.
type matchView struct {
	lc        *Lifecycle
	ch        *Channel
	disp      *Dispatcher
	renderer  *Renderer
	notify    *NotificationQueue
	frames    *FrameScheduler
	countdown *time.Ticker

	roomID       string
	pointerX     float64 // display space
	pointerY     float64
	selectedDef  string
	selectedProj string
}

// runMatch runs one match view until navigation away. The loop is the
// cooperative scheduler: channel events, countdown ticks, frame ticks and
// input are discrete, non-overlapping callbacks over state owned here, so
// the snapshot needs no locking. Last write wins, replace not merge.
func (a *App) runMatch(roomID string, isCreator bool) error {
	seat := Seat{UserID: a.session.UserID, IsCreator: isCreator}
	catalog := NewCatalog()
	notify := NewNotificationQueue()
	lc := NewLifecycle(seat, catalog, notify, a.cfg.SnapshotPolicy())

	ch, err := DialChannel(a.cfg.WSURL, a.session.Token)
	if err != nil {
		return err
	}
	ch.EnterRoom(seat, roomID)

	mv := &matchView{
		lc:           lc,
		ch:           ch,
		disp:         NewDispatcher(seat, catalog, roomID, ch),
		renderer:     NewRenderer(a.screen, a.sprites, catalog, seat),
		notify:       notify,
		frames:       NewFrameScheduler(a.cfg.FPS),
		countdown:    time.NewTicker(time.Second),
		roomID:       roomID,
		pointerX:     ZonePlayer1End / 2,
		pointerY:     BoardHeight / 2,
		selectedDef:  DefWall,
		selectedProj: ProjBasic,
	}
	defer a.teardown(mv)

	mv.frames.Start()
	events := ch.Events()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			a.routeEvent(mv, ev)

		case <-mv.countdown.C:
			if lc.Phase() == PhaseCountdown {
				lc.TickCountdown()
				if lc.Phase() == PhaseActive {
					a.audio.MatchStart()
				} else {
					a.audio.CountdownTick()
				}
			}

		case <-mv.frames.C():
			mv.renderer.DrawFrame(a.frameView(mv))
			if lc.NavigateDue() {
				a.recordResult(mv)
				return nil
			}

		case tev, ok := <-a.input:
			if !ok {
				return nil
			}
			if done := a.handleMatchInput(mv, tev); done {
				return nil
			}
		}
	}
}

// teardown is the single cleanup path: cancel pending frames, clear the
// countdown timer, close the channel. No callback fires afterwards.
func (a *App) teardown(mv *matchView) {
	mv.frames.Stop()
	mv.countdown.Stop()
	mv.ch.Close()
}

// routeEvent feeds an inbound event through the lifecycle reducers and
// plays the matching audio cue.
func (a *App) routeEvent(mv *matchView, ev Event) {
	before := mv.lc.Outcome().Kind
	mv.lc.HandleEvent(ev)
	after := mv.lc.Outcome()

	switch ev.(type) {
	case PeerDisconnectedEvent, PeerReconnectedEvent, ErrorEvent:
		a.audio.Notify()
	}
	if before == EndNone && after.Kind != EndNone {
		if after.Won {
			a.audio.Victory()
		} else {
			a.audio.Defeat()
		}
	}
}

// frameView assembles the per-frame snapshot of everything the renderer
// draws.
func (a *App) frameView(mv *matchView) FrameView {
	var preview *PreviewState
	if mv.lc.Phase() == PhaseActive {
		preview = &PreviewState{DisplayX: mv.pointerX, DisplayY: mv.pointerY, Type: mv.selectedDef}
	}
	return FrameView{
		Phase:          mv.lc.Phase(),
		RoomID:         mv.roomID,
		CountdownLabel: mv.lc.CountdownLabel(),
		Outcome:        mv.lc.Outcome(),
		Snapshot:       mv.lc.Snapshot(),
		Preview:        preview,
		Notifications:  mv.notify.Active(),
		SelectedDef:    mv.selectedDef,
		SelectedProj:   mv.selectedProj,
	}
}

// pointerStep is the pointer movement per keypress, in display units
const pointerStep = 20.0

// handleMatchInput processes one tcell event inside the match view.
// Returns true when the user leaves the match.
func (a *App) handleMatchInput(mv *matchView, tev tcell.Event) bool {
	switch ev := tev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()

	case *tcell.EventMouse:
		x, y := ev.Position()
		w, h := a.screen.Size()
		bx, by, bw, bh := boardRect(w, h)
		mv.pointerX = Clamp((float64(x-bx)+0.5)/float64(bw)*BoardWidth, 0, BoardWidth-1)
		mv.pointerY = Clamp((float64(y-by)+0.5)/float64(bh)*BoardHeight, 0, BoardHeight-1)
		if ev.Buttons()&tcell.Button1 != 0 {
			a.tryPlace(mv)
		}

	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape:
			return true
		case tcell.KeyLeft:
			mv.pointerX = Clamp(mv.pointerX-pointerStep, 0, BoardWidth-1)
		case tcell.KeyRight:
			mv.pointerX = Clamp(mv.pointerX+pointerStep, 0, BoardWidth-1)
		case tcell.KeyUp:
			mv.pointerY = Clamp(mv.pointerY-pointerStep, 0, BoardHeight-1)
		case tcell.KeyDown:
			mv.pointerY = Clamp(mv.pointerY+pointerStep, 0, BoardHeight-1)
		case tcell.KeyEnter:
			a.tryPlace(mv)
		case tcell.KeyRune:
			a.handleMatchRune(mv, ev.Rune())
		}
	}
	return false
}

func (a *App) handleMatchRune(mv *matchView, r rune) {
	defs := mv.disp.catalog.DefenseTypes()
	projs := mv.disp.catalog.ProjectileTypes()
	snap := mv.lc.Snapshot()

	switch {
	case r >= '1' && r <= '4':
		i := int(r - '1')
		if i < len(defs) {
			// Affordance gate: unaffordable or maxed-out types cannot be
			// selected, so no click ever emits them.
			if mv.disp.CanSelectDefense(snap, defs[i]) {
				mv.selectedDef = defs[i]
			} else {
				mv.notify.Push("Cannot select "+defs[i], SeverityWarning, NotifyShort)
			}
		}
	case r >= '7' && r <= '9':
		i := int(r - '7')
		if i < len(projs) {
			mv.selectedProj = projs[i]
		}
	case r == ' ':
		a.tryPlace(mv)
	case r == 'f':
		if mv.lc.Phase() == PhaseActive && mv.disp.CanAffordProjectile(snap, mv.selectedProj) {
			mv.disp.LaunchAttack(snap, mv.selectedProj)
		}
	}
}

// tryPlace routes a placement click through the affordance-gated dispatcher
// entry. Outside the active phase clicks are ignored entirely.
func (a *App) tryPlace(mv *matchView) {
	if mv.lc.Phase() != PhaseActive {
		return
	}
	mv.disp.TryPlaceDefense(mv.lc.Snapshot(), mv.pointerX, mv.pointerY, mv.selectedDef)
}

// recordResult appends the finished match to the local history
func (a *App) recordResult(mv *matchView) {
	o := mv.lc.Outcome()
	outcome := "error"
	switch o.Kind {
	case EndResult, EndAbandoned:
		if o.Won {
			outcome = "won"
		} else {
			outcome = "lost"
		}
		if o.Kind == EndAbandoned {
			outcome += " (abandoned)"
		}
	}
	opponent := ""
	if snap := mv.lc.Snapshot(); snap != nil {
		if opp := snap.OpponentOf(a.session.UserID); opp != nil {
			opponent = strconv.FormatInt(opp.ID, 10)
		}
	}
	if err := a.db.AddMatchResult(mv.roomID, outcome, opponent); err != nil {
		logger.Warnw("record match failed", "err", err)
	}
}
