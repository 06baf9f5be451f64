package main

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
)

const DefaultFPS = 30

// FrameScheduler drives the fixed visual cadence. It is an explicit
// start/stop object instead of a free-running callback so teardown is
// deterministic and tests can single-step frames by calling the renderer
// directly.
type FrameScheduler struct {
	interval time.Duration
	ticker   *time.Ticker
	running  bool
}

// NewFrameScheduler creates a scheduler at the given frames per second.
func NewFrameScheduler(fps int) *FrameScheduler {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &FrameScheduler{interval: time.Second / time.Duration(fps)}
}

// Start begins emitting frame ticks
func (fs *FrameScheduler) Start() {
	if fs.running {
		return
	}
	fs.ticker = time.NewTicker(fs.interval)
	fs.running = true
}

// C returns the frame tick channel. While stopped it returns nil, which
// blocks forever in a select, so no frame fires after Stop.
func (fs *FrameScheduler) C() <-chan time.Time {
	if !fs.running {
		return nil
	}
	return fs.ticker.C
}

// Stop cancels the pending frames
func (fs *FrameScheduler) Stop() {
	if fs.running {
		fs.ticker.Stop()
		fs.running = false
	}
}

// PreviewState is the placement ghost that follows the pointer while the
// match is active.
type PreviewState struct {
	DisplayX float64
	DisplayY float64
	Type     string
}

// FrameView is everything the renderer needs for one frame: the latest
// snapshot plus the ephemeral overlay state. Data flows one direction into
// the renderer; it holds no match state of its own.
type FrameView struct {
	Phase          Phase
	RoomID         string
	CountdownLabel string
	Outcome        Outcome
	Snapshot       *GameSnapshot
	Preview        *PreviewState
	Notifications  []Notification
	SelectedDef    string
	SelectedProj   string
}

// Renderer draws the match view onto a tcell screen. It always draws the
// most recently stored snapshot and never blocks waiting for a new one.
type Renderer struct {
	screen  tcell.Screen
	sprites *SpriteSet
	catalog *Catalog
	space   CoordinateSpace
	seat    Seat
}

// NewRenderer creates a renderer bound to one match view.
func NewRenderer(screen tcell.Screen, sprites *SpriteSet, catalog *Catalog, seat Seat) *Renderer {
	return &Renderer{
		screen:  screen,
		sprites: sprites,
		catalog: catalog,
		space:   SpaceForSeat(seat),
		seat:    seat,
	}
}

// DrawFrame renders one complete frame.
func (r *Renderer) DrawFrame(view FrameView) {
	r.screen.Clear()
	w, h := r.screen.Size()

	switch view.Phase {
	case PhaseConnecting:
		drawTextCentered(r.screen, w/2, h/2, styleDim, "Connecting to server...")
	case PhaseWaiting:
		r.drawWaiting(view, w, h)
	default:
		r.drawBoard(view, w, h)
	}

	r.drawNotifications(view.Notifications, w)
	r.screen.Show()
}

func (r *Renderer) drawWaiting(view FrameView, w, h int) {
	drawTextCentered(r.screen, w/2, h/2-2, styleTitle, "Waiting for an opponent...")
	drawTextCentered(r.screen, w/2, h/2, styleDim, "Room: "+view.RoomID)
	drawTextCentered(r.screen, w/2, h/2+2, styleDim, "Share the room id or scan to join:")
	DrawRoomQR(r.screen, w/2, h/2+4, view.RoomID)
}

// boardRect returns the cell-space viewport the board maps into, leaving
// rows for the HUD and notifications.
func boardRect(w, h int) (x, y, bw, bh int) {
	bw = w - 2
	bh = h - 5
	if bw < 20 {
		bw = 20
	}
	if bh < 10 {
		bh = 10
	}
	return 1, 2, bw, bh
}

// toCell maps a display-space board position into viewport cells
func toCell(x, y float64, bw, bh int) (int, int) {
	cx := int(Clamp(x, 0, BoardWidth-1) / BoardWidth * float64(bw))
	cy := int(Clamp(y, 0, BoardHeight-1) / BoardHeight * float64(bh))
	return cx, cy
}

func (r *Renderer) drawBoard(view FrameView, w, h int) {
	bx, by, bw, bh := boardRect(w, h)
	snap := view.Snapshot

	r.drawZones(bx, by, bw, bh)
	r.drawHUD(view, w)

	if snap != nil {
		for i := range snap.Players {
			r.drawCore(&snap.Players[i], bx, by, bw, bh)
		}
		for _, def := range snap.Defenses {
			r.drawDefense(snap, def, bx, by, bw, bh)
		}
		for _, proj := range snap.Projectiles {
			r.drawProjectile(proj, bx, by, bw, bh)
		}
	}

	// Placement preview only while the match is running; legality coloring
	// uses the same predicate as the dispatcher so the two never disagree.
	if view.Phase == PhaseActive && view.Preview != nil {
		r.drawPreview(*view.Preview, bx, by, bw, bh)
	}

	if view.Phase == PhaseCountdown && view.CountdownLabel != "" {
		drawTextCentered(r.screen, w/2, by+bh/2, styleCountdown, " "+view.CountdownLabel+" ")
	}
	if view.Phase == PhaseEnded {
		r.drawOutcome(view.Outcome, w, by+bh/2)
	}
}

// drawZones paints the three fixed bands and a light grid
func (r *Renderer) drawZones(bx, by, bw, bh int) {
	ownEnd := int(ZonePlayer1End / BoardWidth * float64(bw))
	neutralEnd := int(ZoneNeutralEnd / BoardWidth * float64(bw))

	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			st := styleZoneOpp
			switch {
			case x <= ownEnd:
				st = styleZoneOwn
			case x <= neutralEnd:
				st = styleZoneNeutral
			}
			ch := ' '
			if x%8 == 0 || y%4 == 0 {
				ch = '·'
			}
			r.screen.SetContent(bx+x, by+y, ch, nil, st)
		}
	}
}

func (r *Renderer) drawCore(p *Player, bx, by, bw, bh int) {
	dx, dy := r.space.ToDisplay(p.CorePosition.X, p.CorePosition.Y)
	cx, cy := toCell(dx, dy, bw, bh)

	name := SpriteCoreEnemy
	if p.ID == r.seat.UserID {
		name = SpriteCoreOwn
	}
	sp, _ := r.sprites.Get(name)
	r.screen.SetContent(bx+cx, by+cy, sp.Rune, nil, sp.Style())

	// HP bar above the core, proportional to the core HP maximum
	r.drawHPBar(bx+cx-2, by+cy-1, 5, hpFraction(p.CoreHP, CoreMaxHP))
	drawText(r.screen, bx+cx-2, by+cy+1, styleDim, fmt.Sprintf("%d", p.CoreHP))
}

func (r *Renderer) drawDefense(snap *GameSnapshot, def Defense, bx, by, bw, bh int) {
	dx, dy := r.space.ToDisplay(def.X, def.Y)
	cx, cy := toCell(dx, dy, bw, bh)

	sp, ok := r.sprites.Get(def.Type)
	if !ok {
		if def.PlayerID == r.seat.UserID {
			sp, _ = r.sprites.Get(SpriteDefenseOwn)
		} else {
			sp, _ = r.sprites.Get(SpriteDefenseFoe)
		}
	}
	st := sp.Style()
	if def.PlayerID != r.seat.UserID {
		st = st.Dim(true)
	}
	r.screen.SetContent(bx+cx, by+cy, sp.Rune, nil, st)

	if def.Type == DefTurret {
		angle := TurretAngle(snap, r.space, def)
		gx, gy := angleOffset(angle)
		r.screen.SetContent(bx+cx+gx, by+cy+gy, angleGlyph(angle), nil, st)
	}

	r.drawHPBar(bx+cx-1, by+cy-1, 3, hpFraction(def.HP, r.catalog.MaxHP(def.Type)))
}

func (r *Renderer) drawProjectile(proj Projectile, bx, by, bw, bh int) {
	dx, dy := r.space.ToDisplay(proj.X, proj.Y)
	cx, cy := toCell(dx, dy, bw, bh)
	sp, _ := r.sprites.Get(SpriteProjectile)
	r.screen.SetContent(bx+cx, by+cy, sp.Rune, nil, sp.Style())
}

func (r *Renderer) drawPreview(p PreviewState, bx, by, bw, bh int) {
	cx, cy := toCell(p.DisplayX, p.DisplayY, bw, bh)
	st := stylePreviewBad
	if IsInMyZone(p.DisplayX) {
		st = stylePreviewOK
	}
	sp, ok := r.sprites.Get(p.Type)
	ch := '□'
	if ok {
		ch = sp.Rune
	}
	r.screen.SetContent(bx+cx, by+cy, ch, nil, st)
}

func (r *Renderer) drawOutcome(o Outcome, w, y int) {
	var text string
	st := styleTitle
	switch o.Kind {
	case EndResult, EndAbandoned:
		if o.Won {
			text = "VICTORY"
			st = st.Foreground(tcell.ColorGreen)
		} else {
			text = "DEFEAT"
			st = st.Foreground(tcell.ColorRed)
		}
		if o.Kind == EndAbandoned {
			text += " (match abandoned)"
		}
	case EndError:
		text = "Match ended: " + o.Reason
		st = st.Foreground(tcell.ColorYellow)
	default:
		return
	}
	drawTextCentered(r.screen, w/2, y, st, " "+text+" ")
}

func (r *Renderer) drawHUD(view FrameView, w int) {
	snap := view.Snapshot
	if snap == nil {
		return
	}
	me := snap.PlayerByID(r.seat.UserID)
	if me == nil {
		return
	}
	hud := fmt.Sprintf(" HP %d  ⛁ %d  defense:%s  attack:%s ",
		me.CoreHP, me.Resources, view.SelectedDef, view.SelectedProj)
	drawText(r.screen, 1, 0, styleHUD, hud)
}

func (r *Renderer) drawNotifications(notes []Notification, w int) {
	_, h := r.screen.Size()
	y := h - 1
	for i := len(notes) - 1; i >= 0 && y > 0; i-- {
		n := notes[i]
		drawText(r.screen, 1, y, severityStyle(n.Severity), n.Message)
		y--
	}
}

// drawHPBar renders a proportional fill colored by threshold band
func (r *Renderer) drawHPBar(x, y, width int, frac float64) {
	fill := int(math.Round(frac * float64(width)))
	st := tcell.StyleDefault.Foreground(hpColor(frac))
	for i := 0; i < width; i++ {
		ch := '░'
		if i < fill {
			ch = '█'
		}
		r.screen.SetContent(x+i, y, ch, nil, st)
	}
}

// CoreMaxHP is the display maximum for core HP bars
const CoreMaxHP = 1000

// hpFraction returns hp/max clamped to [0,1]
func hpFraction(hp, max int) float64 {
	if max <= 0 {
		return 0
	}
	return Clamp(float64(hp)/float64(max), 0, 1)
}

// hpColor maps an HP fraction to its legibility band: healthy, warning,
// critical.
func hpColor(frac float64) tcell.Color {
	switch {
	case frac > 0.5:
		return tcell.ColorGreen
	case frac > 0.25:
		return tcell.ColorYellow
	default:
		return tcell.ColorRed
	}
}

// angleGlyph picks an 8-way arrow for a turret orientation
func angleGlyph(angle float64) rune {
	glyphs := []rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}
	sector := int(math.Round(angle/(math.Pi/4))) % 8
	if sector < 0 {
		sector += 8
	}
	return glyphs[sector]
}

// angleOffset returns the neighbor cell the turret barrel points into
func angleOffset(angle float64) (int, int) {
	dx := int(math.Round(math.Cos(angle)))
	dy := int(math.Round(math.Sin(angle)))
	return dx, dy
}

var (
	styleDim         = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle       = tcell.StyleDefault.Bold(true)
	styleHUD         = tcell.StyleDefault.Reverse(true)
	styleCountdown   = tcell.StyleDefault.Bold(true).Foreground(tcell.ColorYellow).Reverse(true)
	styleZoneOwn     = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	styleZoneNeutral = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	styleZoneOpp     = tcell.StyleDefault.Foreground(tcell.ColorDarkRed)
	stylePreviewOK   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	stylePreviewBad  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

func severityStyle(s Severity) tcell.Style {
	switch s {
	case SeveritySuccess:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case SeverityWarning:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case SeverityError:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorWhite)
	}
}

func drawText(s tcell.Screen, x, y int, st tcell.Style, text string) {
	for i, ch := range []rune(text) {
		s.SetContent(x+i, y, ch, nil, st)
	}
}

func drawTextCentered(s tcell.Screen, cx, y int, st tcell.Style, text string) {
	drawText(s, cx-len([]rune(text))/2, y, st, text)
}
