package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
)

type actionKind int

const (
	actionQuit actionKind = iota
	actionLogout
	actionMatch
)

// dashboardAction is what the dashboard hands back to App.Run
type dashboardAction struct {
	kind      actionKind
	roomID    string
	isCreator bool
}

// field is a single-line text input
type field struct {
	label  string
	value  string
	masked bool
}

func (f *field) display() string {
	if f.masked {
		return strings.Repeat("*", len(f.value))
	}
	return f.value
}

func (f *field) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(f.value) > 0 {
			r := []rune(f.value)
			f.value = string(r[:len(r)-1])
		}
	case tcell.KeyRune:
		if len(f.value) < 64 {
			f.value += string(ev.Rune())
		}
	}
}

// runLogin shows the login/signup form. Returns (false, nil) when the user
// quits instead of authenticating.
func (a *App) runLogin() (bool, error) {
	signup := false
	status := ""
	fields := []*field{
		{label: "Username"},
		{label: "Email"},
		{label: "Password", masked: true},
	}
	active := 1 // username only participates in signup mode

	for {
		a.drawLogin(signup, fields, active, status)

		ev, ok := <-a.input
		if !ok {
			return false, nil
		}
		key, isKey := ev.(*tcell.EventKey)
		if !isKey {
			if _, isResize := ev.(*tcell.EventResize); isResize {
				a.screen.Sync()
			}
			continue
		}

		switch key.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false, nil
		case tcell.KeyTab:
			active = a.nextField(signup, active)
		case tcell.KeyCtrlS:
			signup = !signup
			if !signup && active == 0 {
				active = 1
			}
			status = ""
		case tcell.KeyEnter:
			var res *AuthResult
			var err error
			if signup {
				res, err = a.api.Signup(fields[0].value, fields[1].value, fields[2].value)
			} else {
				res, err = a.api.Login(fields[1].value, fields[2].value)
			}
			if err != nil {
				status = err.Error()
				continue
			}
			s, err := SessionFromToken(res.Token)
			if err != nil {
				// Token claims are opaque to us if the backend changes its
				// shape; fall back to the response body.
				s = &Session{UserID: res.UserID, Username: res.Username, Token: res.Token}
			}
			if s.Username == "" {
				s.Username = res.Username
			}
			a.session = s
			a.api.SetToken(s.Token)
			if err := s.Save(a.db); err != nil {
				logger.Warnw("save session failed", "err", err)
			}
			return true, nil
		default:
			fields[active].handleKey(key)
		}
	}
}

func (a *App) nextField(signup bool, active int) int {
	first := 1
	if signup {
		first = 0
	}
	active++
	if active > 2 {
		active = first
	}
	if !signup && active == 0 {
		active = 1
	}
	return active
}

func (a *App) drawLogin(signup bool, fields []*field, active int, status string) {
	a.screen.Clear()
	w, _ := a.screen.Size()
	cx := w / 2

	title := "CORE DEFENDER — Log in"
	if signup {
		title = "CORE DEFENDER — Sign up"
	}
	drawTextCentered(a.screen, cx, 3, styleTitle, title)
	drawTextCentered(a.screen, cx, 4, styleDim, "Tab: next field   Ctrl+S: toggle signup   Enter: submit   Esc: quit")

	y := 7
	for i, f := range fields {
		if i == 0 && !signup {
			continue
		}
		st := styleDim
		if i == active {
			st = tcell.StyleDefault.Bold(true)
		}
		drawText(a.screen, cx-20, y, st, fmt.Sprintf("%-9s %s_", f.label+":", f.display()))
		y += 2
	}
	if status != "" {
		drawTextCentered(a.screen, cx, y+1, severityStyle(SeverityError), status)
	}
	a.screen.Show()
}

// runDashboard shows available rooms and routes the user into a match,
// the leaderboard, or the profile view.
func (a *App) runDashboard() dashboardAction {
	games, fetchErr := a.api.AvailableGames()
	selected := 0
	status := ""
	if fetchErr != nil {
		status = fetchErr.Error()
	}

	for {
		a.drawDashboard(games, selected, status)

		ev, ok := <-a.input
		if !ok {
			return dashboardAction{kind: actionQuit}
		}
		key, isKey := ev.(*tcell.EventKey)
		if !isKey {
			if _, isResize := ev.(*tcell.EventResize); isResize {
				a.screen.Sync()
			}
			continue
		}

		switch key.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return dashboardAction{kind: actionQuit}
		case tcell.KeyUp:
			if selected > 0 {
				selected--
			}
		case tcell.KeyDown:
			if selected < len(games)-1 {
				selected++
			}
		case tcell.KeyEnter:
			if selected < len(games) {
				return dashboardAction{kind: actionMatch, roomID: games[selected].RoomID}
			}
		case tcell.KeyRune:
			switch key.Rune() {
			case 'q':
				return dashboardAction{kind: actionQuit}
			case 'o':
				return dashboardAction{kind: actionLogout}
			case 'r':
				games, fetchErr = a.api.AvailableGames()
				status = ""
				if fetchErr != nil {
					status = fetchErr.Error()
				}
				selected = 0
			case 'c':
				info, err := a.api.CreateGame(a.session.UserID)
				if err != nil {
					status = err.Error()
					continue
				}
				return dashboardAction{kind: actionMatch, roomID: info.RoomID, isCreator: true}
			case 'j':
				roomID, ok := a.promptRoomID()
				if !ok {
					continue
				}
				if _, err := a.api.GameByRoom(roomID); err != nil {
					status = err.Error()
					continue
				}
				return dashboardAction{kind: actionMatch, roomID: roomID}
			case 'l':
				a.runLeaderboard()
			case 'p':
				a.runProfile()
			}
		}
	}
}

func (a *App) drawDashboard(games []GameInfo, selected int, status string) {
	a.screen.Clear()
	w, _ := a.screen.Size()
	cx := w / 2

	drawTextCentered(a.screen, cx, 1, styleTitle, "CORE DEFENDER")
	drawTextCentered(a.screen, cx, 2, styleDim,
		fmt.Sprintf("Signed in as %s", a.session.Username))
	drawTextCentered(a.screen, cx, 4, styleDim,
		"↑/↓+Enter: join   c: create   j: join by id   r: refresh   l: leaderboard   p: profile   o: logout   q: quit")

	drawText(a.screen, 4, 6, styleTitle, "Open rooms")
	if len(games) == 0 {
		drawText(a.screen, 4, 8, styleDim, "No open rooms — create one with 'c'.")
	}
	for i, g := range games {
		st := styleDim
		prefix := "  "
		if i == selected {
			st = tcell.StyleDefault.Bold(true)
			prefix = "> "
		}
		drawText(a.screen, 4, 8+i, st, fmt.Sprintf("%s%-24s waiting", prefix, g.RoomID))
	}
	if status != "" {
		_, h := a.screen.Size()
		drawText(a.screen, 4, h-2, severityStyle(SeverityError), status)
	}
	a.screen.Show()
}

// promptRoomID reads a room id on a modal line. Returns ok=false on escape.
func (a *App) promptRoomID() (string, bool) {
	f := &field{label: "Room id"}
	for {
		_, h := a.screen.Size()
		drawText(a.screen, 4, h-3, tcell.StyleDefault.Bold(true),
			fmt.Sprintf("Join room: %s_   (Enter to join, Esc to cancel)      ", f.display()))
		a.screen.Show()

		ev, ok := <-a.input
		if !ok {
			return "", false
		}
		key, isKey := ev.(*tcell.EventKey)
		if !isKey {
			continue
		}
		switch key.Key() {
		case tcell.KeyEscape:
			return "", false
		case tcell.KeyEnter:
			id := strings.TrimSpace(f.value)
			if id == "" {
				return "", false
			}
			return id, true
		default:
			f.handleKey(key)
		}
	}
}

// runLeaderboard shows the global ranking, falling back to the local cache
// when the backend is unreachable.
func (a *App) runLeaderboard() {
	entries, err := a.api.Leaderboard()
	cached := false
	if err != nil {
		logger.Warnw("leaderboard fetch failed, using cache", "err", err)
		entries, _ = a.db.Leaderboard()
		cached = true
	} else if err := a.db.SaveLeaderboard(entries); err != nil {
		logger.Warnw("leaderboard cache write failed", "err", err)
	}

	a.screen.Clear()
	w, _ := a.screen.Size()
	title := "Leaderboard"
	if cached {
		title += " (cached)"
	}
	drawTextCentered(a.screen, w/2, 1, styleTitle, title)
	drawText(a.screen, 4, 3, styleDim, fmt.Sprintf("%-5s %-20s %6s %6s %6s", "#", "Player", "Wins", "Loss", "Games"))
	for i, e := range entries {
		drawText(a.screen, 4, 4+i, tcell.StyleDefault,
			fmt.Sprintf("%-5d %-20s %6d %6d %6d", e.Rank, e.Username, e.Wins, e.Losses, e.Games))
	}
	drawTextCentered(a.screen, w/2, 5+len(entries)+1, styleDim, "Esc: back")
	a.screen.Show()
	a.waitForEscape()
}

// runProfile shows the local player's stats and recent matches.
func (a *App) runProfile() {
	a.screen.Clear()
	w, _ := a.screen.Size()
	drawTextCentered(a.screen, w/2, 1, styleTitle, "Profile — "+a.session.Username)

	y := 3
	if stats, err := a.api.Profile(a.session.UserID); err != nil {
		drawText(a.screen, 4, y, severityStyle(SeverityError), err.Error())
		y += 2
	} else {
		drawText(a.screen, 4, y, tcell.StyleDefault,
			fmt.Sprintf("Rank %d   %d wins / %d losses over %d games", stats.Rank, stats.Wins, stats.Losses, stats.Games))
		y += 2
	}

	drawText(a.screen, 4, y, styleTitle, "Recent matches")
	y++
	if history, err := a.db.RecentMatches(10); err == nil {
		for _, m := range history {
			drawText(a.screen, 4, y, styleDim,
				fmt.Sprintf("%s  %-16s %s", m.EndedAt.Format(time.DateTime), m.RoomID, m.Outcome))
			y++
		}
	}
	_, h := a.screen.Size()
	drawText(a.screen, 4, h-2, styleDim, "Esc: back")
	a.screen.Show()
	a.waitForEscape()
}

func (a *App) waitForEscape() {
	for {
		ev, ok := <-a.input
		if !ok {
			return
		}
		if key, isKey := ev.(*tcell.EventKey); isKey {
			if key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyEnter {
				return
			}
		}
	}
}
