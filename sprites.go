package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Sprite is a drawable cell: a glyph plus its style.
type Sprite struct {
	Rune rune
	FG   tcell.Color
	BG   tcell.Color
}

// Style converts the sprite colors to a tcell style
func (s Sprite) Style() tcell.Style {
	st := tcell.StyleDefault.Foreground(s.FG)
	if s.BG != tcell.ColorDefault {
		st = st.Background(s.BG)
	}
	return st
}

// spriteEntry is the on-disk form of one sprite
type spriteEntry struct {
	Ch string `json:"ch"`
	FG string `json:"fg"`
	BG string `json:"bg,omitempty"`
}

// SpriteSet maps logical sprite names to drawable cells. A failed load
// degrades to the compiled-in flat-color set; rendering never blocks on
// missing assets.
type SpriteSet struct {
	sprites  map[string]Sprite
	Fallback bool
}

// Logical sprite names
const (
	SpriteCoreOwn    = "core_own"
	SpriteCoreEnemy  = "core_enemy"
	SpriteProjectile = "projectile"
	SpriteDefenseOwn = "defense_own"
	SpriteDefenseFoe = "defense_enemy"
)

func builtinSprites() map[string]Sprite {
	return map[string]Sprite{
		SpriteCoreOwn:    {Rune: '◆', FG: tcell.ColorBlue},
		SpriteCoreEnemy:  {Rune: '◆', FG: tcell.ColorRed},
		SpriteProjectile: {Rune: '●', FG: tcell.ColorYellow},
		SpriteDefenseOwn: {Rune: '■', FG: tcell.ColorGreen},
		SpriteDefenseFoe: {Rune: '■', FG: tcell.ColorOrange},
		DefWall:          {Rune: '█', FG: tcell.ColorGray},
		DefTurret:        {Rune: '╬', FG: tcell.ColorTeal},
		DefTrap:          {Rune: '▲', FG: tcell.ColorPurple},
		DefHealBlock:     {Rune: '✚', FG: tcell.ColorGreen},
	}
}

// LoadSprites reads a sprite manifest from disk. On any failure it logs a
// warning and returns the builtin fallback set.
func LoadSprites(path string) *SpriteSet {
	fallback := &SpriteSet{sprites: builtinSprites(), Fallback: true}
	if path == "" {
		return fallback
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnw("sprite manifest unavailable, using fallback rendering", "path", path, "err", err)
		return fallback
	}
	var entries map[string]spriteEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warnw("sprite manifest invalid, using fallback rendering", "path", path, "err", err)
		return fallback
	}

	// Start from the builtins so a partial manifest still covers every name.
	set := builtinSprites()
	for name, e := range entries {
		sp := Sprite{Rune: '?', FG: tcell.ColorWhite}
		if r := []rune(e.Ch); len(r) > 0 {
			sp.Rune = r[0]
		}
		if c, ok := parseHexColor(e.FG); ok {
			sp.FG = c
		}
		if c, ok := parseHexColor(e.BG); ok {
			sp.BG = c
		}
		set[name] = sp
	}
	return &SpriteSet{sprites: set}
}

// Get returns the sprite for a logical name
func (s *SpriteSet) Get(name string) (Sprite, bool) {
	sp, ok := s.sprites[name]
	return sp, ok
}

// parseHexColor parses "#rrggbb" into a tcell color
func parseHexColor(s string) (tcell.Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return tcell.ColorDefault, false
	}
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return tcell.ColorDefault, false
	}
	return tcell.NewHexColor(int32(v)), true
}
