package main

import (
	"github.com/gdamore/tcell/v2"
	qrcode "github.com/skip2/go-qrcode"
)

// DrawRoomQR renders the room id as a QR code centered on cx, packing two
// bitmap rows per terminal row with half-block glyphs. Errors only skip the
// code; the room id is always shown as text next to it.
func DrawRoomQR(s tcell.Screen, cx, top int, roomID string) {
	if roomID == "" {
		return
	}
	q, err := qrcode.New(roomID, qrcode.Medium)
	if err != nil {
		logger.Warnw("qr encode failed", "err", err)
		return
	}
	bitmap := q.Bitmap()
	size := len(bitmap)
	left := cx - size/2

	st := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	for y := 0; y < size; y += 2 {
		for x := 0; x < size; x++ {
			upper := bitmap[y][x]
			lower := y+1 < size && bitmap[y+1][x]
			var ch rune
			switch {
			case upper && lower:
				ch = '█'
			case upper:
				ch = '▀'
			case lower:
				ch = '▄'
			default:
				ch = ' '
			}
			s.SetContent(left+x, top+y/2, ch, nil, st)
		}
	}
}
