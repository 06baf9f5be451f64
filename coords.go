package main

// Board dimensions and zone boundaries in canonical (server) coordinates.
// These must match the server's validation constants exactly; a drifted
// boundary makes the client approve placements the server rejects.
const (
	BoardWidth  = 800.0
	BoardHeight = 600.0

	ZonePlayer1End = 300.0 // end of the placement-legal band (display space)
	ZoneNeutralEnd = 500.0 // end of the neutral band
)

// Zone classifies a horizontal band of the board.
type Zone int

const (
	ZoneOwn      Zone = 0
	ZoneNeutral  Zone = 1
	ZoneOpponent Zone = 2
)

// CoordinateSpace maps between canonical (server) coordinates and the
// egocentric display space. The joiner's view is mirrored on the X axis so
// that each player sees their own territory on the left. Y is never mirrored.
type CoordinateSpace struct {
	Mirrored bool
}

// SpaceForSeat returns the coordinate space for a seat. Mirroring is fixed
// for the lifetime of the match and never recomputed from snapshot data.
func SpaceForSeat(seat Seat) CoordinateSpace {
	return CoordinateSpace{Mirrored: !seat.IsCreator}
}

// ToDisplayX converts a canonical X to display space.
func (cs CoordinateSpace) ToDisplayX(serverX float64) float64 {
	if cs.Mirrored {
		return BoardWidth - serverX
	}
	return serverX
}

// ToServerX converts a display X back to canonical space. It is the exact
// inverse of ToDisplayX: ToServerX(ToDisplayX(x)) == x for all x.
func (cs CoordinateSpace) ToServerX(displayX float64) float64 {
	if cs.Mirrored {
		return BoardWidth - displayX
	}
	return displayX
}

// ToDisplay converts a canonical position to display space.
func (cs CoordinateSpace) ToDisplay(serverX, serverY float64) (float64, float64) {
	return cs.ToDisplayX(serverX), serverY
}

// IsInMyZone reports whether a display-space X falls inside the local
// player's placement band. Mirroring already puts the local territory on the
// left for both seats, so the predicate is seat-independent.
func IsInMyZone(displayX float64) bool {
	return displayX <= ZonePlayer1End
}

// ZoneAt classifies a display-space X into one of the three board bands.
func ZoneAt(displayX float64) Zone {
	switch {
	case displayX <= ZonePlayer1End:
		return ZoneOwn
	case displayX <= ZoneNeutralEnd:
		return ZoneNeutral
	default:
		return ZoneOpponent
	}
}
