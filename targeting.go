package main

import "math"

// TurretRange is the maximum distance, in display units, at which a turret
// visually tracks a target.
const TurretRange = 250.0

// TurretAngle derives the display-space orientation for one turret. Among
// all defenses it prefers the nearest opposing turret within range, falls
// back to the opposing core within range, and otherwise points at the
// opponent's side of the board.
//
// This is purely cosmetic (combat is decided server-side) but it is
// recomputed every frame from the current snapshot because defenses can
// appear or be destroyed between snapshots. No state is cached.
func TurretAngle(snap *GameSnapshot, space CoordinateSpace, turret Defense) float64 {
	tx, ty := space.ToDisplay(turret.X, turret.Y)

	// Default orientation: toward the opponent's territory. In display space
	// the turret owner's own zone is on the left for the local seat, so local
	// turrets face right and opposing turrets face left.
	defaultAngle := 0.0
	if !IsInMyZone(tx) {
		defaultAngle = math.Pi
	}

	bestDist := math.Inf(1)
	bestAngle := defaultAngle
	found := false

	for _, def := range snap.Defenses {
		if def.PlayerID == turret.PlayerID || def.Type != DefTurret {
			continue
		}
		dx, dy := space.ToDisplay(def.X, def.Y)
		dist := Distance(tx, ty, dx, dy)
		if dist <= TurretRange && dist < bestDist {
			bestDist = dist
			bestAngle = math.Atan2(dy-ty, dx-tx)
			found = true
		}
	}
	if found {
		return bestAngle
	}

	for _, p := range snap.Players {
		if p.ID == turret.PlayerID {
			continue
		}
		cx, cy := space.ToDisplay(p.CorePosition.X, p.CorePosition.Y)
		dist := Distance(tx, ty, cx, cy)
		if dist <= TurretRange && dist < bestDist {
			bestDist = dist
			bestAngle = math.Atan2(cy-ty, cx-tx)
			found = true
		}
	}
	if found {
		return bestAngle
	}
	return defaultAngle
}
