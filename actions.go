package main

// sender is the outbound side of the connection channel. Narrowed to an
// interface so dispatch logic is testable without a live socket.
type sender interface {
	SendJSON(msg interface{})
}

// Dispatcher validates user-initiated intents against local zone and
// affordability rules before forwarding them to the channel. Local checks
// avoid needless round trips and give instant negative feedback; the server
// remains the sole authority on affordability, limits and collision.
type Dispatcher struct {
	seat    Seat
	space   CoordinateSpace
	catalog *Catalog
	roomID  string
	out     sender
}

// NewDispatcher creates a dispatcher for one match view.
func NewDispatcher(seat Seat, catalog *Catalog, roomID string, out sender) *Dispatcher {
	return &Dispatcher{
		seat:    seat,
		space:   SpaceForSeat(seat),
		catalog: catalog,
		roomID:  roomID,
		out:     out,
	}
}

// CanAffordDefense reports whether the local player's resources cover the
// defense type's cost.
func (d *Dispatcher) CanAffordDefense(snap *GameSnapshot, typ string) bool {
	tpl, ok := d.catalog.Defense(typ)
	if !ok {
		return false
	}
	p := d.localPlayer(snap)
	return p != nil && p.Resources >= tpl.Cost
}

// CanAffordProjectile reports whether the local player's resources cover the
// projectile type's cost.
func (d *Dispatcher) CanAffordProjectile(snap *GameSnapshot, typ string) bool {
	tpl, ok := d.catalog.Projectile(typ)
	if !ok {
		return false
	}
	p := d.localPlayer(snap)
	return p != nil && p.Resources >= tpl.Cost
}

// CanPlaceMore reports whether the local player is below the per-type
// placement limit.
func (d *Dispatcher) CanPlaceMore(snap *GameSnapshot, typ string) bool {
	tpl, ok := d.catalog.Defense(typ)
	if !ok {
		return false
	}
	if snap == nil {
		return true
	}
	count := 0
	for _, def := range snap.Defenses {
		if def.PlayerID == d.seat.UserID && def.Type == typ {
			count++
		}
	}
	return count < tpl.Limit
}

// CanSelectDefense is the UI affordance gate: a defense type is selectable
// only while it is affordable and under its placement limit.
func (d *Dispatcher) CanSelectDefense(snap *GameSnapshot, typ string) bool {
	return d.CanAffordDefense(snap, typ) && d.CanPlaceMore(snap, typ)
}

// PlaceDefense emits a placement intent for a display-space click position.
// A click outside the local zone is silently dropped, not sent. The position
// is converted to canonical coordinates before transmission. Returns whether
// an intent was emitted.
func (d *Dispatcher) PlaceDefense(displayX, displayY float64, typ string) bool {
	if !IsInMyZone(displayX) {
		return false
	}
	d.out.SendJSON(Envelope{T: MsgPlaceDefense, Data: PlaceDefenseMsg{
		RoomID:      d.roomID,
		DefenseType: typ,
		X:           d.space.ToServerX(displayX),
		Y:           displayY,
		PlayerID:    d.seat.UserID,
	}})
	return true
}

// TryPlaceDefense is the affordance-gated entry used by the input layer: it
// refuses when the selected type is unaffordable or at its limit, then
// applies the zone check of PlaceDefense.
func (d *Dispatcher) TryPlaceDefense(snap *GameSnapshot, displayX, displayY float64, typ string) bool {
	if !d.CanSelectDefense(snap, typ) {
		return false
	}
	return d.PlaceDefense(displayX, displayY, typ)
}

// LaunchAttack emits an attack intent. The defender is resolved as the other
// player id in the current snapshot; no target coordinates are sent.
func (d *Dispatcher) LaunchAttack(snap *GameSnapshot, typ string) bool {
	if snap == nil {
		return false
	}
	if _, ok := d.catalog.Projectile(typ); !ok {
		return false
	}
	opp := snap.OpponentOf(d.seat.UserID)
	if opp == nil {
		return false
	}
	d.out.SendJSON(Envelope{T: MsgLaunchProjectile, Data: LaunchProjectileMsg{
		RoomID:         d.roomID,
		ProjectileType: typ,
		PlayerID:       d.seat.UserID,
		TargetPlayerID: opp.ID,
	}})
	return true
}

func (d *Dispatcher) localPlayer(snap *GameSnapshot) *Player {
	if snap == nil {
		return nil
	}
	return snap.PlayerByID(d.seat.UserID)
}
