package main

// Defense type names
const (
	DefWall      = "WALL"
	DefTurret    = "TURRET"
	DefTrap      = "TRAP"
	DefHealBlock = "HEAL_BLOCK"
)

// Projectile type names
const (
	ProjBasic = "BASIC"
	ProjFast  = "FAST"
	ProjHeavy = "HEAVY"
)

// DefenseTemplate describes one placeable structure type
type DefenseTemplate struct {
	Type  string `json:"type"`
	Cost  int    `json:"cost"`
	MaxHP int    `json:"maxHP"`
	Limit int    `json:"limit"` // per-player placement limit
}

// ProjectileTemplate describes one launchable projectile type
type ProjectileTemplate struct {
	Type   string  `json:"type"`
	Cost   int     `json:"cost"`
	Speed  float64 `json:"speed"`
	Damage int     `json:"damage"`
}

// DefaultDefenses is the compiled-in catalogue, used until the server sends
// its templates at connect.
var DefaultDefenses = []DefenseTemplate{
	{Type: DefWall, Cost: 50, MaxHP: 100, Limit: 10},
	{Type: DefTurret, Cost: 100, MaxHP: 80, Limit: 5},
	{Type: DefTrap, Cost: 75, MaxHP: 1, Limit: 8},
	{Type: DefHealBlock, Cost: 150, MaxHP: 60, Limit: 3},
}

// DefaultProjectiles is the compiled-in projectile catalogue
var DefaultProjectiles = []ProjectileTemplate{
	{Type: ProjBasic, Cost: 30, Speed: 300, Damage: 15},
	{Type: ProjFast, Cost: 50, Speed: 500, Damage: 10},
	{Type: ProjHeavy, Cost: 80, Speed: 180, Damage: 40},
}

// Catalog holds the structure and projectile templates the affordability
// checks run against. Server templates override the defaults wholesale.
type Catalog struct {
	defenseOrder    []string
	projectileOrder []string
	defenses        map[string]DefenseTemplate
	projectiles     map[string]ProjectileTemplate
}

// NewCatalog returns a catalog seeded with the compiled-in defaults.
func NewCatalog() *Catalog {
	c := &Catalog{
		defenses:    make(map[string]DefenseTemplate),
		projectiles: make(map[string]ProjectileTemplate),
	}
	c.apply(DefaultDefenses, DefaultProjectiles)
	return c
}

func (c *Catalog) apply(defs []DefenseTemplate, projs []ProjectileTemplate) {
	c.defenseOrder = c.defenseOrder[:0]
	c.projectileOrder = c.projectileOrder[:0]
	clear(c.defenses)
	clear(c.projectiles)
	for _, d := range defs {
		c.defenseOrder = append(c.defenseOrder, d.Type)
		c.defenses[d.Type] = d
	}
	for _, p := range projs {
		c.projectileOrder = append(c.projectileOrder, p.Type)
		c.projectiles[p.Type] = p
	}
}

// ApplyTemplates replaces the catalog with the server's templates. Empty
// sections keep the current entries.
func (c *Catalog) ApplyTemplates(t TemplatesMsg) {
	defs := t.Defenses
	projs := t.Projectiles
	if len(defs) == 0 {
		defs = c.defenseList()
	}
	if len(projs) == 0 {
		projs = c.projectileList()
	}
	c.apply(defs, projs)
}

func (c *Catalog) defenseList() []DefenseTemplate {
	out := make([]DefenseTemplate, 0, len(c.defenseOrder))
	for _, t := range c.defenseOrder {
		out = append(out, c.defenses[t])
	}
	return out
}

func (c *Catalog) projectileList() []ProjectileTemplate {
	out := make([]ProjectileTemplate, 0, len(c.projectileOrder))
	for _, t := range c.projectileOrder {
		out = append(out, c.projectiles[t])
	}
	return out
}

// Defense looks up a defense template by type name
func (c *Catalog) Defense(typ string) (DefenseTemplate, bool) {
	d, ok := c.defenses[typ]
	return d, ok
}

// Projectile looks up a projectile template by type name
func (c *Catalog) Projectile(typ string) (ProjectileTemplate, bool) {
	p, ok := c.projectiles[typ]
	return p, ok
}

// MaxHP returns the maximum HP for a defense type. Unknown types map to 100
// so HP bars stay proportional instead of dividing by zero.
func (c *Catalog) MaxHP(typ string) int {
	if d, ok := c.defenses[typ]; ok && d.MaxHP > 0 {
		return d.MaxHP
	}
	return 100
}

// DefenseTypes returns the catalog's defense type names in display order
func (c *Catalog) DefenseTypes() []string {
	return append([]string(nil), c.defenseOrder...)
}

// ProjectileTypes returns the catalog's projectile type names in display order
func (c *Catalog) ProjectileTypes() []string {
	return append([]string(nil), c.projectileOrder...)
}
