package game

// Grid and balance constants. Values match the original card catalog; changing
// them shifts game balance, so they are centralized here.
const (
	GridSize        = 9
	CouncilSlot     = 0
	GoldCapPerPlayer = 65

	// Fraction of the aggregate gold cap at which passive income stops for
	// everyone, and fraction of the per-player cap at which income halves.
	globalCapThreshold  = 0.75
	wealthThrottleShare = 0.50

	ActionsPerTurn     = 2
	MarketSlots        = 4
	MarketRefreshLimit = 2
	PeaceWindowTurns   = 3

	CouncilCivilianCap  = 3
	BarracksProduceCap  = 15
	BarracksEvacuateCap = 20

	WallDefenseBonus = 5
)

// Cell type names double as display names; they are the original game's data
// vocabulary and are kept verbatim for client parity.
const (
	CellCouncil  = "Meclis"
	CellFarm     = "Çiftlik"
	CellBarracks = "Kışla"
	CellWall     = "Duvar"
	CellMarket   = "Pazar"

	UnitInfantry = "Piyade"
	UnitArcher   = "Okçu"
	UnitCavalry  = "Süvari"

	CivilianName = "Sivil"
)

// maxCellHP is the repair ceiling per building type. Starting buildings are
// sturdier than their purchasable card counterparts.
var maxCellHP = map[string]int{
	CellCouncil:  10,
	CellFarm:     5,
	CellBarracks: 6,
	CellWall:     4,
	CellMarket:   3,
}

// Technology multipliers indexed by level 0-4.
var (
	militaryMultipliers = []float64{1, 1.2, 1.5, 2, 2.5}
	defenseMultipliers  = []float64{1, 1.2, 1.5, 2, 2.5}
	commerceMultipliers = []float64{1, 1.5, 2, 2.5, 3}
	foodMultipliers     = []float64{1, 1.5, 3, 4.5, 6}
)

// TechType identifies a technology track.
type TechType string

const (
	TechFood     TechType = "food"
	TechMilitary TechType = "military"
	TechDefense  TechType = "defense"
	TechCommerce TechType = "commerce"
	TechJoker    TechType = "joker" // resolved to a concrete track at play time
)

// TechLevels holds a player's four technology tracks, each 0-4.
type TechLevels struct {
	Food     int
	Military int
	Defense  int
	Commerce int
}

// Level returns the level of the given track.
func (t TechLevels) Level(tt TechType) int {
	switch tt {
	case TechFood:
		return t.Food
	case TechMilitary:
		return t.Military
	case TechDefense:
		return t.Defense
	case TechCommerce:
		return t.Commerce
	default:
		return 0
	}
}

// SetLevel sets the level of the given track.
func (t *TechLevels) SetLevel(tt TechType, level int) {
	switch tt {
	case TechFood:
		t.Food = level
	case TechMilitary:
		t.Military = level
	case TechDefense:
		t.Defense = level
	case TechCommerce:
		t.Commerce = level
	}
}

// Soldier is a garrisoned sub-unit: a soldier inside a barracks or unit cell,
// or a civilian inside the council.
type Soldier struct {
	Name  string
	Power int
	Cost  int
}

// Cell is one occupied slot of a kingdom grid: a building or a deployed unit.
// Units cannot be demolished and count against population capacity.
type Cell struct {
	Type     string
	HP       int
	Power    int
	IsUnit   bool
	Garrison []Soldier
}

// GarrisonPower sums the power of all garrisoned soldiers.
func (c *Cell) GarrisonPower() int {
	total := 0
	for _, s := range c.Garrison {
		total += s.Power
	}
	return total
}

// AttackMark records an incoming attack for notification display.
type AttackMark struct {
	Text          string
	AttackerColor string
	DefenderColor string
}

// Player is one seat's full kingdom state. Players are created at game start
// and never removed; a defeated player is demoted to vassal.
type Player struct {
	ID    int
	Name  string
	Color string
	IsBot bool

	Gold            int
	TotalGoldEarned int // monotonic; feeds the global cap check
	DP              int

	IsVassal     bool
	MasterID     int // 0 = independent
	AllianceWith int // 0 = none; mutual by invariant

	Technologies TechLevels

	// Per-turn transient state.
	ActionsRemaining int
	MarketRefreshes  int
	MilitaryBoost    int // one-shot, consumed by the next attack
	WhiteFlagTurns   int
	AttackedBy       []AttackMark

	Grid [GridSize]*Cell
	Hand []*Card
}

// Council returns the player's council cell, or nil if destroyed.
func (p *Player) Council() *Cell {
	c := p.Grid[CouncilSlot]
	if c != nil && c.Type == CellCouncil {
		return c
	}
	return nil
}

// HasCell reports whether any grid cell has the given type name.
func (p *Player) HasCell(typeName string) bool {
	for _, c := range p.Grid {
		if c != nil && c.Type == typeName {
			return true
		}
	}
	return false
}

// CountCells counts grid cells of the given type name.
func (p *Player) CountCells(typeName string) int {
	n := 0
	for _, c := range p.Grid {
		if c != nil && c.Type == typeName {
			n++
		}
	}
	return n
}

// CountUnits counts deployed unit cells.
func (p *Player) CountUnits() int {
	n := 0
	for _, c := range p.Grid {
		if c != nil && c.IsUnit {
			n++
		}
	}
	return n
}

// TotalSoldiers counts deployed units plus every garrisoned soldier. Council
// civilians count too: they are population, and the original used the same
// aggregate for the assassination gate.
func (p *Player) TotalSoldiers() int {
	n := 0
	for _, c := range p.Grid {
		if c == nil {
			continue
		}
		if c.IsUnit {
			n++
		}
		n += len(c.Garrison)
	}
	return n
}

// Phase is the session lifecycle state.
type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlaying
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "HAZIRLIK"
	case PhasePlaying:
		return "OYUN"
	case PhaseEnded:
		return "SONUÇ"
	default:
		return "UNKNOWN"
	}
}

// ActionMode is the UI-facing pending action selector.
type ActionMode string

const (
	ModeNone     ActionMode = ""
	ModeAttack   ActionMode = "attack"
	ModeDemolish ActionMode = "demolish"
)

// PendingAttack is the ephemeral record between attack initiation and the dice
// roll. AttackerMilitary is the snapshot taken at initiation time; the damage
// formula uses it, not a re-read.
type PendingAttack struct {
	AttackerID       int
	DefenderID       int
	TargetSlot       int
	AttackerMilitary int
}

// DiceRoll holds one attack/defense die pair.
type DiceRoll struct {
	Attack  int
	Defense int
}

// LogEntry is one line of the game-visible event history, stamped with the
// turn it happened on.
type LogEntry struct {
	Turn    int
	Message string
}

// GameState is the single mutable aggregate holding the entire session. It is
// owned by the Engine and only ever mutated under the engine's lock.
type GameState struct {
	Turn              int
	Phase             Phase
	ActivePlayerIndex int

	Players []*Player

	Deck          []*Card
	OpenMarket    []*Card
	MercenaryPool []*Card

	ActionMode   ActionMode
	SelectedCard int // index into the active player's hand, -1 = none

	PendingAttack *PendingAttack
	LastDice      *DiceRoll
	LastCombat    *CombatReport

	Logs     []LogEntry
	WinnerID int // 0 until the game ends
}

// ActivePlayer returns the player whose turn it is.
func (gs *GameState) ActivePlayer() *Player {
	return gs.Players[gs.ActivePlayerIndex]
}

// PlayerByID returns the player with the given id, or nil.
func (gs *GameState) PlayerByID(id int) *Player {
	for _, p := range gs.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Vassals returns the players whose master is the given player.
func (gs *GameState) Vassals(masterID int) []*Player {
	var out []*Player
	for _, p := range gs.Players {
		if p.MasterID == masterID {
			out = append(out, p)
		}
	}
	return out
}

// TotalGoldEarned sums every player's monotonic earnings counter.
func (gs *GameState) TotalGoldEarned() int {
	total := 0
	for _, p := range gs.Players {
		total += p.TotalGoldEarned
	}
	return total
}
