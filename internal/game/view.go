package game

// GameView is the complete read-only snapshot handed to the presentation
// collaborator after every mutating operation. It shares no memory with the
// live state.
type GameView struct {
	Turn         int
	Phase        string
	ActivePlayer int
	WinnerID     int

	Players       []PlayerView
	OpenMarket    []CardView
	DeckCounts    map[string]int
	MercenaryPool int

	ActionMode   string
	SelectedCard int

	PendingAttack *PendingAttackView
	LastDice      *DiceRoll
	LastCombat    *CombatReport

	Logs []LogEntry
}

// PlayerView is one seat's externally visible state. Hands are visible: all
// trust is client-local, so nothing is hidden at this layer.
type PlayerView struct {
	ID    int
	Name  string
	Color string
	IsBot bool

	Gold          int
	DP            int
	MilitaryPower int
	Capacity      int
	Population    int

	IsVassal     bool
	MasterID     int
	AllianceWith int

	Technologies TechLevels

	ActionsRemaining int
	MarketRefreshes  int
	WhiteFlagTurns   int
	AttackedBy       []AttackMark

	Grid [GridSize]*CellView
	Hand []CardView
}

// CellView is a grid cell snapshot.
type CellView struct {
	Type     string
	HP       int
	MaxHP    int
	Power    int
	IsUnit   bool
	Garrison []Soldier
}

// CardView is a card snapshot.
type CardView struct {
	ID     string
	Name   string
	Type   string
	Cost   int
	HP     int
	Power  int
	DP     int
	Effect string
	Level  int
}

// PendingAttackView mirrors the stored pending attack.
type PendingAttackView struct {
	AttackerID int
	DefenderID int
	TargetSlot int
}

// View builds a snapshot of the full game state.
func (e *Engine) View() GameView {
	e.mu.Lock()
	defer e.mu.Unlock()

	gs := e.state
	v := GameView{
		Turn:          gs.Turn,
		Phase:         gs.Phase.String(),
		ActivePlayer:  gs.ActivePlayer().ID,
		WinnerID:      gs.WinnerID,
		DeckCounts:    gs.DeckCounts(),
		MercenaryPool: len(gs.MercenaryPool),
		ActionMode:    string(gs.ActionMode),
		SelectedCard:  gs.SelectedCard,
		LastDice:      copyDice(gs.LastDice),
		LastCombat:    copyCombat(gs.LastCombat),
		Logs:          append([]LogEntry(nil), gs.Logs...),
	}
	if gs.PendingAttack != nil {
		v.PendingAttack = &PendingAttackView{
			AttackerID: gs.PendingAttack.AttackerID,
			DefenderID: gs.PendingAttack.DefenderID,
			TargetSlot: gs.PendingAttack.TargetSlot,
		}
	}
	for _, c := range gs.OpenMarket {
		v.OpenMarket = append(v.OpenMarket, cardView(c))
	}
	for _, p := range gs.Players {
		v.Players = append(v.Players, e.playerView(p))
	}
	return v
}

func (e *Engine) playerView(p *Player) PlayerView {
	pv := PlayerView{
		ID:               p.ID,
		Name:             p.Name,
		Color:            p.Color,
		IsBot:            p.IsBot,
		Gold:             p.Gold,
		DP:               p.DP,
		MilitaryPower:    e.militaryPower(p),
		Capacity:         e.capacity(p),
		Population:       e.population(p),
		IsVassal:         p.IsVassal,
		MasterID:         p.MasterID,
		AllianceWith:     p.AllianceWith,
		Technologies:     p.Technologies,
		ActionsRemaining: p.ActionsRemaining,
		MarketRefreshes:  p.MarketRefreshes,
		WhiteFlagTurns:   p.WhiteFlagTurns,
		AttackedBy:       append([]AttackMark(nil), p.AttackedBy...),
	}
	for i, c := range p.Grid {
		if c == nil {
			continue
		}
		maxHP, known := maxCellHP[c.Type]
		if !known {
			// Units are not in the repair table; their card hp is the ceiling.
			maxHP = c.HP
		}
		pv.Grid[i] = &CellView{
			Type:     c.Type,
			HP:       c.HP,
			MaxHP:    maxHP,
			Power:    c.Power,
			IsUnit:   c.IsUnit,
			Garrison: append([]Soldier(nil), c.Garrison...),
		}
	}
	for _, c := range p.Hand {
		pv.Hand = append(pv.Hand, cardView(c))
	}
	return pv
}

func cardView(c *Card) CardView {
	return CardView{
		ID:     c.ID,
		Name:   c.Name,
		Type:   c.Type.String(),
		Cost:   c.Cost,
		HP:     c.HP,
		Power:  c.Power,
		DP:     c.DP,
		Effect: c.Effect.String(),
		Level:  c.Level,
	}
}

func copyDice(d *DiceRoll) *DiceRoll {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func copyCombat(r *CombatReport) *CombatReport {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
