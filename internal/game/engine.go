package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Seat presentation defaults, in seat order.
var (
	playerNames  = []string{"Kızıl Krallık", "Mavi Krallık", "Yeşil Krallık", "Altın Krallık"}
	playerColors = []string{"#dc2626", "#2563eb", "#059669", "#f59e0b"}
)

// Config controls session setup.
type Config struct {
	PlayerCount  int           // 2-4 seats
	BotCount     int           // trailing seats run as bots
	AutoEndDelay time.Duration // 0 disables the auto-end timer
	Seed         int64         // 0 = time-based
}

// ActionResult is the structured outcome of every public mutating operation.
// Rule violations are reported here, never as Go errors; a failed operation
// has applied none of its effects.
type ActionResult struct {
	OK             bool
	Msg            string
	WaitingForDice bool
	NeedsTarget    bool
	NeedsConfirm   bool
}

func ok() ActionResult { return ActionResult{OK: true} }
func fail(format string, args ...any) ActionResult {
	return ActionResult{OK: false, Msg: fmt.Sprintf(format, args...)}
}

// Engine owns the game aggregate. Every public operation locks, runs to
// completion and unlocks; there is no partial locking of the state.
type Engine struct {
	mu     sync.Mutex
	logger *zap.Logger

	state *GameState
	rng   *rand.Rand
	dice  Dice

	// One-shot pre-rolled dice, consumed by the next RollDiceForAttack.
	nextDice *DiceRoll

	// Auto-end scheduling. The generation counter invalidates stale timers:
	// any action bumps it, so a timer that fires against old state no-ops.
	autoEndDelay time.Duration
	autoEndTimer *time.Timer
	autoEndGen   uint64

	// Re-entrancy guard for turn transitions.
	transitionInProgress bool

	// Bumped every time a new player is seated. A turn-ending call carrying a
	// stale generation arrives from a seat that was already forced past.
	seatGen uint64
}

// NewEngine creates a session with the given seat layout. The board is not
// initialized until Start is called.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PlayerCount < 2 {
		cfg.PlayerCount = 2
	}
	if cfg.PlayerCount > len(playerNames) {
		cfg.PlayerCount = len(playerNames)
	}
	if cfg.BotCount > cfg.PlayerCount {
		cfg.BotCount = cfg.PlayerCount
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	gs := &GameState{
		Turn:         1,
		Phase:        PhaseSetup,
		Players:      make([]*Player, 0, cfg.PlayerCount),
		SelectedCard: -1,
	}
	for i := 0; i < cfg.PlayerCount; i++ {
		p := newPlayer(i+1, playerNames[i], playerColors[i])
		p.IsBot = i >= cfg.PlayerCount-cfg.BotCount
		gs.Players = append(gs.Players, p)
	}
	gs.Deck = BuildDeck(cfg.PlayerCount, rng)

	e := &Engine{
		logger:       logger,
		state:        gs,
		rng:          rng,
		dice:         d6{rng: rng},
		autoEndDelay: cfg.AutoEndDelay,
	}
	e.refillMarket()
	e.gameLog("Oyun Başladı!")

	logger.Info("session created",
		zap.Int("players", cfg.PlayerCount),
		zap.Int("bots", cfg.BotCount),
		zap.Int64("seed", seed),
	)
	return e
}

func newPlayer(id int, name, color string) *Player {
	return &Player{
		ID:               id,
		Name:             name,
		Color:            color,
		Gold:             8,
		TotalGoldEarned:  8,
		DP:               1,
		ActionsRemaining: ActionsPerTurn,
	}
}

// Start places each kingdom's starting buildings and opens play.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseSetup {
		return
	}
	for _, p := range e.state.Players {
		p.Grid[CouncilSlot] = &Cell{
			Type: CellCouncil, HP: 10, Power: 5,
			Garrison: []Soldier{{Name: CivilianName}, {Name: CivilianName}, {Name: CivilianName}},
		}
		p.Grid[1] = &Cell{Type: CellFarm, HP: 5, Power: 1}
		p.Grid[3] = &Cell{Type: CellBarracks, HP: 6, Power: 2, Garrison: []Soldier{}}
	}
	e.state.Phase = PhasePlaying
	e.gameLog("Krallıklar kuruldu.")
}

// gameLog prepends a turn-stamped entry to the game-visible event history.
func (e *Engine) gameLog(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.state.Logs = append([]LogEntry{{Turn: e.state.Turn, Message: msg}}, e.state.Logs...)
	e.logger.Debug("game event", zap.Int("turn", e.state.Turn), zap.String("msg", msg))
}

// SetActionMode arms the demolish or attack mode. Attack mode requires at
// least one military unit.
func (e *Engine) SetActionMode(mode ActionMode) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if mode == ModeAttack {
		attacker := e.state.ActivePlayer()
		if e.militaryPower(attacker) == 0 {
			e.gameLog("Saldırı için en az bir asker birimine ihtiyacın var!")
			return fail("Saldırı için en az bir asker birimine ihtiyacın var!")
		}
	}

	e.state.ActionMode = mode
	switch mode {
	case ModeDemolish:
		e.gameLog("Yıkma modu aktif - Yıkılacak binayı seç")
	case ModeAttack:
		e.gameLog("Saldırı modu aktif - Hedef binayı seç")
	}
	return ok()
}

// ClearActionMode resets the action mode. Clearing an already-clear mode is a
// no-op.
func (e *Engine) ClearActionMode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.ActionMode = ModeNone
}

// SelectHandCard toggles selection of a hand card by index.
func (e *Engine) SelectHandCard(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.SelectedCard == index {
		e.state.SelectedCard = -1
	} else {
		e.state.SelectedCard = index
	}
}

// BuyCard purchases the given open-market slot into the active player's hand.
func (e *Engine) BuyCard(marketSlot int) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	player := e.state.ActivePlayer()
	if player.ActionsRemaining < 1 {
		return fail("Aksiyon kalmadı!")
	}
	if marketSlot < 0 || marketSlot >= len(e.state.OpenMarket) {
		return fail("Geçersiz kart.")
	}
	card := e.state.OpenMarket[marketSlot]
	if player.Gold < card.Cost {
		return fail("Yetersiz Altın!")
	}

	player.Gold -= card.Cost
	player.ActionsRemaining--
	player.Hand = append(player.Hand, card)
	e.state.OpenMarket = append(e.state.OpenMarket[:marketSlot], e.state.OpenMarket[marketSlot+1:]...)
	e.refillMarket()

	e.gameLog("%s, %s aldı.", player.Name, card.Name)
	e.checkAutoEndTurn()
	return ok()
}

// BuildOnSlot plays the selected hand card onto the given grid slot. Diplomacy
// cards are routed to the diplomacy resolver (no slot needed); technology
// cards must be played through PlayTechnologyCard.
func (e *Engine) BuildOnSlot(slot int) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	player := e.state.ActivePlayer()
	if e.state.SelectedCard < 0 || e.state.SelectedCard >= len(player.Hand) {
		return fail("Önce bir kart seçin.")
	}
	if player.ActionsRemaining < 1 {
		return fail("Aksiyon kalmadı!")
	}
	if slot < 0 || slot >= GridSize {
		return fail("Geçersiz alan.")
	}

	card := player.Hand[e.state.SelectedCard]

	switch card.Type {
	case CardDiplomacy:
		handIndex := e.state.SelectedCard
		e.state.SelectedCard = -1
		return e.playDiplomacyCardLocked(handIndex, 0)
	case CardTechnology:
		return fail("Teknoloji kartları araştırma ile oynanır.")
	}

	if player.Grid[slot] != nil {
		return fail("Alan dolu!")
	}

	hp := card.HP
	if hp == 0 {
		hp = 3
	}
	player.Grid[slot] = &Cell{
		Type:   card.Name,
		HP:     hp,
		Power:  card.Power,
		IsUnit: card.Type == CardMilitary || card.Type == CardMercenary,
	}
	player.ActionsRemaining--
	player.Hand = append(player.Hand[:e.state.SelectedCard], player.Hand[e.state.SelectedCard+1:]...)
	e.state.SelectedCard = -1

	e.gameLog("%s, %s inşa etti.", player.Name, card.Name)
	e.checkAutoEndTurn()
	return ok()
}

// DemolishBuilding removes one of the active player's own buildings. The
// council and deployed units cannot be demolished.
func (e *Engine) DemolishBuilding(slot int) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	player := e.state.ActivePlayer()
	if player.ActionsRemaining < 1 {
		return fail("Aksiyon kalmadı!")
	}
	if slot < 0 || slot >= GridSize {
		return fail("Geçersiz alan.")
	}
	cell := player.Grid[slot]
	if cell == nil {
		return fail("Bu konumda bina yok!")
	}
	if cell.Type == CellCouncil {
		return fail("Meclis yıkılamaz!")
	}
	if cell.IsUnit {
		return fail("Askerler yıkılamaz!")
	}

	name := cell.Type
	player.Grid[slot] = nil
	player.ActionsRemaining--
	e.state.ActionMode = ModeNone

	e.gameLog("%s, %s binasını yıktı!", player.Name, name)
	e.checkAutoEndTurn()
	return ok()
}
