package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/terazigame/kingdoms-server-go/internal/game"
)

// Engine is the slice of the rules engine a bot is allowed to touch: the
// public operations a human player drives plus the seat-handoff guard,
// nothing privileged.
type Engine interface {
	View() game.GameView
	SeatGeneration() uint64
	BuyCard(marketSlot int) game.ActionResult
	SelectHandCard(index int)
	BuildOnSlot(slot int) game.ActionResult
	PlayDiplomacyCard(handIndex, targetID int) game.ActionResult
	PlayTechnologyCard(handIndex int, jokerChoice game.TechType) game.ActionResult
	SetActionMode(mode game.ActionMode) game.ActionResult
	DemolishBuilding(slot int) game.ActionResult
	InitiateAttack(targetPlayerID, targetSlot int, confirmed bool) game.ActionResult
	RollDiceForAttack() (game.ActionResult, *game.CombatReport)
	ProposeAlliance(targetID int) game.ActionResult
	EndTurnFor(gen uint64) game.ActionResult
}

// Bot plays one seat with a fixed heuristic: shop, play the hand, then look
// for a fight. Every decision goes through the engine's validation; a failed
// result just moves the bot on to its next idea.
type Bot struct {
	engine   Engine
	playerID int
	logger   *zap.Logger
}

func New(engine Engine, playerID int, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{engine: engine, playerID: playerID, logger: logger}
}

// TakeTurn runs one full bot turn and ends it. The context bounds the turn;
// on cancellation the bot stops mid-phase and still ends its turn. When the
// runner has already forced the seat past this bot, the trailing end-turn is
// a no-op rather than a second advance.
func (b *Bot) TakeTurn(ctx context.Context) {
	gen := b.engine.SeatGeneration()
	defer b.engine.EndTurnFor(gen)

	phases := []func(){b.buyPhase, b.playPhase, b.attackPhase}
	for _, phase := range phases {
		if ctx.Err() != nil {
			b.logger.Warn("bot turn cut short", zap.Int("player", b.playerID))
			return
		}
		phase()
	}
}

func (b *Bot) me(v game.GameView) *game.PlayerView {
	for i := range v.Players {
		if v.Players[i].ID == b.playerID {
			return &v.Players[i]
		}
	}
	return nil
}

// buyPhase spends up to one action in the market, picking by current need:
// soldiers while the army is thin, buildings while the grid is empty, then
// whatever research or scheming is affordable.
func (b *Bot) buyPhase() {
	v := b.engine.View()
	me := b.me(v)
	if me == nil || me.ActionsRemaining == 0 {
		return
	}

	slot := b.pickPurchase(v, me)
	if slot == -1 {
		return
	}
	if res := b.engine.BuyCard(slot); !res.OK {
		b.logger.Debug("buy rejected", zap.String("msg", res.Msg))
	}
}

func (b *Bot) pickPurchase(v game.GameView, me *game.PlayerView) int {
	byType := func(want ...string) int {
		for i, c := range v.OpenMarket {
			if c.Cost > me.Gold {
				continue
			}
			for _, w := range want {
				if c.Type == w {
					return i
				}
			}
		}
		return -1
	}

	if me.MilitaryPower < 10 {
		if i := byType("Asker", "Paralı Asker"); i != -1 {
			return i
		}
	}
	if emptySlots(me) > 2 {
		if i := byType("Bina"); i != -1 {
			return i
		}
	}
	if i := byType("Teknoloji"); i != -1 {
		return i
	}
	return byType("Diplomasi")
}

func emptySlots(p *game.PlayerView) int {
	n := 0
	for _, c := range p.Grid {
		if c == nil {
			n++
		}
	}
	return n
}

// playPhase works through the hand while actions remain: research first, then
// diplomacy, then placing cards on the grid.
func (b *Bot) playPhase() {
	for spent := 0; spent < game.ActionsPerTurn; spent++ {
		v := b.engine.View()
		me := b.me(v)
		if me == nil || me.ActionsRemaining == 0 || len(me.Hand) == 0 {
			return
		}
		if !b.playOneCard(v, me) {
			return
		}
	}
}

func (b *Bot) playOneCard(v game.GameView, me *game.PlayerView) bool {
	for i, c := range me.Hand {
		switch c.Type {
		case "Teknoloji":
			choice := b.jokerChoice(me)
			if b.engine.PlayTechnologyCard(i, choice).OK {
				return true
			}
		case "Diplomasi":
			target := b.pickVictim(v)
			if b.engine.PlayDiplomacyCard(i, target).OK {
				return true
			}
		default:
			slot := firstEmptySlot(me)
			if slot == -1 {
				continue
			}
			b.engine.SelectHandCard(i)
			if b.engine.BuildOnSlot(slot).OK {
				return true
			}
			b.engine.SelectHandCard(-1)
		}
	}
	return false
}

// jokerChoice backs the weakest of the three Joker-eligible tracks.
func (b *Bot) jokerChoice(me *game.PlayerView) game.TechType {
	choice, lowest := game.TechMilitary, me.Technologies.Military
	if me.Technologies.Defense < lowest {
		choice, lowest = game.TechDefense, me.Technologies.Defense
	}
	if me.Technologies.Commerce < lowest {
		choice = game.TechCommerce
	}
	return choice
}

func firstEmptySlot(p *game.PlayerView) int {
	for i, c := range p.Grid {
		if c == nil {
			return i
		}
	}
	return -1
}

// pickVictim targets the strongest independent rival, the one most worth
// sabotaging. Returns 0 when no rival exists.
func (b *Bot) pickVictim(v game.GameView) int {
	best, bestPower := 0, -1
	for _, p := range v.Players {
		if p.ID == b.playerID || p.IsVassal {
			continue
		}
		if p.MilitaryPower > bestPower {
			best, bestPower = p.ID, p.MilitaryPower
		}
	}
	return best
}

// attackPhase strikes the weakest rival once the army is worth fielding.
// At most two attempts; a rejected attack is abandoned, not retried blindly.
func (b *Bot) attackPhase() {
	for attempt := 0; attempt < 2; attempt++ {
		v := b.engine.View()
		me := b.me(v)
		if me == nil || me.ActionsRemaining == 0 || me.MilitaryPower < 8 {
			return
		}
		targetID, slot := b.pickAttackTarget(v, me)
		if targetID == 0 {
			return
		}

		if res := b.engine.SetActionMode(game.ModeAttack); !res.OK {
			return
		}
		res := b.engine.InitiateAttack(targetID, slot, true)
		if !res.OK {
			b.logger.Debug("attack rejected", zap.String("msg", res.Msg))
			return
		}
		if rollRes, _ := b.engine.RollDiceForAttack(); !rollRes.OK {
			return
		}
	}
}

// pickAttackTarget finds the militarily weakest rival and its most battered
// non-council cell.
func (b *Bot) pickAttackTarget(v game.GameView, me *game.PlayerView) (int, int) {
	var victim *game.PlayerView
	for i := range v.Players {
		p := &v.Players[i]
		if p.ID == b.playerID || p.IsVassal || p.ID == me.AllianceWith {
			continue
		}
		if victim == nil || p.MilitaryPower < victim.MilitaryPower {
			victim = p
		}
	}
	if victim == nil {
		return 0, 0
	}

	slot, lowestHP := -1, 0
	for i, c := range victim.Grid {
		if c == nil || c.Type == game.CellCouncil {
			continue
		}
		if slot == -1 || c.HP < lowestHP {
			slot, lowestHP = i, c.HP
		}
	}
	if slot == -1 {
		return 0, 0
	}
	return victim.ID, slot
}
