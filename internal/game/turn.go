package game

import (
	"time"

	"go.uber.org/zap"
)

// EndTurn closes the active player's turn and seats the next player. A second
// call arriving while a transition is already running is a no-op.
func (e *Engine) EndTurn() ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endTurnLocked()
}

func (e *Engine) endTurnLocked() ActionResult {
	if e.state.Phase != PhasePlaying {
		return fail("Oyun aktif değil.")
	}
	if e.transitionInProgress {
		return fail("Tur geçişi zaten sürüyor.")
	}
	e.transitionInProgress = true
	defer func() { e.transitionInProgress = false }()

	e.cancelAutoEnd()
	e.state.PendingAttack = nil
	e.state.ActionMode = ModeNone
	e.state.SelectedCard = -1

	e.state.ActivePlayerIndex++
	if e.state.ActivePlayerIndex >= len(e.state.Players) {
		e.state.ActivePlayerIndex = 0
		e.state.Turn++
		e.gameLog("--- Tur %d ---", e.state.Turn)
	}

	e.beginSeat(e.state.ActivePlayer())
	return ok()
}

// beginSeat runs the new active player's turn-start upkeep: white-flag
// countdown, their round economy (skipped on turn 1), then the action
// allowance.
func (e *Engine) beginSeat(p *Player) {
	e.seatGen++
	if p.WhiteFlagTurns > 0 {
		p.WhiteFlagTurns--
		if p.WhiteFlagTurns == 0 {
			e.gameLog("%s'in Beyaz Bayrağı indirildi. Ateşkes bitti.", p.Name)
		}
	}
	p.AttackedBy = nil

	if e.state.Turn > 1 {
		e.runTurnEconomy(p)
	}

	if p.IsVassal {
		p.ActionsRemaining = 0
		e.processVassalTribute(p)
	} else {
		p.ActionsRemaining = ActionsPerTurn
		e.gameLog("Sıra %s'de.", p.Name)
	}
	e.refillMarket()
}

// processVassalTribute empties the vassal's treasury into the master's, which
// is the whole of a vassal turn.
func (e *Engine) processVassalTribute(p *Player) {
	master := e.state.PlayerByID(p.MasterID)
	if master == nil || p.Gold == 0 {
		return
	}
	amount := p.Gold
	p.Gold = 0
	master.Gold += amount
	master.TotalGoldEarned += amount
	e.gameLog("%s, efendisi %s'e %d altın haraç gönderdi.", p.Name, master.Name, amount)
}

// SeatGeneration identifies the current seat occupancy; it changes every time
// a new player is seated. Callers that may race a forced advance capture it
// before acting and end their turn through EndTurnFor.
func (e *Engine) SeatGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seatGen
}

// EndTurnFor ends the turn only while the seat generation still matches gen.
// A caller whose seat was already forced past gets a no-op instead of
// advancing the next player's turn.
func (e *Engine) EndTurnFor(gen uint64) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.seatGen {
		return fail("Sıra çoktan geçti.")
	}
	return e.endTurnLocked()
}

// AdvanceUntilActionable skips past consecutive vassal seats so the caller
// lands on a player who can actually act. The caller may sleep between
// advances for presentation pacing instead of using this helper.
func (e *Engine) AdvanceUntilActionable() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.state.Phase == PhasePlaying && e.state.ActivePlayer().IsVassal {
		if res := e.endTurnLocked(); !res.OK {
			return
		}
	}
}

// ForceEndTurn is the stall-recovery path: it clears every transient flag and
// advances the turn unconditionally. Used by the runner when a bot exceeds
// its deadline.
func (e *Engine) ForceEndTurn() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Warn("forcing turn advance", zap.Int("turn", e.state.Turn),
		zap.Int("player", e.state.ActivePlayer().ID))
	e.transitionInProgress = false
	e.state.PendingAttack = nil
	e.state.ActionMode = ModeNone
	e.endTurnLocked()
}

// checkAutoEndTurn (re)schedules the auto-end timer. Every call invalidates
// any pending timer via the generation counter; a fresh one is armed only when
// the active player is actually out of actions.
func (e *Engine) checkAutoEndTurn() {
	e.autoEndGen++
	if e.autoEndTimer != nil {
		e.autoEndTimer.Stop()
		e.autoEndTimer = nil
	}
	if e.autoEndDelay <= 0 || e.state.Phase != PhasePlaying {
		return
	}
	if e.state.ActivePlayer().ActionsRemaining > 0 {
		return
	}

	gen := e.autoEndGen
	e.autoEndTimer = time.AfterFunc(e.autoEndDelay, func() {
		e.autoEndFired(gen)
	})
}

func (e *Engine) autoEndFired(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Stale timer: something happened since it was armed.
	if gen != e.autoEndGen {
		return
	}
	if e.state.Phase != PhasePlaying || e.state.ActivePlayer().ActionsRemaining > 0 {
		return
	}
	e.endTurnLocked()
}

func (e *Engine) cancelAutoEnd() {
	e.autoEndGen++
	if e.autoEndTimer != nil {
		e.autoEndTimer.Stop()
		e.autoEndTimer = nil
	}
}
