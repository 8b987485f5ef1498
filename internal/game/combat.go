package game

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// maxTargetRedirects bounds the target-resolution pre-pass. Vassal-to-master
// and building-to-wall are the only redirect kinds, so three hops always
// suffice for a well-formed state; exceeding the bound means the state is
// inconsistent.
const maxTargetRedirects = 3

// CombatReport describes one fully resolved attack.
type CombatReport struct {
	AttackerID int
	DefenderID int
	TargetSlot int
	TargetType string

	Dice         DiceRoll
	AttackTotal  int
	DefenseTotal int
	Damage       int

	Destroyed  bool
	Vassalized bool

	// Soldiers displaced out of a destroyed barracks.
	SalvagedToDefender int
	SalvagedToAttacker int
}

// resolveTarget applies the redirect rules until the target is stable: attacks
// on a vassal land on its master, and attacks on a walled kingdom land on a
// wall. Returns the final defender and slot.
func (e *Engine) resolveTarget(defender *Player, slot int) (*Player, int, ActionResult) {
	for i := 0; i < maxTargetRedirects; i++ {
		if defender.IsVassal {
			master := e.state.PlayerByID(defender.MasterID)
			if master == nil {
				return nil, 0, fail("Hedef çözümlenemedi.")
			}
			e.gameLog("%s bir vasal! Saldırı efendisi %s'e yönlendirildi.", defender.Name, master.Name)
			defender = master
			slot = e.pickMasterSlot(master)
			continue
		}
		cell := defender.Grid[slot]
		if cell != nil && cell.Type != CellWall {
			if wallSlot := firstCellOfType(defender, CellWall); wallSlot >= 0 {
				e.gameLog("Duvar saldırıyı karşıladı!")
				slot = wallSlot
				continue
			}
		}
		return defender, slot, ok()
	}
	return nil, 0, fail("Hedef çözümlenemedi.")
}

// pickMasterSlot chooses a random occupied building slot on the master's
// grid. Deployed units are never redirect targets; the council only when no
// other building stands.
func (e *Engine) pickMasterSlot(p *Player) int {
	var candidates []int
	for i, c := range p.Grid {
		if c != nil && !c.IsUnit && c.Type != CellCouncil {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return CouncilSlot
	}
	return candidates[e.rng.Intn(len(candidates))]
}

func firstCellOfType(p *Player, typeName string) int {
	for i, c := range p.Grid {
		if c != nil && c.Type == typeName {
			return i
		}
	}
	return -1
}

// InitiateAttack validates an attack and stores it as pending. No dice are
// rolled and no damage is dealt here; the action is only spent when the dice
// resolve. Attacking an ally requires confirmed=true and immediately costs the
// alliance.
func (e *Engine) InitiateAttack(targetPlayerID, targetSlot int, confirmed bool) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	attacker := e.state.ActivePlayer()
	if attacker.ActionsRemaining < 1 {
		return fail("Aksiyon kalmadı!")
	}
	if targetPlayerID == attacker.ID {
		return fail("Kendine saldıramazsın!")
	}
	target := e.state.PlayerByID(targetPlayerID)
	if target == nil {
		return fail("Geçersiz hedef.")
	}
	if targetSlot < 0 || targetSlot >= GridSize {
		return fail("Geçersiz alan.")
	}
	if e.state.Turn <= PeaceWindowTurns {
		return fail("İlk %d tur barış dönemi, saldırı yasak!", PeaceWindowTurns)
	}
	for _, p := range e.state.Players {
		if p.WhiteFlagTurns > 0 {
			return fail("Beyaz Bayrak aktif! %s ateşkes ilan etti.", p.Name)
		}
	}

	defender, slot, res := e.resolveTarget(target, targetSlot)
	if !res.OK {
		return res
	}
	if defender.ID == attacker.ID {
		return fail("Kendine saldıramazsın!")
	}
	if attacker.IsVassal && attacker.MasterID == defender.ID {
		return fail("Efendine saldıramazsın!")
	}
	if defender.IsVassal && defender.MasterID == attacker.ID {
		return fail("Kendi vasalına saldıramazsın!")
	}
	if attacker.AllianceWith == defender.ID {
		if !confirmed {
			return ActionResult{
				Msg:          fmt.Sprintf("%s ile müttefiksin! Saldırı ittifakı bozar.", defender.Name),
				NeedsConfirm: true,
			}
		}
		attacker.AllianceWith = 0
		defender.AllianceWith = 0
		attacker.DP -= 2
		if attacker.DP < 1 {
			attacker.DP = 1
		}
		defender.Gold += 3
		defender.TotalGoldEarned += 3
		e.gameLog("İHANET! %s ittifakı bozarak %s'e saldırıyor!", attacker.Name, defender.Name)
	}

	cell := defender.Grid[slot]
	if cell == nil {
		return fail("Boş alana saldıramazsın!")
	}
	if cell.Type == CellCouncil && e.councilShielded(defender) {
		return fail("Meclise saldırmak için önce savunmayı kırmalısın!")
	}

	e.state.PendingAttack = &PendingAttack{
		AttackerID:       attacker.ID,
		DefenderID:       defender.ID,
		TargetSlot:       slot,
		AttackerMilitary: e.militaryPower(attacker),
	}
	return ActionResult{OK: true, WaitingForDice: true}
}

// councilShielded reports whether any other defense still stands: a deployed
// unit, a wall, or a barracks protects the council.
func (e *Engine) councilShielded(p *Player) bool {
	for _, c := range p.Grid {
		if c == nil {
			continue
		}
		if c.IsUnit || c.Type == CellWall || c.Type == CellBarracks {
			return true
		}
	}
	return false
}

// CancelAttack abandons a pending attack without spending the action.
func (e *Engine) CancelAttack() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PendingAttack = nil
	e.state.ActionMode = ModeNone
}

// RollDiceForAttack resolves the pending attack: rolls, totals, damage and
// destruction side effects, all in one synchronous step.
func (e *Engine) RollDiceForAttack() (ActionResult, *CombatReport) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending := e.state.PendingAttack
	if pending == nil {
		return fail("Bekleyen saldırı yok."), nil
	}
	attacker := e.state.PlayerByID(pending.AttackerID)
	defender := e.state.PlayerByID(pending.DefenderID)
	cell := defender.Grid[pending.TargetSlot]
	if cell == nil {
		e.state.PendingAttack = nil
		e.state.ActionMode = ModeNone
		return fail("Hedef artık mevcut değil."), nil
	}

	attacker.ActionsRemaining--
	e.markAttacked(attacker, defender)

	var roll DiceRoll
	if e.nextDice != nil {
		roll = *e.nextDice
		e.nextDice = nil
	} else {
		roll = DiceRoll{Attack: e.dice.Roll(), Defense: e.dice.Roll()}
	}
	e.state.LastDice = &roll

	boost := attacker.MilitaryBoost
	attacker.MilitaryBoost = 0

	attackBase := int(math.Ceil(float64(pending.AttackerMilitary) * 0.25))
	attackTotal := int(math.Floor(float64(attackBase)*militaryMultipliers[attacker.Technologies.Military])) + roll.Attack + boost

	defenseTotal := int(math.Floor(float64(cell.Power) * defenseMultipliers[defender.Technologies.Defense]))
	if defender.HasCell(CellWall) {
		defenseTotal += WallDefenseBonus
	}
	defenseTotal += int(math.Ceil(float64(e.militaryPower(defender)) * 0.20))
	defenseTotal += roll.Defense

	report := &CombatReport{
		AttackerID:   attacker.ID,
		DefenderID:   defender.ID,
		TargetSlot:   pending.TargetSlot,
		TargetType:   cell.Type,
		Dice:         roll,
		AttackTotal:  attackTotal,
		DefenseTotal: defenseTotal,
	}

	if attackTotal > defenseTotal {
		report.Damage = tieredDamage(attackTotal - defenseTotal)
		cell.HP -= report.Damage
		e.gameLog("%s saldırdı: %d vs %d. %s %d hasar aldı!",
			attacker.Name, attackTotal, defenseTotal, cell.Type, report.Damage)
		if cell.HP <= 0 {
			report.Destroyed = true
			e.destroyCell(attacker, defender, pending.TargetSlot, report)
		}
	} else {
		e.gameLog("%s saldırdı: %d vs %d. Savunma dayandı!", attacker.Name, attackTotal, defenseTotal)
	}

	e.state.PendingAttack = nil
	e.state.ActionMode = ModeNone
	e.state.LastCombat = report
	e.checkWinCondition()
	e.checkAutoEndTurn()
	return ok(), report
}

// tieredDamage converts a winning margin to hull damage: narrow wins chip,
// decisive wins carry the full margin through.
func tieredDamage(margin int) int {
	switch {
	case margin <= 5:
		return 1
	case margin <= 15:
		return 2
	default:
		return margin
	}
}

func (e *Engine) markAttacked(attacker, defender *Player) {
	text := fmt.Sprintf("%s saldırdı!", attacker.Name)
	for _, m := range defender.AttackedBy {
		if m.Text == text {
			return
		}
	}
	defender.AttackedBy = append(defender.AttackedBy, AttackMark{
		Text:          text,
		AttackerColor: attacker.Color,
		DefenderColor: defender.Color,
	})
}

// destroyCell applies destruction side effects: barracks spill their garrison,
// a fallen council vassalizes the kingdom, anything else is pillaged for gold.
func (e *Engine) destroyCell(attacker, defender *Player, slot int, report *CombatReport) {
	cell := defender.Grid[slot]
	defender.Grid[slot] = nil
	e.gameLog("%s yıkıldı!", cell.Type)

	switch {
	case cell.Type == CellBarracks:
		e.salvageGarrison(attacker, defender, cell.Garrison, report)
	case cell.Type == CellCouncil:
		e.vassalize(attacker, defender)
		report.Vassalized = true
	default:
		attacker.Gold++
		attacker.TotalGoldEarned++
		e.gameLog("%s yağmadan 1 altın kazandı.", attacker.Name)
	}
}

// salvageGarrison redistributes a destroyed barracks' soldiers. Evacuation to
// the defender's other barracks first, then the remainder splits between the
// two sides, attacker taking the larger half. Every soldier lands somewhere:
// a barracks, a matching deployed unit's garrison, or the mercenary pool.
func (e *Engine) salvageGarrison(attacker, defender *Player, garrison []Soldier, report *CombatReport) {
	var remainder []Soldier
	for _, s := range garrison {
		if e.evacuateToBarracks(defender, s) {
			report.SalvagedToDefender++
		} else {
			remainder = append(remainder, s)
		}
	}

	toAttacker := (len(remainder) + 1) / 2
	for i, s := range remainder {
		if i < toAttacker {
			e.placeSoldier(attacker, s)
			report.SalvagedToAttacker++
		} else {
			e.placeSoldier(defender, s)
			report.SalvagedToDefender++
		}
	}
	if len(garrison) > 0 {
		e.gameLog("Kışladan %d asker kurtuldu: %d savunana, %d saldırana.",
			len(garrison), report.SalvagedToDefender, report.SalvagedToAttacker)
	}
}

func (e *Engine) evacuateToBarracks(p *Player, s Soldier) bool {
	for _, c := range p.Grid {
		if c != nil && c.Type == CellBarracks && len(c.Garrison) < BarracksEvacuateCap {
			c.Garrison = append(c.Garrison, s)
			return true
		}
	}
	return false
}

// placeSoldier finds a home for a displaced soldier: a barracks with room,
// then a deployed unit's garrison in fixed Piyade, Okçu, Süvari priority,
// then the shared mercenary pool. A unit garrison accepts any soldier type.
func (e *Engine) placeSoldier(p *Player, s Soldier) {
	if e.evacuateToBarracks(p, s) {
		return
	}
	for _, unitType := range []string{UnitInfantry, UnitArcher, UnitCavalry} {
		for _, c := range p.Grid {
			if c != nil && c.IsUnit && c.Type == unitType {
				c.Garrison = append(c.Garrison, s)
				return
			}
		}
	}
	e.state.MercenaryPool = append(e.state.MercenaryPool, mercenaryCard(s))
}

// vassalize demotes the defender to the attacker's direct vassal and rebuilds
// the council as a token seat. The defender's own vassals keep their master,
// so conquering a chain takes a conquest per link.
func (e *Engine) vassalize(attacker, defender *Player) {
	defender.IsVassal = true
	defender.MasterID = attacker.ID
	if defender.AllianceWith != 0 {
		if ally := e.state.PlayerByID(defender.AllianceWith); ally != nil {
			ally.AllianceWith = 0
		}
		defender.AllianceWith = 0
	}
	defender.Grid[CouncilSlot] = &Cell{Type: CellCouncil, HP: 2, Power: 5, Garrison: []Soldier{}}
	e.gameLog("%s, %s krallığını fethetti! %s artık bir vasal.",
		attacker.Name, defender.Name, defender.Name)
}

// checkWinCondition ends the game when exactly one independent player remains
// and owns every other player as a direct vassal.
func (e *Engine) checkWinCondition() {
	var independent *Player
	for _, p := range e.state.Players {
		if !p.IsVassal {
			if independent != nil {
				return
			}
			independent = p
		}
	}
	if independent == nil {
		return
	}
	for _, p := range e.state.Players {
		if p.ID != independent.ID && p.MasterID != independent.ID {
			return
		}
	}
	e.state.Phase = PhaseEnded
	e.state.WinnerID = independent.ID
	e.cancelAutoEnd()
	e.gameLog("%s OYUNU KAZANDI!", independent.Name)
	e.logger.Info("game over", zap.Int("winner", independent.ID))
}
