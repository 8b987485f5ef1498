package game

// PlayDiplomacyCard plays the diplomacy card at the given hand index.
// targetID is required for targeted effects (0 = none). All preconditions are
// checked before anything is consumed: a failed result means no action was
// spent, the card is still in hand and no dp moved.
func (e *Engine) PlayDiplomacyCard(handIndex, targetID int) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playDiplomacyCardLocked(handIndex, targetID)
}

func (e *Engine) playDiplomacyCardLocked(handIndex, targetID int) ActionResult {
	player := e.state.ActivePlayer()
	if player.ActionsRemaining < 1 {
		return fail("Aksiyon kalmadı!")
	}
	if handIndex < 0 || handIndex >= len(player.Hand) {
		return fail("Geçersiz kart.")
	}
	card := player.Hand[handIndex]
	if card.Type != CardDiplomacy {
		return fail("Bu bir diplomasi kartı değil.")
	}

	var target *Player
	if card.Effect.NeedsTarget() {
		if targetID == 0 {
			return ActionResult{Msg: "Bu kart bir hedef gerektirir.", NeedsTarget: true}
		}
		if targetID == player.ID {
			return fail("Kendini hedefleyemezsin!")
		}
		target = e.state.PlayerByID(targetID)
		if target == nil {
			return fail("Geçersiz hedef.")
		}
	}

	if res := e.validateEffect(player, target, card); !res.OK {
		return res
	}

	// Commit: the action, the card and the dp move together.
	player.ActionsRemaining--
	player.Hand = append(player.Hand[:handIndex], player.Hand[handIndex+1:]...)
	player.DP += card.DP
	e.applyEffect(player, target, card)

	e.checkAutoEndTurn()
	return ok()
}

// validateEffect runs every precondition of the card's effect without touching
// state. Contest losses are not preconditions; they resolve in applyEffect.
func (e *Engine) validateEffect(player, target *Player, card *Card) ActionResult {
	switch card.Effect {
	case EffectBreakAlliance:
		if e.militaryPower(player) < card.MinMilitary {
			return fail("Nifak Tohumu için en az %d askeri güç gerekir!", card.MinMilitary)
		}
		if target.AllianceWith == 0 {
			return fail("%s'in bozulacak bir ittifakı yok.", target.Name)
		}
	case EffectAssassination:
		if player.TotalSoldiers() < 20 {
			return fail("Suikast için en az 20 askere ihtiyacın var!")
		}
		if player.Technologies.Military < 3 {
			return fail("Suikast için Silah III gerekir!")
		}
		if !e.hasAnyTechAtLevel(player, 3) {
			return fail("Suikast için seviye 3 teknoloji gerekir!")
		}
		if target.Council() == nil || len(target.Council().Garrison) == 0 {
			return fail("%s'in meclisinde suikast yapılacak kimse yok.", target.Name)
		}
	case EffectRepairBuilding:
		if e.mostDamagedRepairable(player) == -1 {
			return fail("Onarılacak hasarlı bina yok.")
		}
	case EffectTerrorJoker:
		if player.DP < 10 {
			return fail("Sabotaj için en az 10 DP gerekir!")
		}
		if e.pickTerrorTarget(target) == -1 {
			return fail("%s'in yıkılacak binası yok.", target.Name)
		}
	}
	return ok()
}

func (e *Engine) hasAnyTechAtLevel(p *Player, level int) bool {
	t := p.Technologies
	return t.Food >= level || t.Military >= level || t.Defense >= level || t.Commerce >= level
}

func (e *Engine) applyEffect(player, target *Player, card *Card) {
	switch card.Effect {
	case EffectGoldBoost:
		player.Gold += 3
		player.TotalGoldEarned += 3
		e.gameLog("%s vergi topladı: +3 altın.", player.Name)
	case EffectMilitaryBoost:
		player.MilitaryBoost = 3
		e.gameLog("%s askeri gösteri yaptı: sıradaki saldırıya +3.", player.Name)
	case EffectWhiteFlag:
		player.WhiteFlagTurns = card.Duration
		e.gameLog("%s Beyaz Bayrak çekti! %d tur boyunca saldırı yasak.", player.Name, card.Duration)
	case EffectStealCard:
		e.stealCard(player, target)
	case EffectStealUnit:
		e.stealUnit(player, target)
	case EffectBreakAlliance:
		e.breakAllianceContest(player, target)
	case EffectAssassination:
		e.assassinationContest(player, target)
	case EffectRepairBuilding:
		slot := e.mostDamagedRepairable(player)
		cell := player.Grid[slot]
		cell.HP = maxCellHP[cell.Type]
		e.gameLog("%s, %s binasını tamamen onardı.", player.Name, cell.Type)
	case EffectTerrorJoker:
		player.DP -= 2
		if player.DP < 0 {
			player.DP = 0
		}
		e.terrorStrike(player, target)
	}
}

func (e *Engine) stealCard(player, target *Player) {
	if len(target.Hand) == 0 {
		e.gameLog("Casusluk başarısız: %s'in eli boş.", target.Name)
		return
	}
	i := e.rng.Intn(len(target.Hand))
	stolen := target.Hand[i]
	target.Hand = append(target.Hand[:i], target.Hand[i+1:]...)
	player.Hand = append(player.Hand, stolen)
	e.gameLog("%s, %s'den bir kart çaldı!", player.Name, target.Name)
}

func (e *Engine) stealUnit(player, target *Player) {
	var unitSlots []int
	for i, c := range target.Grid {
		if c != nil && c.IsUnit {
			unitSlots = append(unitSlots, i)
		}
	}
	if len(unitSlots) == 0 {
		e.gameLog("Propaganda başarısız: %s'in birliği yok.", target.Name)
		return
	}
	empty := -1
	for i, c := range player.Grid {
		if c == nil {
			empty = i
			break
		}
	}
	if empty == -1 || e.population(player)+1 > e.capacity(player) {
		e.gameLog("Propaganda başarısız: birlik için yer yok.")
		return
	}
	from := unitSlots[e.rng.Intn(len(unitSlots))]
	player.Grid[empty] = target.Grid[from]
	target.Grid[from] = nil
	e.gameLog("%s, %s'in bir birliğini kendi safına çekti!", player.Name, target.Name)
}

// breakAllianceContest pits the schemer against the allied pair. A strict win
// dissolves the alliance; a loss costs dp and strengthens both victims.
func (e *Engine) breakAllianceContest(player, target *Player) {
	ally := e.state.PlayerByID(target.AllianceWith)
	attackerScore := e.militaryPower(player) + player.DP
	defenderScore := e.militaryPower(target) + target.DP
	if ally != nil {
		defenderScore += e.militaryPower(ally) + ally.DP
	}

	if attackerScore > defenderScore {
		target.AllianceWith = 0
		if ally != nil {
			ally.AllianceWith = 0
		}
		e.gameLog("Nifak Tohumu tuttu! %s'in ittifakı dağıldı.", target.Name)
		return
	}
	player.DP -= 2
	if player.DP < 1 {
		player.DP = 1
	}
	target.DP++
	if ally != nil {
		ally.DP++
	}
	e.gameLog("Nifak Tohumu başarısız! İttifak güçlenerek çıktı.")
}

// assassinationContest resolves the council strike. The flat +6 and doubled
// garrison weighting keep it defender-favored.
func (e *Engine) assassinationContest(player, target *Player) {
	council := target.Council()
	attackerScore := e.dice.Roll() + player.DP + e.militaryPower(player)/5
	defenderScore := e.dice.Roll() + target.DP + 2*len(council.Garrison) + 6

	if attackerScore > defenderScore {
		killed := 2
		if len(council.Garrison) < killed {
			killed = len(council.Garrison)
		}
		council.Garrison = council.Garrison[killed:]
		player.DP += 3
		target.DP -= 5
		if target.DP < 1 {
			target.DP = 1
		}
		e.gameLog("SUİKAST! %s'in meclisinde %d sivil öldürüldü.", target.Name, killed)
		e.refreshCouncilHP(target)
		return
	}
	player.DP -= 6
	if player.DP < 1 {
		player.DP = 1
	}
	player.Gold -= 10
	if player.Gold < 0 {
		player.Gold = 0
	}
	target.DP += 2
	e.gameLog("Suikast yakalandı! %s ağır bedel ödedi.", player.Name)
}

// mostDamagedRepairable returns the slot of the player's most-damaged
// barracks, wall or farm, or -1 when none are damaged.
func (e *Engine) mostDamagedRepairable(p *Player) int {
	best, bestMissing := -1, 0
	for i, c := range p.Grid {
		if c == nil {
			continue
		}
		switch c.Type {
		case CellBarracks, CellWall, CellFarm:
			if missing := maxCellHP[c.Type] - c.HP; missing > bestMissing {
				best, bestMissing = i, missing
			}
		}
	}
	return best
}

// pickTerrorTarget returns a uniform-random destroyable slot on the target's
// grid, or -1 when none exists. Council and deployed units are immune.
func (e *Engine) pickTerrorTarget(target *Player) int {
	var slots []int
	for i, c := range target.Grid {
		if c != nil && c.Type != CellCouncil && !c.IsUnit {
			slots = append(slots, i)
		}
	}
	if len(slots) == 0 {
		return -1
	}
	return slots[e.rng.Intn(len(slots))]
}

func (e *Engine) terrorStrike(player, target *Player) {
	slot := e.pickTerrorTarget(target)
	if slot == -1 {
		return
	}
	cell := target.Grid[slot]
	target.Grid[slot] = nil
	e.gameLog("SABOTAJ! %s'in %s binası yıkıldı.", target.Name, cell.Type)
	if cell.Type == CellBarracks {
		report := &CombatReport{}
		e.salvageGarrison(player, target, cell.Garrison, report)
	}
}

// ProposeAlliance offers an alliance to another independent player. Only the
// diplomatically stronger side may propose; the target refuses only from a
// position of overwhelming military superiority, and a refusal still costs
// the action.
func (e *Engine) ProposeAlliance(targetID int) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	player := e.state.ActivePlayer()
	if player.ActionsRemaining < 1 {
		return fail("Aksiyon kalmadı!")
	}
	if targetID == player.ID {
		return fail("Kendinle ittifak kuramazsın!")
	}
	target := e.state.PlayerByID(targetID)
	if target == nil {
		return fail("Geçersiz hedef.")
	}
	if player.IsVassal || target.IsVassal {
		return fail("Vasallar ittifak kuramaz!")
	}
	if player.AllianceWith != 0 || target.AllianceWith != 0 {
		return fail("Taraflardan biri zaten bir ittifakta.")
	}
	if e.independentCount() <= 2 {
		return fail("Son iki bağımsız krallık ittifak kuramaz!")
	}
	if player.DP == target.DP {
		return fail("Eşit DP ile ittifak teklif edilemez.")
	}
	if player.DP < target.DP {
		return fail("Sadece DP üstünlüğü olan taraf teklif edebilir.")
	}

	player.ActionsRemaining--
	playerMil, targetMil := e.militaryPower(player), e.militaryPower(target)
	if targetMil > playerMil && targetMil >= 3*playerMil {
		e.gameLog("%s, %s'in ittifak teklifini reddetti!", target.Name, player.Name)
		e.checkAutoEndTurn()
		return fail("%s teklifini reddetti.", target.Name)
	}

	player.AllianceWith = target.ID
	target.AllianceWith = player.ID
	e.gameLog("%s ve %s ittifak kurdu!", player.Name, target.Name)
	e.checkAutoEndTurn()
	return ok()
}

func (e *Engine) independentCount() int {
	n := 0
	for _, p := range e.state.Players {
		if !p.IsVassal {
			n++
		}
	}
	return n
}

// BreakAllianceVoluntary dissolves the caller's alliance. The deserter pays in
// dp; the loyal side is compensated in gold.
func (e *Engine) BreakAllianceVoluntary() ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	player := e.state.ActivePlayer()
	if player.ActionsRemaining < 1 {
		return fail("Aksiyon kalmadı!")
	}
	if player.AllianceWith == 0 {
		return fail("Bozulacak bir ittifakın yok.")
	}
	ally := e.state.PlayerByID(player.AllianceWith)

	player.ActionsRemaining--
	player.AllianceWith = 0
	player.DP -= 2
	if player.DP < 1 {
		player.DP = 1
	}
	if ally != nil {
		ally.AllianceWith = 0
		ally.Gold += 3
		ally.TotalGoldEarned += 3
		e.gameLog("%s ittifakı bozdu! %s tazminat olarak 3 altın aldı.", player.Name, ally.Name)
	}
	e.checkAutoEndTurn()
	return ok()
}

// DonationKind selects what DonateToVassal transfers.
type DonationKind string

const (
	DonateGold DonationKind = "gold"
	DonateUnit DonationKind = "unit"
)

// DonateToVassal gifts gold or a deployed unit to another master's vassal.
func (e *Engine) DonateToVassal(targetID int, kind DonationKind, amount int) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	player := e.state.ActivePlayer()
	if player.ActionsRemaining < 1 {
		return fail("Aksiyon kalmadı!")
	}
	if player.IsVassal {
		return fail("Vasallar bağış yapamaz!")
	}
	target := e.state.PlayerByID(targetID)
	if target == nil || !target.IsVassal {
		return fail("Sadece bir vasala bağış yapılabilir.")
	}
	if target.MasterID == player.ID {
		return fail("Kendi vasalına bağış yapamazsın.")
	}

	switch kind {
	case DonateGold:
		if amount < 1 {
			return fail("Geçersiz miktar.")
		}
		if player.Gold < amount {
			return fail("Yetersiz Altın!")
		}
		player.Gold -= amount
		target.Gold += amount
		target.TotalGoldEarned += amount
		player.ActionsRemaining--
		e.gameLog("%s, %s'e %d altın bağışladı.", player.Name, target.Name, amount)
	case DonateUnit:
		from := -1
		for i, c := range player.Grid {
			if c != nil && c.IsUnit {
				from = i
				break
			}
		}
		if from == -1 {
			return fail("Bağışlanacak birliğin yok.")
		}
		to := -1
		for i, c := range target.Grid {
			if c == nil {
				to = i
				break
			}
		}
		if to == -1 {
			return fail("%s'in boş alanı yok.", target.Name)
		}
		target.Grid[to] = player.Grid[from]
		player.Grid[from] = nil
		player.ActionsRemaining--
		e.gameLog("%s, %s'e bir birlik bağışladı.", player.Name, target.Name)
	default:
		return fail("Geçersiz bağış türü.")
	}

	e.checkAutoEndTurn()
	return ok()
}
