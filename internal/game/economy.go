package game

import "math"

// runTurnEconomy runs one player's upkeep at the start of their own turn.
// Never runs on turn 1.
func (e *Engine) runTurnEconomy(p *Player) {
	p.MarketRefreshes = 0
	e.applyIncome(p)
	e.runBarracksProduction(p)
	e.runFarmGrowth(p)
	e.runCouncilRepair(p)
	e.enforceCapacity(p)
}

// applyIncome computes and credits one player's round income. The order of the
// modifiers matters: throttle before caps, caps before crediting.
func (e *Engine) applyIncome(p *Player) {
	income := 1 + p.CountCells(CellFarm)
	markets := p.CountCells(CellMarket)
	if markets > 0 {
		income += int(math.Floor(float64(markets) * commerceMultipliers[p.Technologies.Commerce]))
	}
	income += len(e.state.Vassals(p.ID))

	// Hoarding throttle.
	if float64(p.Gold) >= wealthThrottleShare*GoldCapPerPlayer {
		income = income / 2
		if income < 1 {
			income = 1
		}
	}

	// Vassal tax comes out of current gold, before the new income lands.
	if p.IsVassal && p.Gold > 0 {
		if master := e.state.PlayerByID(p.MasterID); master != nil {
			p.Gold--
			master.Gold++
			master.TotalGoldEarned++
			e.gameLog("%s, efendisi %s'e 1 altın vergi ödedi.", p.Name, master.Name)
		}
	}

	// Global economy stop: once the session has collectively earned 75% of the
	// theoretical maximum, passive income ends for everyone.
	globalCap := int(math.Floor(globalCapThreshold * GoldCapPerPlayer * float64(len(e.state.Players))))
	if e.state.TotalGoldEarned() >= globalCap {
		income = 0
	}

	if p.Gold+income > GoldCapPerPlayer {
		income = GoldCapPerPlayer - p.Gold
		if income < 0 {
			income = 0
		}
	}

	if income > 0 {
		p.Gold += income
		p.TotalGoldEarned += income
		e.gameLog("%s %d altın gelir elde etti.", p.Name, income)
	}
}

// runBarracksProduction adds one random soldier to every barracks garrison
// still below the production cap.
func (e *Engine) runBarracksProduction(p *Player) {
	for _, c := range p.Grid {
		if c == nil || c.Type != CellBarracks {
			continue
		}
		if len(c.Garrison) >= BarracksProduceCap {
			e.gameLog("%s: Kışla dolu! Asker üretimi durdu.", p.Name)
			continue
		}
		tmpl := militaryTemplates[e.rng.Intn(len(militaryTemplates))]
		c.Garrison = append(c.Garrison, soldierFromTemplate(tmpl))
	}
}

// runFarmGrowth grows one council civilian every third turn when the player
// owns at least one farm, up to the civilian cap. Extra farms feed income,
// not growth.
func (e *Engine) runFarmGrowth(p *Player) {
	if e.state.Turn%3 != 0 {
		return
	}
	council := p.Council()
	if council == nil || p.CountCells(CellFarm) == 0 {
		return
	}
	if len(council.Garrison) >= CouncilCivilianCap {
		return
	}
	council.Garrison = append(council.Garrison, Soldier{Name: CivilianName})
	e.refreshCouncilHP(p)
	e.gameLog("%s: Çiftlik yeni bir Sivil yetiştirdi. (Meclis: %d/%d)",
		p.Name, len(council.Garrison), CouncilCivilianCap)
}

// runCouncilRepair restores killed council civilians one at a time, paying
// 1 dp per head first, then 2 gold, stopping when neither resource suffices.
// An empty council garrison is only a logged state, never a loss condition.
func (e *Engine) runCouncilRepair(p *Player) {
	council := p.Council()
	if council == nil {
		return
	}
	restored := 0
	for len(council.Garrison) < CouncilCivilianCap {
		if p.DP >= 1 {
			p.DP--
		} else if p.Gold >= 2 {
			p.Gold -= 2
		} else {
			break
		}
		council.Garrison = append(council.Garrison, Soldier{Name: CivilianName})
		restored++
	}
	e.refreshCouncilHP(p)
	if restored > 0 {
		e.gameLog("%s: Meclise %d yeni Sivil katıldı.", p.Name, restored)
	}
	if len(council.Garrison) == 0 {
		e.gameLog("%s: Kral öldü! Mecliste kimse kalmadı.", p.Name)
	}
}

// refreshCouncilHP rescales council hit points to the surviving civilian
// count: 2 civilians hold the hull at 7, 1 at 5, an empty council drops to 3.
// A full council keeps whatever hp it already has.
func (e *Engine) refreshCouncilHP(p *Player) {
	council := p.Council()
	if council == nil {
		return
	}
	var hp int
	switch len(council.Garrison) {
	case 2:
		hp = 7
	case 1:
		hp = 5
	case 0:
		hp = 3
	default:
		return
	}
	if council.HP == hp {
		return
	}
	council.HP = hp
	switch len(council.Garrison) {
	case 2:
		e.gameLog("%s Meclisi zayıfladı! (2 sivil kaldı)", p.Name)
	case 1:
		e.gameLog("%s KRİZ DURUMUNDA! (1 sivil kaldı)", p.Name)
	case 0:
		e.gameLog("%s: Meclis savunmasız kaldı!", p.Name)
	}
}

// capacity is the food-driven population ceiling.
func (e *Engine) capacity(p *Player) int {
	barracks := p.CountCells(CellBarracks)
	return int(math.Floor(float64(4+barracks*5) * foodMultipliers[p.Technologies.Food]))
}

// population counts council civilians, deployed units and garrisoned soldiers.
func (e *Engine) population(p *Player) int {
	return p.TotalSoldiers()
}

// enforceCapacity evicts deployed units, in grid-scan order, into the
// mercenary pool until the population fits. Garrisoned soldiers are never
// evicted.
func (e *Engine) enforceCapacity(p *Player) {
	cap := e.capacity(p)
	for e.population(p) > cap {
		evicted := false
		for i, c := range p.Grid {
			if c != nil && c.IsUnit {
				e.state.MercenaryPool = append(e.state.MercenaryPool, mercenaryCard(Soldier{Name: c.Type, Power: c.Power, Cost: unitCost(c.Type)}))
				p.Grid[i] = nil
				e.gameLog("%s: Yiyecek yetersiz! %s orduyu terk etti.", p.Name, c.Type)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}
