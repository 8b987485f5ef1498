package game

import "math"

// militaryPower totals a player's deployed units and garrisoned soldiers,
// applies the diversity bonus, then the military technology multiplier.
// Each multiplier step floors separately. Civilians contribute nothing.
func (e *Engine) militaryPower(p *Player) int {
	base := 0
	for _, c := range p.Grid {
		if c == nil {
			continue
		}
		if c.IsUnit {
			base += c.Power
		}
		// Civilians carry zero power, so the garrison sum needs no filter.
		base += c.GarrisonPower()
	}
	if base == 0 {
		return 0
	}

	if e.hasDiverseArmy(p) {
		base = int(math.Floor(float64(base) * 1.2))
	}
	return int(math.Floor(float64(base) * militaryMultipliers[p.Technologies.Military]))
}

// hasDiverseArmy reports whether the player fields all three soldier types as
// deployed units and owns a standing barracks. Garrisoned soldiers do not
// count toward the census.
func (e *Engine) hasDiverseArmy(p *Player) bool {
	types := map[string]bool{}
	for _, c := range p.Grid {
		if c != nil && c.IsUnit {
			types[c.Type] = true
		}
	}
	return types[UnitInfantry] && types[UnitArcher] && types[UnitCavalry] && p.HasCell(CellBarracks)
}
