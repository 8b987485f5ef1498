package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedDice struct {
	rolls []int
	i     int
}

func (d *scriptedDice) Roll() int {
	r := d.rolls[d.i%len(d.rolls)]
	d.i++
	return r
}

func diplomacyCard(effect Effect) *Card {
	for _, tmpl := range diplomacyTemplates {
		if tmpl.Effect == effect {
			return newCardFrom(tmpl)
		}
	}
	return nil
}

func giveCard(p *Player, c *Card) int {
	p.Hand = append(p.Hand, c)
	return len(p.Hand) - 1
}

func TestGoldBoost(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	card := diplomacyCard(EffectGoldBoost)
	idx := giveCard(p, card)

	res := e.PlayDiplomacyCard(idx, 0)
	require.True(t, res.OK, res.Msg)
	assert.Equal(t, 11, p.Gold)
	assert.Equal(t, 1+card.DP, p.DP)
	assert.Equal(t, ActionsPerTurn-1, p.ActionsRemaining)
	assert.Empty(t, p.Hand)
}

func TestMilitaryBoostIsStored(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	idx := giveCard(p, diplomacyCard(EffectMilitaryBoost))

	require.True(t, e.PlayDiplomacyCard(idx, 0).OK)
	assert.Equal(t, 3, p.MilitaryBoost)
}

func TestWhiteFlagSetsDuration(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	card := diplomacyCard(EffectWhiteFlag)
	idx := giveCard(p, card)

	require.True(t, e.PlayDiplomacyCard(idx, 0).OK)
	assert.Equal(t, card.Duration, p.WhiteFlagTurns)
}

func TestTargetedEffectNeedsTarget(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	idx := giveCard(p, diplomacyCard(EffectStealCard))

	res := e.PlayDiplomacyCard(idx, 0)
	require.False(t, res.OK)
	assert.True(t, res.NeedsTarget)
	assert.Len(t, p.Hand, 1, "nothing consumed")
	assert.Equal(t, ActionsPerTurn, p.ActionsRemaining)
}

func TestStealCardMovesRandomCard(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	loot := newCardFrom(buildingTemplates[0])
	target.Hand = append(target.Hand, loot)
	idx := giveCard(p, diplomacyCard(EffectStealCard))

	require.True(t, e.PlayDiplomacyCard(idx, target.ID).OK)
	assert.Empty(t, target.Hand)
	require.Len(t, p.Hand, 1)
	assert.Equal(t, loot.ID, p.Hand[0].ID)
}

func TestStealCardEmptyHandIsNoOp(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	idx := giveCard(p, diplomacyCard(EffectStealCard))

	// The play still commits; the effect just finds nothing to take.
	require.True(t, e.PlayDiplomacyCard(idx, e.state.Players[1].ID).OK)
	assert.Empty(t, p.Hand)
	assert.Equal(t, ActionsPerTurn-1, p.ActionsRemaining)
}

func TestStealUnitRespectsCapacity(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	deploy(t, target, UnitCavalry, 4)

	// Fill the thief to capacity: 9 with one barracks at food 0.
	barracks := p.Grid[3]
	for len(barracks.Garrison) < 6 {
		barracks.Garrison = append(barracks.Garrison, Soldier{Name: UnitInfantry, Power: 2})
	}
	require.Equal(t, e.capacity(p), e.population(p))

	idx := giveCard(p, diplomacyCard(EffectStealUnit))
	require.True(t, e.PlayDiplomacyCard(idx, target.ID).OK)
	assert.Equal(t, 1, target.CountUnits(), "unit stays with its owner")
}

func TestStealUnitMovesUnit(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	deploy(t, target, UnitCavalry, 4)

	idx := giveCard(p, diplomacyCard(EffectStealUnit))
	require.True(t, e.PlayDiplomacyCard(idx, target.ID).OK)
	assert.Zero(t, target.CountUnits())
	assert.Equal(t, 1, p.CountUnits())
}

func TestBreakAllianceGates(t *testing.T) {
	e := newTestEngine(t, 3)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	card := diplomacyCard(EffectBreakAlliance)
	idx := giveCard(p, card)

	// Gate 1: military threshold.
	res := e.PlayDiplomacyCard(idx, target.ID)
	require.False(t, res.OK)
	assert.Len(t, p.Hand, 1)
	assert.Equal(t, ActionsPerTurn, p.ActionsRemaining)

	// Gate 2: the target must actually hold an alliance.
	for i := 0; i < 5; i++ {
		deploy(t, p, UnitCavalry, 4)
	}
	require.GreaterOrEqual(t, e.militaryPower(p), card.MinMilitary)
	res = e.PlayDiplomacyCard(idx, target.ID)
	require.False(t, res.OK)
	assert.Len(t, p.Hand, 1)
}

func TestBreakAllianceContestWin(t *testing.T) {
	e := newTestEngine(t, 3)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	ally := e.state.Players[2]
	target.AllianceWith = ally.ID
	ally.AllianceWith = target.ID
	for i := 0; i < 6; i++ {
		deploy(t, p, UnitCavalry, 4)
	}
	p.DP = 10

	idx := giveCard(p, diplomacyCard(EffectBreakAlliance))
	require.True(t, e.PlayDiplomacyCard(idx, target.ID).OK)
	assert.Zero(t, target.AllianceWith)
	assert.Zero(t, ally.AllianceWith)
}

func TestBreakAllianceContestLoss(t *testing.T) {
	e := newTestEngine(t, 3)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	ally := e.state.Players[2]
	target.AllianceWith = ally.ID
	ally.AllianceWith = target.ID
	for i := 0; i < 5; i++ {
		deploy(t, p, UnitCavalry, 4)
	}
	target.DP = 30 // the pair outweighs the schemer
	p.DP = 5

	idx := giveCard(p, diplomacyCard(EffectBreakAlliance))
	res := e.PlayDiplomacyCard(idx, target.ID)
	require.True(t, res.OK, "a lost contest is an outcome, not a failure")

	assert.Equal(t, target.ID, ally.AllianceWith, "alliance survives")
	// Card dp landed first, then the contest penalty.
	assert.Equal(t, 5+3-2, p.DP)
	assert.Equal(t, 31, target.DP)
	assert.Equal(t, 2, ally.DP)
}

func TestAssassinationGates(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	idx := giveCard(p, diplomacyCard(EffectAssassination))

	res := e.PlayDiplomacyCard(idx, target.ID)
	require.False(t, res.OK, "needs 20 soldiers")

	barracks := p.Grid[3]
	for len(barracks.Garrison) < 17 {
		barracks.Garrison = append(barracks.Garrison, Soldier{Name: UnitInfantry, Power: 2})
	}
	res = e.PlayDiplomacyCard(idx, target.ID)
	require.False(t, res.OK, "needs weapons tech 3")
	assert.Len(t, p.Hand, 1)
	assert.Equal(t, ActionsPerTurn, p.ActionsRemaining)
}

func TestAssassinationWin(t *testing.T) {
	e := newTestEngine(t, 2)
	e.SetDice(&scriptedDice{rolls: []int{6, 1}})
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	barracks := p.Grid[3]
	for len(barracks.Garrison) < 17 {
		barracks.Garrison = append(barracks.Garrison, Soldier{Name: UnitInfantry, Power: 2})
	}
	p.Technologies.Military = 3
	p.DP = 5
	target.DP = 8

	idx := giveCard(p, diplomacyCard(EffectAssassination))
	require.True(t, e.PlayDiplomacyCard(idx, target.ID).OK)

	assert.Len(t, target.Council().Garrison, 1, "two civilians killed")
	assert.Equal(t, 5, target.Council().HP, "the thinned council weakens")
	assert.Equal(t, 5+8+3, p.DP, "card dp, then the contest reward")
	assert.Equal(t, 3, target.DP)
}

func TestAssassinationLoss(t *testing.T) {
	e := newTestEngine(t, 2)
	e.SetDice(&scriptedDice{rolls: []int{1, 6}})
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	barracks := p.Grid[3]
	for len(barracks.Garrison) < 17 {
		barracks.Garrison = append(barracks.Garrison, Soldier{Name: UnitInfantry, Power: 0})
	}
	p.Technologies.Military = 3
	p.DP = 2
	p.Gold = 4
	target.DP = 3

	idx := giveCard(p, diplomacyCard(EffectAssassination))
	require.True(t, e.PlayDiplomacyCard(idx, target.ID).OK)

	assert.Len(t, target.Council().Garrison, CouncilCivilianCap)
	assert.Equal(t, 2+8-6, p.DP, "card dp lands before the penalty")
	assert.Zero(t, p.Gold, "floors at 0")
	assert.Equal(t, 5, target.DP)
}

func TestRepairBuildingRestoresMostDamaged(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	p.Grid[1].HP = 4  // farm: 1 missing
	p.Grid[3].HP = 2  // barracks: 4 missing

	idx := giveCard(p, diplomacyCard(EffectRepairBuilding))
	require.True(t, e.PlayDiplomacyCard(idx, 0).OK)
	assert.Equal(t, maxCellHP[CellBarracks], p.Grid[3].HP)
	assert.Equal(t, 4, p.Grid[1].HP, "only the worst one is repaired")
}

func TestRepairBuildingNothingDamagedFails(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	idx := giveCard(p, diplomacyCard(EffectRepairBuilding))

	res := e.PlayDiplomacyCard(idx, 0)
	require.False(t, res.OK)
	assert.Len(t, p.Hand, 1)
	assert.Equal(t, ActionsPerTurn, p.ActionsRemaining)
}

func TestTerrorJokerGate(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	p.DP = 9
	idx := giveCard(p, diplomacyCard(EffectTerrorJoker))

	res := e.PlayDiplomacyCard(idx, e.state.Players[1].ID)
	require.False(t, res.OK)
	assert.Len(t, p.Hand, 1)
}

func TestTerrorJokerDestroysBuilding(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	p.DP = 12
	card := diplomacyCard(EffectTerrorJoker)
	idx := giveCard(p, card)

	buildingsBefore := target.CountCells(CellFarm) + target.CountCells(CellBarracks)
	require.True(t, e.PlayDiplomacyCard(idx, target.ID).OK)
	buildingsAfter := target.CountCells(CellFarm) + target.CountCells(CellBarracks)

	assert.Equal(t, buildingsBefore-1, buildingsAfter)
	assert.NotNil(t, target.Council(), "council is immune")
	// 12 + card dp - 2 spent.
	assert.Equal(t, 12+card.DP-2, p.DP)
}

func TestProposeAllianceSymmetry(t *testing.T) {
	e := newTestEngine(t, 3)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	p.DP = 3

	require.True(t, e.ProposeAlliance(target.ID).OK)
	assert.Equal(t, target.ID, p.AllianceWith)
	assert.Equal(t, p.ID, target.AllianceWith)
	assert.Equal(t, ActionsPerTurn-1, p.ActionsRemaining)
}

func TestProposeAllianceNeedsHigherDP(t *testing.T) {
	e := newTestEngine(t, 3)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]

	res := e.ProposeAlliance(target.ID)
	require.False(t, res.OK, "equal dp cannot propose")

	p.DP = 0
	target.DP = 2
	res = e.ProposeAlliance(target.ID)
	require.False(t, res.OK, "lower dp cannot propose")
	assert.Zero(t, p.AllianceWith)
}

func TestLastTwoIndependentsCannotAlly(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	p.DP = 3

	res := e.ProposeAlliance(e.state.Players[1].ID)
	require.False(t, res.OK)
}

func TestAllianceRefusalConsumesAction(t *testing.T) {
	e := newTestEngine(t, 3)
	p := e.state.ActivePlayer()
	target := e.state.Players[1]
	p.DP = 3
	for i := 0; i < 6; i++ {
		deploy(t, target, UnitCavalry, 4)
	}

	res := e.ProposeAlliance(target.ID)
	require.False(t, res.OK)
	assert.Equal(t, ActionsPerTurn-1, p.ActionsRemaining)
	assert.Zero(t, p.AllianceWith)
}

func TestBreakAllianceVoluntary(t *testing.T) {
	e := newTestEngine(t, 3)
	p := e.state.ActivePlayer()
	ally := e.state.Players[1]
	p.AllianceWith = ally.ID
	ally.AllianceWith = p.ID
	p.DP = 5
	allyGold := ally.Gold

	require.True(t, e.BreakAllianceVoluntary().OK)
	assert.Zero(t, p.AllianceWith)
	assert.Zero(t, ally.AllianceWith)
	assert.Equal(t, 3, p.DP)
	assert.Equal(t, allyGold+3, ally.Gold)
}

func TestDonateGoldToVassal(t *testing.T) {
	e := newTestEngine(t, 3)
	p := e.state.ActivePlayer()
	vassal := e.state.Players[1]
	vassal.IsVassal = true
	vassal.MasterID = e.state.Players[2].ID
	vassal.Gold = 0

	require.True(t, e.DonateToVassal(vassal.ID, DonateGold, 3).OK)
	assert.Equal(t, 5, p.Gold)
	assert.Equal(t, 3, vassal.Gold)
}

func TestDonateToOwnVassalFails(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	vassal := e.state.Players[1]
	vassal.IsVassal = true
	vassal.MasterID = p.ID

	res := e.DonateToVassal(vassal.ID, DonateGold, 3)
	require.False(t, res.OK)
}

func TestDonateUnitToVassal(t *testing.T) {
	e := newTestEngine(t, 3)
	p := e.state.ActivePlayer()
	vassal := e.state.Players[1]
	vassal.IsVassal = true
	vassal.MasterID = e.state.Players[2].ID
	deploy(t, p, UnitInfantry, 2)

	require.True(t, e.DonateToVassal(vassal.ID, DonateUnit, 0).OK)
	assert.Zero(t, p.CountUnits())
	assert.Equal(t, 1, vassal.CountUnits())
}
