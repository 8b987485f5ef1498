package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseIncome(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]

	// 1 base + 1 farm.
	e.applyIncome(p)
	assert.Equal(t, 10, p.Gold)
	assert.Equal(t, 10, p.TotalGoldEarned)
}

func TestMarketIncomeUsesCommerceMultiplier(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	p.Grid[5] = &Cell{Type: CellMarket, HP: 3, Power: 2}
	p.Grid[6] = &Cell{Type: CellMarket, HP: 3, Power: 2}
	p.Technologies.Commerce = 1 // x1.5

	// 1 base + 1 farm + floor(2*1.5).
	e.applyIncome(p)
	assert.Equal(t, 8+5, p.Gold)
}

func TestWealthThrottleHalvesIncome(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	p.Gold = 40 // past the 50% mark of the 65 cap
	p.Grid[5] = &Cell{Type: CellMarket, HP: 3, Power: 2}

	// base 3 (1 + farm + market), halved to 1.
	e.applyIncome(p)
	assert.Equal(t, 41, p.Gold)
}

func TestWealthThrottleFloorsAtOne(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	p.Grid[1] = nil // no farm: base income 1
	p.Gold = 40

	e.applyIncome(p)
	assert.Equal(t, 41, p.Gold)
}

func TestGoldCapStopsIncome(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	p.Gold = GoldCapPerPlayer

	e.applyIncome(p)
	assert.Equal(t, GoldCapPerPlayer, p.Gold)
}

func TestGoldCapClampsPartialIncome(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	p.Gold = GoldCapPerPlayer - 1
	tge := p.TotalGoldEarned

	e.applyIncome(p)
	assert.Equal(t, GoldCapPerPlayer, p.Gold)
	assert.Equal(t, tge+1, p.TotalGoldEarned)
}

func TestGlobalCapStopsEveryone(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	// Push collective earnings past 75% of 65*2.
	e.state.Players[0].TotalGoldEarned = 50
	e.state.Players[1].TotalGoldEarned = 48
	p.Gold = 10

	e.applyIncome(p)
	assert.Equal(t, 10, p.Gold)
}

func TestVassalTax(t *testing.T) {
	e := newTestEngine(t, 3)
	master := e.state.Players[0]
	vassal := e.state.Players[1]
	vassal.IsVassal = true
	vassal.MasterID = master.ID
	vassal.Gold = 5
	masterGold := master.Gold

	e.applyIncome(vassal)
	assert.Equal(t, masterGold+1, master.Gold)
}

func TestBarracksProduction(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	barracks := p.Grid[3]

	e.runBarracksProduction(p)
	require.Len(t, barracks.Garrison, 1)
	assert.NotEqual(t, CivilianName, barracks.Garrison[0].Name)
	assert.Positive(t, barracks.Garrison[0].Power)
}

func TestBarracksProductionStopsAtCap(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	barracks := p.Grid[3]
	for i := 0; i < BarracksProduceCap; i++ {
		barracks.Garrison = append(barracks.Garrison, Soldier{Name: UnitInfantry, Power: 2})
	}

	e.runBarracksProduction(p)
	assert.Len(t, barracks.Garrison, BarracksProduceCap)
}

func TestFarmGrowthOnlyEveryThirdTurn(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	council := p.Council()
	council.Garrison = council.Garrison[:1]

	e.state.Turn = 4
	e.runFarmGrowth(p)
	assert.Len(t, council.Garrison, 1)

	e.state.Turn = 6
	e.runFarmGrowth(p)
	assert.Len(t, council.Garrison, 2)
}

func TestFarmGrowthAddsOneCivilianRegardlessOfFarmCount(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	p.Grid[5] = &Cell{Type: CellFarm, HP: 3, Power: 2}
	p.Council().Garrison = nil
	e.state.Turn = 3

	e.runFarmGrowth(p)
	assert.Len(t, p.Council().Garrison, 1)
}

func TestFarmGrowthRespectsCivilianCap(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	e.state.Turn = 3

	e.runFarmGrowth(p)
	assert.Len(t, p.Council().Garrison, CouncilCivilianCap)
}

func TestCouncilRepairRestoresCiviliansDPFirst(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	p.Council().Garrison = nil // three missing
	p.DP = 2
	p.Gold = 10

	e.runCouncilRepair(p)
	assert.Len(t, p.Council().Garrison, CouncilCivilianCap)
	// Two heads paid with dp, the third with gold.
	assert.Zero(t, p.DP)
	assert.Equal(t, 8, p.Gold)
}

func TestCouncilRepairStopsWhenBroke(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	p.Council().Garrison = nil
	p.DP = 0
	p.Gold = 3

	e.runCouncilRepair(p)
	assert.Len(t, p.Council().Garrison, 1)
	assert.Equal(t, 1, p.Gold)
}

func TestCouncilRepairFullGarrisonSpendsNothing(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	p.DP = 5
	p.Gold = 10

	e.runCouncilRepair(p)
	assert.Equal(t, 5, p.DP)
	assert.Equal(t, 10, p.Gold)
}

func TestCouncilHPScalesWithCivilianCount(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	council := p.Council()

	council.Garrison = council.Garrison[:2]
	e.refreshCouncilHP(p)
	assert.Equal(t, 7, council.HP)

	council.Garrison = council.Garrison[:1]
	e.refreshCouncilHP(p)
	assert.Equal(t, 5, council.HP)

	council.Garrison = nil
	e.refreshCouncilHP(p)
	assert.Equal(t, 3, council.HP)

	// A full council keeps its current hull, it is not healed back to 10.
	council.Garrison = []Soldier{{Name: CivilianName}, {Name: CivilianName}, {Name: CivilianName}}
	e.refreshCouncilHP(p)
	assert.Equal(t, 3, council.HP)
}

func TestCapacityFormula(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]

	// 1 barracks, food level 0: floor((4+5)*1).
	assert.Equal(t, 9, e.capacity(p))

	p.Technologies.Food = 2 // x3
	assert.Equal(t, 27, e.capacity(p))
}

func TestCapacityEvictsUnitsNotGarrison(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.Players[0]
	barracks := p.Grid[3]
	for i := 0; i < 5; i++ {
		barracks.Garrison = append(barracks.Garrison, Soldier{Name: UnitInfantry, Power: 2, Cost: 2})
	}
	unitSlot := deploy(t, p, UnitCavalry, 4)
	deploy(t, p, UnitArcher, 3)

	// Population: 3 civilians + 5 garrison + 2 units = 10 > capacity 9.
	poolBefore := len(e.state.MercenaryPool)
	e.enforceCapacity(p)

	assert.Nil(t, p.Grid[unitSlot], "first unit in scan order is evicted")
	assert.Len(t, barracks.Garrison, 5)
	assert.Equal(t, poolBefore+1, len(e.state.MercenaryPool))
	assert.LessOrEqual(t, e.population(p), e.capacity(p))
}
