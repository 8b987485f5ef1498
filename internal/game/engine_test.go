package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestEngine(t *testing.T, playerCount int) *Engine {
	t.Helper()
	e := NewEngine(Config{PlayerCount: playerCount, Seed: 42}, zaptest.NewLogger(t))
	e.Start()
	return e
}

// openPlayField moves past the peace window so attacks are legal.
func openPlayField(e *Engine) {
	e.state.Turn = PeaceWindowTurns + 1
}

// deploy places a unit cell on the first empty slot.
func deploy(t *testing.T, p *Player, unitType string, power int) int {
	t.Helper()
	for i, c := range p.Grid {
		if c == nil {
			p.Grid[i] = &Cell{Type: unitType, HP: 3, Power: power, IsUnit: true}
			return i
		}
	}
	t.Fatal("no empty slot to deploy on")
	return -1
}

func TestStartPlacesStartingKingdoms(t *testing.T) {
	e := newTestEngine(t, 2)

	require.Equal(t, PhasePlaying, e.state.Phase)
	for _, p := range e.state.Players {
		council := p.Council()
		require.NotNil(t, council)
		assert.Equal(t, 10, council.HP)
		assert.Len(t, council.Garrison, CouncilCivilianCap)
		require.NotNil(t, p.Grid[1])
		assert.Equal(t, CellFarm, p.Grid[1].Type)
		require.NotNil(t, p.Grid[3])
		assert.Equal(t, CellBarracks, p.Grid[3].Type)
		assert.Equal(t, 8, p.Gold)
		assert.Equal(t, 1, p.DP)
		assert.Equal(t, ActionsPerTurn, p.ActionsRemaining)
	}
}

func TestBuyCardSpendsGoldAndAction(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	require.NotEmpty(t, e.state.OpenMarket)

	card := e.state.OpenMarket[0]
	p.Gold = card.Cost + 1

	res := e.BuyCard(0)
	require.True(t, res.OK, res.Msg)
	assert.Equal(t, 1, p.Gold)
	assert.Equal(t, ActionsPerTurn-1, p.ActionsRemaining)
	assert.Len(t, p.Hand, 1)
}

func TestBuyCardInsufficientGold(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	p.Gold = 0

	res := e.BuyCard(0)
	require.False(t, res.OK)
	assert.Equal(t, 0, p.Gold)
	assert.Equal(t, ActionsPerTurn, p.ActionsRemaining)
	assert.Empty(t, p.Hand)
}

func TestBuildOnSlotPlacesBuilding(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	p.Hand = append(p.Hand, newCardFrom(buildingTemplates[2])) // Duvar
	e.state.SelectedCard = 0

	res := e.BuildOnSlot(5)
	require.True(t, res.OK, res.Msg)
	require.NotNil(t, p.Grid[5])
	assert.Equal(t, CellWall, p.Grid[5].Type)
	assert.Equal(t, 4, p.Grid[5].HP)
	assert.False(t, p.Grid[5].IsUnit)
	assert.Empty(t, p.Hand)
	assert.Equal(t, -1, e.state.SelectedCard)
}

func TestBuildOnOccupiedSlotFails(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	p.Hand = append(p.Hand, newCardFrom(buildingTemplates[0]))
	e.state.SelectedCard = 0

	res := e.BuildOnSlot(CouncilSlot)
	require.False(t, res.OK)
	assert.Len(t, p.Hand, 1)
	assert.Equal(t, ActionsPerTurn, p.ActionsRemaining)
}

func TestBuildMilitaryCardPlacesUnit(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	p.Hand = append(p.Hand, newCardFrom(militaryTemplates[0])) // Piyade
	e.state.SelectedCard = 0

	res := e.BuildOnSlot(2)
	require.True(t, res.OK, res.Msg)
	require.NotNil(t, p.Grid[2])
	assert.True(t, p.Grid[2].IsUnit)
	assert.Equal(t, UnitInfantry, p.Grid[2].Type)
}

func TestDemolishBuilding(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()

	res := e.DemolishBuilding(1)
	require.True(t, res.OK, res.Msg)
	assert.Nil(t, p.Grid[1])
	assert.Equal(t, ActionsPerTurn-1, p.ActionsRemaining)
}

func TestDemolishCouncilFails(t *testing.T) {
	e := newTestEngine(t, 2)

	res := e.DemolishBuilding(CouncilSlot)
	require.False(t, res.OK)
	assert.NotNil(t, e.state.ActivePlayer().Council())
}

func TestDemolishUnitFails(t *testing.T) {
	e := newTestEngine(t, 2)
	p := e.state.ActivePlayer()
	slot := deploy(t, p, UnitInfantry, 2)

	res := e.DemolishBuilding(slot)
	require.False(t, res.OK)
	assert.NotNil(t, p.Grid[slot])
}

func TestSetActionModeAttackNeedsMilitary(t *testing.T) {
	e := newTestEngine(t, 2)

	res := e.SetActionMode(ModeAttack)
	require.False(t, res.OK)
	assert.Equal(t, ModeNone, e.state.ActionMode)

	deploy(t, e.state.ActivePlayer(), UnitInfantry, 2)
	res = e.SetActionMode(ModeAttack)
	require.True(t, res.OK, res.Msg)
	assert.Equal(t, ModeAttack, e.state.ActionMode)
}

func TestClearActionModeIdempotent(t *testing.T) {
	e := newTestEngine(t, 2)

	e.ClearActionMode()
	assert.Equal(t, ModeNone, e.state.ActionMode)
	e.ClearActionMode()
	assert.Equal(t, ModeNone, e.state.ActionMode)
}

func TestSelectHandCardToggles(t *testing.T) {
	e := newTestEngine(t, 2)

	e.SelectHandCard(0)
	assert.Equal(t, 0, e.state.SelectedCard)
	e.SelectHandCard(0)
	assert.Equal(t, -1, e.state.SelectedCard)
}

func TestViewSharesNoMemory(t *testing.T) {
	e := newTestEngine(t, 2)
	v := e.View()

	require.Len(t, v.Players, 2)
	v.Players[0].Grid[CouncilSlot].HP = 0
	assert.Equal(t, 10, e.state.Players[0].Council().HP)

	assert.Equal(t, "OYUN", v.Phase)
	assert.Equal(t, e.state.ActivePlayer().ID, v.ActivePlayer)
}
