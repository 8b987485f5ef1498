package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// CardType classifies a card.
type CardType int

const (
	CardBuilding CardType = iota
	CardMilitary
	CardDiplomacy
	CardTechnology
	CardMercenary
)

func (t CardType) String() string {
	switch t {
	case CardBuilding:
		return "Bina"
	case CardMilitary:
		return "Asker"
	case CardDiplomacy:
		return "Diplomasi"
	case CardTechnology:
		return "Teknoloji"
	case CardMercenary:
		return "Paralı Asker"
	default:
		return "UNKNOWN"
	}
}

// Effect is the closed set of diplomacy card effects. Dispatch is exhaustive
// over this enum; there is no string matching on card data.
type Effect int

const (
	EffectNone Effect = iota
	EffectGoldBoost
	EffectMilitaryBoost
	EffectWhiteFlag
	EffectStealCard
	EffectStealUnit
	EffectBreakAlliance
	EffectAssassination
	EffectRepairBuilding
	EffectTerrorJoker
)

func (e Effect) String() string {
	switch e {
	case EffectGoldBoost:
		return "gold_boost"
	case EffectMilitaryBoost:
		return "military_boost"
	case EffectWhiteFlag:
		return "white_flag"
	case EffectStealCard:
		return "steal_card"
	case EffectStealUnit:
		return "steal_unit"
	case EffectBreakAlliance:
		return "break_alliance"
	case EffectAssassination:
		return "assassination"
	case EffectRepairBuilding:
		return "repair_building"
	case EffectTerrorJoker:
		return "terror_joker"
	default:
		return ""
	}
}

// NeedsTarget reports whether the effect requires an opposing player.
func (e Effect) NeedsTarget() bool {
	switch e {
	case EffectNone, EffectGoldBoost, EffectMilitaryBoost, EffectWhiteFlag, EffectRepairBuilding:
		return false
	default:
		return true
	}
}

// Card is one purchasable instance. Only the fields relevant to its type are
// populated.
type Card struct {
	ID   string
	Name string
	Type CardType
	Cost int

	// Buildings and units.
	HP    int
	Power int

	// Diplomacy.
	DP          int
	Effect      Effect
	Duration    int
	MinMilitary int

	// Technology.
	TechType TechType
	Level    int
	PopCost  int
	IsJoker  bool
}

// Card templates. Instances are stamped with fresh ids at deck-build time.
var buildingTemplates = []Card{
	{Name: CellFarm, Type: CardBuilding, Cost: 3, HP: 3, Power: 2},
	{Name: CellBarracks, Type: CardBuilding, Cost: 4, HP: 3, Power: 3},
	{Name: CellWall, Type: CardBuilding, Cost: 2, HP: 4, Power: 5},
	{Name: CellMarket, Type: CardBuilding, Cost: 3, HP: 3, Power: 2},
}

var militaryTemplates = []Card{
	{Name: UnitInfantry, Type: CardMilitary, Cost: 2, Power: 2, HP: 3},
	{Name: UnitArcher, Type: CardMilitary, Cost: 3, Power: 3, HP: 4},
	{Name: UnitCavalry, Type: CardMilitary, Cost: 4, Power: 4, HP: 5},
}

var diplomacyTemplates = []Card{
	{Name: "Casusluk", Type: CardDiplomacy, Cost: 3, DP: 2, Effect: EffectStealCard},
	{Name: "Propaganda", Type: CardDiplomacy, Cost: 4, DP: 3, Effect: EffectStealUnit},
	{Name: "Suikast", Type: CardDiplomacy, Cost: 15, DP: 8, Effect: EffectAssassination},
	{Name: "Askeri Gösteri", Type: CardDiplomacy, Cost: 3, DP: 2, Effect: EffectMilitaryBoost},
	{Name: "Nifak Tohumu", Type: CardDiplomacy, Cost: 15, DP: 3, Effect: EffectBreakAlliance, MinMilitary: 20},
	{Name: "Vergi Toplama", Type: CardDiplomacy, Cost: 2, DP: 1, Effect: EffectGoldBoost},
	{Name: "Mimari Onarım", Type: CardDiplomacy, Cost: 4, DP: 2, Effect: EffectRepairBuilding},
	{Name: "Sabotaj", Type: CardDiplomacy, Cost: 8, DP: 2, Effect: EffectTerrorJoker},
	{Name: "Beyaz Bayrak (1 Tur)", Type: CardDiplomacy, Cost: 3, DP: 1, Effect: EffectWhiteFlag, Duration: 1},
	{Name: "Beyaz Bayrak (2 Tur)", Type: CardDiplomacy, Cost: 5, DP: 2, Effect: EffectWhiteFlag, Duration: 2},
}

var technologyTemplates = []Card{
	{Name: "Silah I", Type: CardTechnology, Cost: 5, PopCost: 2, TechType: TechMilitary, Level: 1},
	{Name: "Silah II", Type: CardTechnology, Cost: 10, PopCost: 3, TechType: TechMilitary, Level: 2},
	{Name: "Silah III", Type: CardTechnology, Cost: 15, PopCost: 4, TechType: TechMilitary, Level: 3},
	{Name: "Silah IV", Type: CardTechnology, Cost: 25, PopCost: 5, TechType: TechMilitary, Level: 4},

	{Name: "Savunma I", Type: CardTechnology, Cost: 5, PopCost: 2, TechType: TechDefense, Level: 1},
	{Name: "Savunma II", Type: CardTechnology, Cost: 10, PopCost: 3, TechType: TechDefense, Level: 2},
	{Name: "Savunma III", Type: CardTechnology, Cost: 15, PopCost: 4, TechType: TechDefense, Level: 3},
	{Name: "Savunma IV", Type: CardTechnology, Cost: 25, PopCost: 5, TechType: TechDefense, Level: 4},

	{Name: "Ticaret I", Type: CardTechnology, Cost: 5, PopCost: 2, TechType: TechCommerce, Level: 1},
	{Name: "Ticaret II", Type: CardTechnology, Cost: 10, PopCost: 3, TechType: TechCommerce, Level: 2},
	{Name: "Ticaret III", Type: CardTechnology, Cost: 15, PopCost: 4, TechType: TechCommerce, Level: 3},
	{Name: "Ticaret IV", Type: CardTechnology, Cost: 25, PopCost: 5, TechType: TechCommerce, Level: 4},
}

var jokerTemplate = Card{Name: "Joker", Type: CardTechnology, Cost: 10, PopCost: 2, TechType: TechJoker, IsJoker: true}

// Per-head deck quantities. Totals for a 2-player session match the original
// deck (16/20/18/8 plus 2 Jokers).
const (
	buildingsPerPlayer  = 8
	militaryPerPlayer   = 10
	diplomacyPerPlayer  = 9
	technologyPerPlayer = 4
	jokerCount          = 2
)

func newCardFrom(template Card) *Card {
	c := template
	c.ID = uuid.New().String()
	return &c
}

// BuildDeck assembles and shuffles a draw pile scaled to the player count.
func BuildDeck(playerCount int, rng *rand.Rand) []*Card {
	deck := make([]*Card, 0, playerCount*(buildingsPerPlayer+militaryPerPlayer+diplomacyPerPlayer+technologyPerPlayer)+jokerCount)

	for i := 0; i < playerCount*buildingsPerPlayer; i++ {
		deck = append(deck, newCardFrom(buildingTemplates[rng.Intn(len(buildingTemplates))]))
	}
	for i := 0; i < playerCount*militaryPerPlayer; i++ {
		deck = append(deck, newCardFrom(militaryTemplates[rng.Intn(len(militaryTemplates))]))
	}
	for i := 0; i < playerCount*diplomacyPerPlayer; i++ {
		deck = append(deck, newCardFrom(diplomacyTemplates[rng.Intn(len(diplomacyTemplates))]))
	}
	for i := 0; i < playerCount*technologyPerPlayer; i++ {
		deck = append(deck, newCardFrom(technologyTemplates[rng.Intn(len(technologyTemplates))]))
	}
	for i := 0; i < jokerCount; i++ {
		deck = append(deck, newCardFrom(jokerTemplate))
	}

	// Fisher-Yates.
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}

	return deck
}

// mercenaryCard wraps a displaced soldier as a purchasable market card.
func mercenaryCard(s Soldier) *Card {
	cost := s.Cost
	if cost == 0 {
		cost = 3
	}
	return &Card{
		ID:    uuid.New().String(),
		Name:  s.Name,
		Type:  CardMercenary,
		Cost:  cost,
		Power: s.Power,
		HP:    3,
	}
}

// unitCost looks up the catalog cost of a soldier type, for re-sale pricing.
func unitCost(name string) int {
	for _, t := range militaryTemplates {
		if t.Name == name {
			return t.Cost
		}
	}
	return 0
}

// soldierFromTemplate returns the garrison form of a military card template.
func soldierFromTemplate(c Card) Soldier {
	return Soldier{Name: c.Name, Power: c.Power, Cost: c.Cost}
}

// DeckCounts reports remaining draw-pile cards per card type, for display.
func (gs *GameState) DeckCounts() map[string]int {
	counts := map[string]int{
		CardBuilding.String():   0,
		CardMilitary.String():   0,
		CardDiplomacy.String():  0,
		CardTechnology.String(): 0,
	}
	for _, c := range gs.Deck {
		counts[c.Type.String()]++
	}
	return counts
}
