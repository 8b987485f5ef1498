package game

import "math/rand"

// Dice rolls a single six-sided die. Injectable so tests and replays can
// script outcomes.
type Dice interface {
	Roll() int
}

type d6 struct {
	rng *rand.Rand
}

func (d d6) Roll() int {
	return d.rng.Intn(6) + 1
}

// SetDice swaps the dice source. Intended for tests.
func (e *Engine) SetDice(dice Dice) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dice = dice
}

// SetNextDice pre-seeds the next combat roll. Consumed once, then the engine
// falls back to its dice source. Used when the presentation layer animates a
// roll before asking the engine to resolve it.
func (e *Engine) SetNextDice(attack, defense int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextDice = &DiceRoll{Attack: attack, Defense: defense}
}
