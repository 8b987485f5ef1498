package game

// requiredMarketTypes is the coverage order for the first refill pass: the
// open market tries to show one card of each type before anything else.
var requiredMarketTypes = []CardType{CardBuilding, CardMilitary, CardDiplomacy, CardTechnology}

// refillMarket tops the open market back up to MarketSlots. The first pass
// guarantees type coverage from the draw pile; the second pass fills leftover
// slots from the mercenary pool, which is exempt from the one-per-type rule.
func (e *Engine) refillMarket() {
	player := e.state.ActivePlayer()

	present := map[CardType]bool{}
	for _, c := range e.state.OpenMarket {
		if c.Type != CardMercenary {
			present[c.Type] = true
		}
	}

	for _, want := range requiredMarketTypes {
		if len(e.state.OpenMarket) >= MarketSlots {
			break
		}
		if present[want] {
			continue
		}
		if card := e.drawCardOfType(want, player); card != nil {
			e.state.OpenMarket = append(e.state.OpenMarket, card)
			present[want] = true
		}
	}

	for len(e.state.OpenMarket) < MarketSlots && len(e.state.MercenaryPool) > 0 {
		merc := e.state.MercenaryPool[0]
		e.state.MercenaryPool = e.state.MercenaryPool[1:]
		e.state.OpenMarket = append(e.state.OpenMarket, merc)
	}
}

// drawCardOfType removes and returns the first eligible deck card of the given
// type. Technology eligibility is judged against the given player: only the
// next level of a track may surface, levels already reached are discarded from
// the deck outright, and a tech card the player already holds unplayed is
// skipped. Jokers are always eligible.
func (e *Engine) drawCardOfType(want CardType, player *Player) *Card {
	for i := 0; i < len(e.state.Deck); {
		card := e.state.Deck[i]
		if card.Type != want {
			i++
			continue
		}
		if card.Type == CardTechnology && !card.IsJoker {
			current := player.Technologies.Level(card.TechType)
			if card.Level <= current {
				// Obsolete for everyone who could see it now; drop it.
				e.state.Deck = append(e.state.Deck[:i], e.state.Deck[i+1:]...)
				continue
			}
			if card.Level != current+1 || e.holdsCardNamed(player, card.Name) {
				i++
				continue
			}
		}
		e.state.Deck = append(e.state.Deck[:i], e.state.Deck[i+1:]...)
		return card
	}
	return nil
}

func (e *Engine) holdsCardNamed(player *Player, name string) bool {
	for _, c := range player.Hand {
		if c.Name == name {
			return true
		}
	}
	return false
}

// RefreshMarket recycles the open market back into the draw pile and refills
// it. Mercenary cards stay put: they have no home in the deck. Capped per
// turn; the cap resets on turn transition.
func (e *Engine) RefreshMarket() ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	player := e.state.ActivePlayer()
	if player.MarketRefreshes >= MarketRefreshLimit {
		return fail("Pazar yenileme hakkın doldu! (Tur başına %d)", MarketRefreshLimit)
	}

	kept := e.state.OpenMarket[:0]
	for _, c := range e.state.OpenMarket {
		if c.Type == CardMercenary {
			kept = append(kept, c)
		} else {
			e.state.Deck = append(e.state.Deck, c)
		}
	}
	e.state.OpenMarket = kept
	player.MarketRefreshes++
	e.refillMarket()

	e.gameLog("%s pazarı yeniledi. (%d/%d)", player.Name, player.MarketRefreshes, MarketRefreshLimit)
	return ok()
}
