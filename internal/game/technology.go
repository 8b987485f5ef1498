package game

// jokerChoices are the tracks a Joker may advance. Food is deliberately
// excluded; it only advances through its own cards.
var jokerChoices = []TechType{TechMilitary, TechDefense, TechCommerce}

// PlayTechnologyCard researches the technology card at the given hand index.
// Jokers need an explicit track choice; regular cards carry their own. The
// population cost consumes council civilians first, then garrisoned soldiers.
func (e *Engine) PlayTechnologyCard(handIndex int, jokerChoice TechType) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	player := e.state.ActivePlayer()
	if player.ActionsRemaining < 1 {
		return fail("Aksiyon kalmadı!")
	}
	if handIndex < 0 || handIndex >= len(player.Hand) {
		return fail("Geçersiz kart.")
	}
	card := player.Hand[handIndex]
	if card.Type != CardTechnology {
		return fail("Bu bir teknoloji kartı değil.")
	}
	if e.population(player) < card.PopCost {
		return fail("Yetersiz nüfus! Bu araştırma %d kişi gerektirir.", card.PopCost)
	}

	track := card.TechType
	newLevel := card.Level
	if card.IsJoker {
		if !validJokerChoice(jokerChoice) {
			return ActionResult{Msg: "Joker için bir teknoloji dalı seç.", NeedsTarget: true}
		}
		current := player.Technologies.Level(jokerChoice)
		if current >= 4 {
			return fail("Bu dal zaten en üst seviyede.")
		}
		track = jokerChoice
		newLevel = current + 1
	} else if newLevel <= player.Technologies.Level(track) {
		return fail("Bu teknoloji zaten araştırıldı.")
	}

	player.ActionsRemaining--
	player.Hand = append(player.Hand[:handIndex], player.Hand[handIndex+1:]...)
	e.consumePopulation(player, card.PopCost)
	player.Technologies.SetLevel(track, newLevel)

	e.gameLog("%s, %s araştırmasını tamamladı! (%d kişi harcandı)", player.Name, card.Name, card.PopCost)
	e.checkAutoEndTurn()
	return ok()
}

func validJokerChoice(tt TechType) bool {
	for _, c := range jokerChoices {
		if c == tt {
			return true
		}
	}
	return false
}

// consumePopulation removes n people: council civilians first, then soldiers
// out of barracks garrisons. Deployed units are never consumed by research.
// Losing civilians weakens the council hull.
func (e *Engine) consumePopulation(p *Player, n int) {
	if council := p.Council(); council != nil {
		for n > 0 && len(council.Garrison) > 0 {
			council.Garrison = council.Garrison[1:]
			n--
		}
		e.refreshCouncilHP(p)
	}
	for _, c := range p.Grid {
		if n == 0 {
			return
		}
		if c == nil || c.Type != CellBarracks {
			continue
		}
		for n > 0 && len(c.Garrison) > 0 {
			c.Garrison = c.Garrison[1:]
			n--
		}
	}
}
