package server

import (
	"fmt"
	"math"
	"net/http"
	"slices"
	"time"

	"devtycoon.app/internal/pricing"
	"devtycoon.app/internal/protocol"
)

const (
	startMoney     = 100
	startEnergy    = 100
	startMaxEnergy = 100
	startLevel     = 1

	xpPerLevel        = 100
	levelUpEnergyGain = 10
)

// Player is the persisted record. Derived values (xp to next level,
// passive income) are computed when a snapshot is taken.
type Player struct {
	Money       int       `json:"money"`
	Energy      int       `json:"energy"`
	MaxEnergy   int       `json:"max_energy"`
	XP          int       `json:"xp"`
	Level       int       `json:"level"`
	Upgrades    []string  `json:"upgrades"`
	JuniorDevs  int       `json:"junior_devs"`
	LastUpdated time.Time `json:"last_updated"`
}

func NewPlayer(now time.Time) Player {
	return Player{
		Money:       startMoney,
		Energy:      startEnergy,
		MaxEnergy:   startMaxEnergy,
		Level:       startLevel,
		Upgrades:    []string{},
		LastUpdated: now.UTC(),
	}
}

// RuleError is a refused action. It maps to a 4xx response carrying
// Code and Message.
type RuleError struct {
	Status  int
	Code    string
	Message string
}

func (e *RuleError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func reject(code, msg string) *RuleError {
	return &RuleError{Status: http.StatusBadRequest, Code: code, Message: msg}
}

// Settle credits passive income earned since the last update. The
// fractional part of the elapsed time is dropped, as is a negative
// elapsed time after a clock step.
func (p *Player) Settle(now time.Time, incomePerHire int) {
	now = now.UTC()
	if p.LastUpdated.IsZero() {
		p.LastUpdated = now
	}
	elapsed := now.Sub(p.LastUpdated).Seconds()
	earned := int(elapsed * float64(p.JuniorDevs*incomePerHire))
	if earned > 0 {
		p.Money += earned
	}
	p.LastUpdated = now
}

func (p Player) Snapshot(incomePerHire int) protocol.PlayerState {
	return protocol.PlayerState{
		Money:         p.Money,
		Energy:        p.Energy,
		MaxEnergy:     p.MaxEnergy,
		XP:            p.XP,
		Level:         p.Level,
		XPToNextLevel: p.Level * xpPerLevel,
		Upgrades:      append([]string{}, p.Upgrades...),
		JuniorDevs:    p.JuniorDevs,
		PassiveIncome: p.JuniorDevs * incomePerHire,
	}
}

func (p Player) owns(id string) bool { return slices.Contains(p.Upgrades, id) }

// moneyMultiplier is the product of the multipliers of owned upgrades.
func (p Player) moneyMultiplier(cat *Catalog) float64 {
	m := 1.0
	for _, id := range p.Upgrades {
		if it, ok := cat.Items[id]; ok && it.MoneyMultiplier > 0 {
			m *= it.MoneyMultiplier
		}
	}
	return m
}

// RunContract spends energy for money and xp. At most one level is
// gained per contract.
func (p *Player) RunContract(cat *Catalog, id string) error {
	def, ok := cat.Contracts[id]
	if !ok {
		return reject(protocol.ErrUnknownContract, "Unknown contract")
	}
	if p.Energy < def.EnergyCost {
		return reject(protocol.ErrNoEnergy, "Not enough energy")
	}
	p.Energy -= def.EnergyCost
	p.Money += int(math.Floor(float64(def.MoneyReward) * p.moneyMultiplier(cat)))
	p.XP += def.XPReward

	need := p.Level * xpPerLevel
	if p.XP >= need {
		p.Level++
		p.XP -= need
		p.MaxEnergy += levelUpEnergyGain
		p.Energy = p.MaxEnergy
	}
	return nil
}

// Price is what the next purchase of id costs the player.
func (p Player) Price(cat *Catalog, id string) (int, bool) {
	it, ok := cat.Items[id]
	if !ok {
		return 0, false
	}
	if it.Kind == protocol.KindStackable {
		return pricing.DynamicCost(it.BaseCost, pricing.GrowthRate, p.JuniorDevs), true
	}
	return it.Cost, true
}

func (p *Player) Buy(cat *Catalog, id string) error {
	it, ok := cat.Items[id]
	if !ok {
		return reject(protocol.ErrUnknownItem, "Unknown item")
	}
	price, _ := p.Price(cat, id)
	if p.Money < price {
		return reject(protocol.ErrNoMoney, "Not enough money")
	}
	switch it.Kind {
	case protocol.KindConsumable:
		p.Money -= price
		if it.RestoresEnergy {
			p.Energy = p.MaxEnergy
		}
	case protocol.KindUpgrade:
		if p.owns(id) {
			return reject(protocol.ErrAlreadyOwned, "You already own this item")
		}
		p.Money -= price
		p.Upgrades = append(p.Upgrades, id)
		p.MaxEnergy += it.MaxEnergyBonus
	case protocol.KindStackable:
		p.Money -= price
		p.JuniorDevs++
	}
	return nil
}
