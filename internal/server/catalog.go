package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"devtycoon.app/internal/protocol"
)

// ItemSpec is a store item together with the effects only the server
// needs to know about.
type ItemSpec struct {
	protocol.StoreItemDef `yaml:",inline"`

	RestoresEnergy  bool    `yaml:"restores_energy,omitempty"`
	MaxEnergyBonus  int     `yaml:"max_energy_bonus,omitempty"`
	MoneyMultiplier float64 `yaml:"money_multiplier,omitempty"`
	IncomePerSecond int     `yaml:"income_per_second,omitempty"`
}

type Catalog struct {
	Contracts map[string]protocol.ContractDef `yaml:"contracts"`
	Items     map[string]ItemSpec            `yaml:"store_items"`

	defs   protocol.Definitions
	digest string
	hireID string
}

func DefaultCatalog() *Catalog {
	c := &Catalog{
		Contracts: map[string]protocol.ContractDef{
			"fix_bug":       {Name: "Fix a Bug", EnergyCost: 10, MoneyReward: 50, XPReward: 10},
			"build_website": {Name: "Build a Simple Website", EnergyCost: 30, MoneyReward: 200, XPReward: 50},
			"data_analysis": {Name: "Analyze Data", EnergyCost: 50, MoneyReward: 450, XPReward: 100},
		},
		Items: map[string]ItemSpec{
			"coffee": {
				StoreItemDef:   protocol.StoreItemDef{Name: "Coffee", EffectDescription: "Restores all energy", Cost: 25, Kind: protocol.KindConsumable},
				RestoresEnergy: true,
			},
			"ergonomic_chair": {
				StoreItemDef:   protocol.StoreItemDef{Name: "Ergonomic Chair", EffectDescription: "+25 max energy", Cost: 300, Kind: protocol.KindUpgrade},
				MaxEnergyBonus: 25,
			},
			"faster_pc": {
				StoreItemDef:    protocol.StoreItemDef{Name: "Faster PC", EffectDescription: "+50% money per contract", Cost: 1000, Kind: protocol.KindUpgrade},
				MoneyMultiplier: 1.5,
			},
			"dev_junior": {
				StoreItemDef:    protocol.StoreItemDef{Name: "Hire Junior Dev", EffectDescription: "Earns $10/sec automatically", BaseCost: 500, Kind: protocol.KindStackable},
				IncomePerSecond: 10,
			},
		},
	}
	if err := c.finalize(); err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a catalog from YAML. The file replaces the built-in
// catalog entirely.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.finalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func (c *Catalog) finalize() error {
	if len(c.Contracts) == 0 {
		return fmt.Errorf("catalog has no contracts")
	}
	for _, id := range slices.Sorted(maps.Keys(c.Contracts)) {
		def := c.Contracts[id]
		if def.Name == "" {
			return fmt.Errorf("contract %s: missing name", id)
		}
		if def.EnergyCost < 0 || def.MoneyReward < 0 || def.XPReward < 0 {
			return fmt.Errorf("contract %s: negative value", id)
		}
	}
	c.hireID = ""
	for _, id := range slices.Sorted(maps.Keys(c.Items)) {
		it := c.Items[id]
		if it.Name == "" {
			return fmt.Errorf("store item %s: missing name", id)
		}
		switch it.Kind {
		case protocol.KindConsumable, protocol.KindUpgrade:
			if it.Cost <= 0 {
				return fmt.Errorf("store item %s: %s needs a positive cost", id, it.Kind)
			}
		case protocol.KindStackable:
			if it.BaseCost <= 0 || it.Cost != 0 {
				return fmt.Errorf("store item %s: stackable needs base_cost and no cost", id)
			}
			if c.hireID != "" {
				return fmt.Errorf("store item %s: only one stackable item is supported (already %s)", id, c.hireID)
			}
			c.hireID = id
		default:
			return fmt.Errorf("store item %s: unknown kind %q", id, it.Kind)
		}
		if it.MoneyMultiplier < 0 || it.MaxEnergyBonus < 0 || it.IncomePerSecond < 0 {
			return fmt.Errorf("store item %s: negative effect", id)
		}
	}

	c.defs = protocol.Definitions{
		Contracts:  maps.Clone(c.Contracts),
		StoreItems: make(map[string]protocol.StoreItemDef, len(c.Items)),
	}
	for id, it := range c.Items {
		c.defs.StoreItems[id] = it.StoreItemDef
	}
	// encoding/json writes map keys sorted, so this is canonical.
	b, err := json.Marshal(c.defs)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	c.digest = hex.EncodeToString(sum[:])
	return nil
}

// Definitions is the client-facing view of the catalog.
func (c *Catalog) Definitions() protocol.Definitions { return c.defs }

// Digest is the sha256 of the canonical definitions JSON.
func (c *Catalog) Digest() string { return c.digest }

// IncomePerHire is the passive income one stackable hire earns per
// second, zero when the catalog has no stackable item.
func (c *Catalog) IncomePerHire() int {
	if c.hireID == "" {
		return 0
	}
	return c.Items[c.hireID].IncomePerSecond
}
