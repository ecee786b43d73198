package protocol

import "slices"

type ContractDef struct {
	Name        string `json:"name" yaml:"name"`
	EnergyCost  int    `json:"energy_cost" yaml:"energy_cost"`
	MoneyReward int    `json:"money_reward" yaml:"money_reward"`
	XPReward    int    `json:"xp_reward" yaml:"xp_reward"`
}

type StoreItemDef struct {
	Name              string `json:"name" yaml:"name"`
	EffectDescription string `json:"effect_description" yaml:"effect_description"`
	Cost              int    `json:"cost,omitempty" yaml:"cost,omitempty"`
	BaseCost          int    `json:"base_cost,omitempty" yaml:"base_cost,omitempty"`
	Kind              string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Stackable reports whether the item is bought repeatedly at a price that
// grows with the owned count. Servers that predate the kind field only
// mark stackables by giving them a base cost and no fixed cost.
func (d StoreItemDef) Stackable() bool {
	if d.Kind != "" {
		return d.Kind == KindStackable
	}
	return d.BaseCost > 0 && d.Cost == 0
}

// Definitions is the static catalog served once per session.
type Definitions struct {
	Contracts  map[string]ContractDef  `json:"contracts" yaml:"contracts"`
	StoreItems map[string]StoreItemDef `json:"store_items" yaml:"store_items"`
}

// PlayerState is always sent as a complete snapshot.
type PlayerState struct {
	Money         int      `json:"money"`
	Energy        int      `json:"energy"`
	MaxEnergy     int      `json:"max_energy"`
	XP            int      `json:"xp"`
	Level         int      `json:"level"`
	XPToNextLevel int      `json:"xp_to_next_level"`
	Upgrades      []string `json:"upgrades"`
	JuniorDevs    int      `json:"junior_devs"`
	PassiveIncome int      `json:"passive_income"`
}

func (s PlayerState) Owns(itemID string) bool {
	return slices.Contains(s.Upgrades, itemID)
}

// ContractReq is the body of PathDoContract.
type ContractReq struct {
	ContractID string `json:"contract_id"`
}

// PurchaseReq is the body of PathBuyItem.
type PurchaseReq struct {
	ItemID string `json:"item_id"`
}

// ActionResponse answers every mutating request. On success NewState holds
// the authoritative snapshot; on failure Error carries a user-facing
// message and Code one of the E_* codes.
type ActionResponse struct {
	Success  bool         `json:"success,omitempty"`
	NewState *PlayerState `json:"new_state,omitempty"`
	Error    string       `json:"error,omitempty"`
	Code     string       `json:"code,omitempty"`
}
