package ui

import _ "embed"

// Element ids the renderer writes to.
const (
	idMoney         = "money"
	idEnergy        = "energy"
	idEnergyBar     = "energy-bar"
	idLevel         = "level"
	idXP            = "xp"
	idXPBar         = "xp-bar"
	idPassiveIncome = "passive-income"
	idJuniorDevs    = "junior-devs"
	idContractsList = "contracts-list"
	idStoreList     = "store-list"
	idFeedbackLog   = "feedback-log"
	idResetButton   = "reset-button"
)

const (
	classActionButton = "action-button"
	classDescription  = "button-description"
	classFeedback     = "feedback-entry"

	attrContractID = "data-id"
	attrItemID     = "data-item-id"
	attrOwned      = "data-owned"
)

//go:embed page.html
var defaultPage string

// ContractButtonID is the element id of a contract's button.
func ContractButtonID(contractID string) string { return "contract-" + contractID }

// StoreButtonID is the element id of a store item's button.
func StoreButtonID(itemID string) string { return "store-" + itemID }

// ResetButtonID is the element id of the reset control.
const ResetButtonID = idResetButton
