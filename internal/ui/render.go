package ui

import (
	"fmt"
	"math"
	"strconv"

	"devtycoon.app/internal/dom"
	"devtycoon.app/internal/pricing"
)

// renderContracts rebuilds the contract buttons from the cache.
func (c *Controller) renderContracts() {
	list := c.doc.ByID(idContractsList)
	list.Clear()
	for _, id := range c.defs.contractIDs() {
		def, _ := c.defs.contract(id)
		btn := c.doc.Create("button",
			"class", classActionButton,
			"id", ContractButtonID(id),
			attrContractID, id,
		)
		setLabel(c.doc, btn, def.Name, fmt.Sprintf("Cost: %d energy | Reward: $%d, %d XP", def.EnergyCost, def.MoneyReward, def.XPReward))
		c.doc.OnClick(btn, func() { c.runContract(id, c.takeDone()) })
		list.Append(btn)
	}
	c.dirty = true
	c.recomputeButtonStates()
}

// renderStore rebuilds the store buttons from the cache, none of them
// marked owned.
func (c *Controller) renderStore() {
	list := c.doc.ByID(idStoreList)
	list.Clear()
	for _, id := range c.defs.itemIDs() {
		def, _ := c.defs.item(id)
		btn := c.doc.Create("button",
			"class", classActionButton,
			"id", StoreButtonID(id),
			attrItemID, id,
		)
		price := def.Cost
		if price == 0 {
			price = def.BaseCost
		}
		setLabel(c.doc, btn, def.Name, storeDescription(price, def.EffectDescription))
		c.doc.OnClick(btn, func() { c.purchaseItem(id, c.takeDone()) })
		list.Append(btn)
	}
	c.dirty = true
	c.recomputeButtonStates()
}

// refreshHUD writes the current snapshot into the stat panel and then
// recomputes every button.
func (c *Controller) refreshHUD() {
	st, ok := c.store.current()
	if !ok {
		return
	}
	c.doc.ByID(idMoney).SetText(fmt.Sprintf("$%d", st.Money))
	c.doc.ByID(idEnergy).SetText(fmt.Sprintf("%d / %d", st.Energy, st.MaxEnergy))
	c.doc.ByID(idEnergyBar).SetStyle("width", barWidth(st.Energy, st.MaxEnergy))
	c.doc.ByID(idLevel).SetText(strconv.Itoa(st.Level))
	c.doc.ByID(idXP).SetText(fmt.Sprintf("%d / %d", st.XP, st.XPToNextLevel))
	c.doc.ByID(idXPBar).SetStyle("width", barWidth(st.XP, st.XPToNextLevel))
	c.doc.ByID(idPassiveIncome).SetText(fmt.Sprintf("($%d / sec)", st.PassiveIncome))
	c.doc.ByID(idJuniorDevs).SetText(strconv.Itoa(st.JuniorDevs))
	c.dirty = true
	c.recomputeButtonStates()
}

// recomputeButtonStates derives every button's enabled state and label
// from the snapshot. It does nothing before the first snapshot arrives.
func (c *Controller) recomputeButtonStates() {
	st, ok := c.store.current()
	if !ok {
		return
	}
	for _, btn := range c.doc.ByID(idContractsList).Find(isContractButton) {
		id, _ := btn.Attr(attrContractID)
		def, ok := c.defs.contract(id)
		if !ok {
			continue
		}
		btn.SetDisabled(st.Energy < def.EnergyCost)
	}
	for _, btn := range c.doc.ByID(idStoreList).Find(isStoreButton) {
		id, _ := btn.Attr(attrItemID)
		def, ok := c.defs.item(id)
		if !ok {
			continue
		}
		switch {
		case def.Stackable():
			price := pricing.DynamicCost(def.BaseCost, pricing.GrowthRate, st.JuniorDevs)
			setLabel(c.doc, btn, fmt.Sprintf("%s (%d hired)", def.Name, st.JuniorDevs), storeDescription(price, def.EffectDescription))
			btn.SetDisabled(st.Money < price)
		case btn.HasAttr(attrOwned) || st.Owns(id):
			// Owned stays owned until renderStore rebuilds the list, even
			// if a later snapshot no longer lists the upgrade.
			btn.SetDisabled(true)
			btn.SetAttr(attrOwned, "true")
			setLabel(c.doc, btn, def.Name+" (Owned)", storeDescription(def.Cost, def.EffectDescription))
			btn.FirstByClass(classDescription).SetStyle("display", "none")
		default:
			setLabel(c.doc, btn, def.Name, storeDescription(def.Cost, def.EffectDescription))
			btn.SetDisabled(st.Money < def.Cost)
		}
	}
	c.doc.ByID(idResetButton).SetDisabled(false)
	c.dirty = true
}

// disableAllControls flips every action button and the reset control.
// Buttons marked owned keep their state.
func (c *Controller) disableAllControls(disabled bool) {
	for _, btn := range c.doc.All(isActionButton) {
		if btn.HasAttr(attrOwned) {
			continue
		}
		btn.SetDisabled(disabled)
	}
	c.doc.ByID(idResetButton).SetDisabled(disabled)
	c.dirty = true
}

// settleControls is the cleanup every action ends with. Without a
// snapshot there is nothing to derive states from, so everything is
// simply re-enabled.
func (c *Controller) settleControls() {
	if _, ok := c.store.current(); !ok {
		c.disableAllControls(false)
		return
	}
	c.recomputeButtonStates()
}

func setLabel(doc *dom.Document, btn *dom.Element, name, desc string) {
	btn.Clear()
	btn.AppendText(name)
	span := doc.Create("span", "class", classDescription)
	span.AppendText(desc)
	btn.Append(span)
}

func storeDescription(price int, effect string) string {
	return fmt.Sprintf("Cost: $%d | Effect: %s", price, effect)
}

// barWidth formats a progress bar width with at most two decimals.
func barWidth(cur, limit int) string {
	p := math.Round(pricing.Percent(cur, limit)*100) / 100
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

func isContractButton(e *dom.Element) bool { return e.Tag() == "button" && e.HasAttr(attrContractID) }
func isStoreButton(e *dom.Element) bool    { return e.Tag() == "button" && e.HasAttr(attrItemID) }
func isActionButton(e *dom.Element) bool   { return isContractButton(e) || isStoreButton(e) }
