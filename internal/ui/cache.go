package ui

import (
	"maps"
	"slices"

	"devtycoon.app/internal/protocol"
)

// definitionsCache holds the catalog fetched once at startup. It stays
// empty when that fetch fails.
type definitionsCache struct {
	contracts map[string]protocol.ContractDef
	items     map[string]protocol.StoreItemDef
}

func (d *definitionsCache) set(defs protocol.Definitions) {
	d.contracts = maps.Clone(defs.Contracts)
	d.items = maps.Clone(defs.StoreItems)
}

func (d *definitionsCache) contract(id string) (protocol.ContractDef, bool) {
	def, ok := d.contracts[id]
	return def, ok
}

func (d *definitionsCache) item(id string) (protocol.StoreItemDef, bool) {
	def, ok := d.items[id]
	return def, ok
}

func (d *definitionsCache) contractIDs() []string { return slices.Sorted(maps.Keys(d.contracts)) }
func (d *definitionsCache) itemIDs() []string     { return slices.Sorted(maps.Keys(d.items)) }

func (d *definitionsCache) snapshot() protocol.Definitions {
	return protocol.Definitions{
		Contracts:  maps.Clone(d.contracts),
		StoreItems: maps.Clone(d.items),
	}
}

// loadDefinitions fetches the catalog once and renders both button
// lists. A failure leaves the cache empty and is not retried.
func (c *Controller) loadDefinitions(next func()) {
	await(c, c.api.Definitions, func(defs protocol.Definitions, err error) {
		if err != nil {
			c.log.Printf("load definitions: %v", err)
			c.logFeedback("Could not load game definitions.")
		} else {
			c.defs.set(defs)
			c.renderContracts()
			c.renderStore()
		}
		if next != nil {
			next()
		}
	})
}

