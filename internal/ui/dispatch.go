package ui

import (
	"context"
	"fmt"

	"devtycoon.app/internal/gameapi"
	"devtycoon.app/internal/protocol"
)

const resetPrompt = "Are you sure you want to reset all progress? This cannot be undone."

// RunContract, PurchaseItem and ResetProgress start an action without
// going through a button, so the disabled state of controls is not
// consulted. The returned channel closes once the action has settled.
func (c *Controller) RunContract(id string) <-chan struct{} {
	return c.dispatch(func(done func()) { c.runContract(id, done) })
}

func (c *Controller) PurchaseItem(id string) <-chan struct{} {
	return c.dispatch(func(done func()) { c.purchaseItem(id, done) })
}

func (c *Controller) ResetProgress() <-chan struct{} {
	return c.dispatch(c.resetProgress)
}

func (c *Controller) dispatch(action func(done func())) <-chan struct{} {
	done := make(chan struct{})
	c.post(func() { action(func() { close(done) }) })
	return done
}

func (c *Controller) runContract(id string, done func()) {
	c.disableAllControls(true)
	await(c, func(ctx context.Context) (protocol.PlayerState, error) {
		return c.api.DoContract(ctx, id)
	}, func(st protocol.PlayerState, err error) {
		defer done()
		defer c.settleControls()
		if err != nil {
			c.reportActionError("run contract", err, "Connection error while running the contract.")
			return
		}
		c.store.replace(st)
		name := id
		if def, ok := c.defs.contract(id); ok {
			name = def.Name
		}
		c.logFeedback(fmt.Sprintf("Contract %q completed!", name))
		c.refreshHUD()
	})
}

func (c *Controller) purchaseItem(id string, done func()) {
	if id == "" {
		c.logFeedback("Error: invalid purchase attempt.")
		done()
		return
	}
	c.disableAllControls(true)
	await(c, func(ctx context.Context) (protocol.PlayerState, error) {
		return c.api.BuyItem(ctx, id)
	}, func(st protocol.PlayerState, err error) {
		defer done()
		defer c.settleControls()
		if err != nil {
			c.reportActionError("buy item", err, "Connection error while buying the item.")
			return
		}
		c.store.replace(st)
		name := id
		if def, ok := c.defs.item(id); ok {
			name = def.Name
		}
		c.logFeedback(fmt.Sprintf("Bought %q!", name))
		c.refreshHUD()
	})
}

// resetProgress asks for confirmation first. A declined prompt sends
// nothing and leaves the controls alone.
func (c *Controller) resetProgress(done func()) {
	await(c, func(ctx context.Context) (bool, error) {
		return c.confirm.Confirm(ctx, resetPrompt), nil
	}, func(ok bool, _ error) {
		if !ok {
			done()
			return
		}
		c.disableAllControls(true)
		await(c, c.api.ResetGame, func(st protocol.PlayerState, err error) {
			defer done()
			defer c.settleControls()
			if err != nil {
				if _, rejected := gameapi.IsRejected(err); rejected {
					c.log.Printf("reset game: %v", err)
					c.logFeedback("Error: could not reset the game.")
					return
				}
				c.reportActionError("reset game", err, "Connection error while resetting the game.")
				return
			}
			c.store.replace(st)
			c.renderStore()
			c.logFeedback("Game reset! You are starting over.")
			c.refreshHUD()
		})
	})
}

// reportActionError shows a server rejection verbatim and anything else
// as the generic connection message.
func (c *Controller) reportActionError(op string, err error, connMsg string) {
	c.log.Printf("%s: %v", op, err)
	if rej, ok := gameapi.IsRejected(err); ok {
		msg := rej.Message
		if msg == "" {
			msg = "request rejected"
		}
		c.logFeedback("Error: " + msg)
		return
	}
	c.logFeedback(connMsg)
}
