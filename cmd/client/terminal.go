package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"devtycoon.app/internal/dom"
	"devtycoon.app/internal/ui"
)

const helpText = `commands:
  contract <id>   run a contract
  buy <id>        buy a store item
  reset           reset all progress
  show            print the current state
  log             print recent messages
  html            print the rendered page
  quit`

// terminal drives the controller from stdin and doubles as its
// Confirmer.
type terminal struct {
	out   io.Writer
	lines <-chan string
}

func (t *terminal) Confirm(ctx context.Context, prompt string) bool {
	fmt.Fprintf(t.out, "%s [y/N] ", prompt)
	select {
	case <-ctx.Done():
		return false
	case line, ok := <-t.lines:
		if !ok {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// exec runs one command line. It reports false when the user quits.
func (t *terminal) exec(ctx context.Context, c *ui.Controller, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		t.show(ctx, c)
		return true
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return false
	case "help", "?":
		fmt.Fprintln(t.out, helpText)
	case "show", "s":
		t.show(ctx, c)
	case "log":
		_ = c.View(ctx, func(f ui.Frame) {
			for _, m := range f.Feedback {
				fmt.Fprintln(t.out, "  "+m)
			}
		})
	case "html":
		_ = c.View(ctx, func(f ui.Frame) {
			fmt.Fprintln(t.out, f.Doc.String())
		})
	case "contract", "c", "buy", "b":
		if len(fields) != 2 {
			fmt.Fprintln(t.out, "usage: "+fields[0]+" <id>")
			return true
		}
		id := ui.ContractButtonID(fields[1])
		if fields[0] == "buy" || fields[0] == "b" {
			id = ui.StoreButtonID(fields[1])
		}
		t.click(ctx, c, id)
	case "reset":
		t.click(ctx, c, ui.ResetButtonID)
	default:
		fmt.Fprintf(t.out, "unknown command %q (try help)\n", fields[0])
	}
	return true
}

// click sends a click like a pointer would: disabled or unknown buttons
// do nothing.
func (t *terminal) click(ctx context.Context, c *ui.Controller, id string) {
	var ok bool
	_ = c.View(ctx, func(f ui.Frame) {
		el := f.Doc.ByID(id)
		ok = el != nil && !el.Disabled()
	})
	if !ok {
		fmt.Fprintf(t.out, "%s is not available\n", strings.TrimPrefix(strings.TrimPrefix(id, "contract-"), "store-"))
		return
	}
	select {
	case <-c.Click(id):
	case <-ctx.Done():
		return
	}
	_ = c.View(ctx, func(f ui.Frame) {
		if len(f.Feedback) > 0 {
			fmt.Fprintln(t.out, f.Feedback[0])
		}
	})
	t.show(ctx, c)
}

func (t *terminal) show(ctx context.Context, c *ui.Controller) {
	_ = c.View(ctx, func(f ui.Frame) { printFrame(t.out, f) })
}

func printFrame(w io.Writer, f ui.Frame) {
	doc := f.Doc
	text := func(id string) string { return strings.TrimSpace(doc.ByID(id).Text()) }

	if f.State == nil {
		fmt.Fprintln(w, "no state from the server yet")
	} else {
		fmt.Fprintf(w, "Money %s %s | Energy %s | Level %s | XP %s | Junior devs %s\n",
			text("money"), text("passive-income"), text("energy"), text("level"), text("xp"), text("junior-devs"))
	}
	printButtons(w, "Contracts", doc.ByID("contracts-list"), "data-id")
	printButtons(w, "Store", doc.ByID("store-list"), "data-item-id")
	if !f.Polling {
		fmt.Fprintln(w, "(not polling)")
	}
}

func printButtons(w io.Writer, title string, list *dom.Element, idAttr string) {
	fmt.Fprintln(w, title+":")
	for _, btn := range list.Children() {
		id, _ := btn.Attr(idAttr)
		mark := " "
		if !btn.Disabled() {
			mark = "*"
		}
		name := btn.Text()
		desc := ""
		if d := btn.FirstByClass("button-description"); d != nil {
			name = strings.TrimSuffix(name, d.Text())
			if d.Style("display") != "none" {
				desc = d.Text()
			}
		}
		fmt.Fprintf(w, "  %s %-16s %s", mark, id, strings.TrimSpace(name))
		if desc != "" {
			fmt.Fprintf(w, "  (%s)", desc)
		}
		fmt.Fprintln(w)
	}
}
