package ui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"devtycoon.app/internal/dom"
	"devtycoon.app/internal/gameapi"
	"devtycoon.app/internal/protocol"
)

type fakeAPI struct {
	mu sync.Mutex

	defs    protocol.Definitions
	defsErr error

	state      protocol.PlayerState
	stateErr   func(call int) error
	stateCalls int

	contract func(id string) (protocol.PlayerState, error)
	buy      func(id string) (protocol.PlayerState, error)
	reset    func() (protocol.PlayerState, error)

	contractCalls []string
	buyCalls      []string
	resetCalls    int
}

func (f *fakeAPI) GameState(context.Context) (protocol.PlayerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls++
	if f.stateErr != nil {
		if err := f.stateErr(f.stateCalls); err != nil {
			return protocol.PlayerState{}, err
		}
	}
	return f.state, nil
}

func (f *fakeAPI) Definitions(context.Context) (protocol.Definitions, error) {
	if f.defsErr != nil {
		return protocol.Definitions{}, f.defsErr
	}
	return f.defs, nil
}

func (f *fakeAPI) DoContract(_ context.Context, id string) (protocol.PlayerState, error) {
	f.mu.Lock()
	f.contractCalls = append(f.contractCalls, id)
	fn := f.contract
	f.mu.Unlock()
	return fn(id)
}

func (f *fakeAPI) BuyItem(_ context.Context, id string) (protocol.PlayerState, error) {
	f.mu.Lock()
	f.buyCalls = append(f.buyCalls, id)
	fn := f.buy
	f.mu.Unlock()
	return fn(id)
}

func (f *fakeAPI) ResetGame(context.Context) (protocol.PlayerState, error) {
	f.mu.Lock()
	f.resetCalls++
	fn := f.reset
	f.mu.Unlock()
	return fn()
}

func (f *fakeAPI) calls() (state, contract, buy, reset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateCalls, len(f.contractCalls), len(f.buyCalls), f.resetCalls
}

func sampleDefs() protocol.Definitions {
	return protocol.Definitions{
		Contracts: map[string]protocol.ContractDef{
			"fix_bug":       {Name: "Fix a Bug", EnergyCost: 10, MoneyReward: 50, XPReward: 10},
			"data_analysis": {Name: "Data Analysis", EnergyCost: 50, MoneyReward: 450, XPReward: 100},
			"build_website": {Name: "Build a Website", EnergyCost: 30, MoneyReward: 200, XPReward: 50},
		},
		StoreItems: map[string]protocol.StoreItemDef{
			"coffee":          {Name: "Coffee", EffectDescription: "Restores all energy", Cost: 25, Kind: protocol.KindConsumable},
			"ergonomic_chair": {Name: "Ergonomic Chair", EffectDescription: "+25 max energy", Cost: 300, Kind: protocol.KindUpgrade},
			"dev_junior":      {Name: "Hire Junior Dev", EffectDescription: "+$10 per second", BaseCost: 500, Kind: protocol.KindStackable},
		},
	}
}

func sampleState() protocol.PlayerState {
	return protocol.PlayerState{
		Money:         100,
		Energy:        100,
		MaxEnergy:     100,
		XP:            30,
		Level:         1,
		XPToNextLevel: 100,
		Upgrades:      []string{},
	}
}

type option func(*Config)

func startController(t *testing.T, api API, opts ...option) *Controller {
	t.Helper()
	cfg := Config{API: api, Logger: log.New(io.Discard, "", 0)}
	for _, o := range opts {
		o(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	waitFor(t, c.Started())
	return c
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for action to settle")
	}
}

func view(t *testing.T, c *Controller, fn func(Frame)) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.View(ctx, fn); err != nil {
		t.Fatalf("View: %v", err)
	}
}

func text(t *testing.T, c *Controller, id string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s, err := c.Text(ctx, id)
	if err != nil {
		t.Fatalf("Text(%s): %v", id, err)
	}
	return s
}

func disabled(t *testing.T, c *Controller, id string) bool {
	t.Helper()
	var out bool
	view(t, c, func(f Frame) {
		el := f.Doc.ByID(id)
		if el == nil {
			t.Fatalf("no element #%s", id)
		}
		out = el.Disabled()
	})
	return out
}

func feedback(t *testing.T, c *Controller) []string {
	t.Helper()
	var out []string
	view(t, c, func(f Frame) { out = f.Feedback })
	return out
}

func TestStartupRendersDefinitionsAndHUD(t *testing.T) {
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	c := startController(t, api)

	if got := text(t, c, "money"); got != "$100" {
		t.Fatalf("money: got %q", got)
	}
	if got := text(t, c, "energy"); got != "100 / 100" {
		t.Fatalf("energy: got %q", got)
	}
	if got := text(t, c, "xp"); got != "30 / 100" {
		t.Fatalf("xp: got %q", got)
	}
	if got := text(t, c, "passive-income"); got != "($0 / sec)" {
		t.Fatalf("passive income: got %q", got)
	}
	view(t, c, func(f Frame) {
		if w := f.Doc.ByID("energy-bar").Style("width"); w != "100%" {
			t.Fatalf("energy bar width: %q", w)
		}
		if w := f.Doc.ByID("xp-bar").Style("width"); w != "30%" {
			t.Fatalf("xp bar width: %q", w)
		}
		var ids []string
		for _, b := range f.Doc.ByID("contracts-list").Children() {
			ids = append(ids, b.ID())
		}
		want := "contract-build_website,contract-data_analysis,contract-fix_bug"
		if strings.Join(ids, ",") != want {
			t.Fatalf("contract order: got %v", ids)
		}
		if !f.Polling {
			t.Fatalf("expected polling after startup")
		}
	})

	if disabled(t, c, ContractButtonID("fix_bug")) {
		t.Fatalf("fix_bug should be enabled")
	}
	if !disabled(t, c, StoreButtonID("ergonomic_chair")) {
		t.Fatalf("chair costs 300 and should be disabled at $100")
	}
	if disabled(t, c, StoreButtonID("coffee")) {
		t.Fatalf("coffee should be enabled")
	}
	junior := text(t, c, StoreButtonID("dev_junior"))
	if !strings.Contains(junior, "Hire Junior Dev (0 hired)") || !strings.Contains(junior, "Cost: $500") {
		t.Fatalf("junior label: %q", junior)
	}
}

func TestContractEnabledAtExactEnergy(t *testing.T) {
	st := sampleState()
	st.Energy = 10
	c := startController(t, &fakeAPI{defs: sampleDefs(), state: st})
	if disabled(t, c, ContractButtonID("fix_bug")) {
		t.Fatalf("energy equal to cost must enable the contract")
	}
	if !disabled(t, c, ContractButtonID("build_website")) {
		t.Fatalf("build_website needs 30 energy")
	}

	st.Energy = 9
	c = startController(t, &fakeAPI{defs: sampleDefs(), state: st})
	if !disabled(t, c, ContractButtonID("fix_bug")) {
		t.Fatalf("energy below cost must disable the contract")
	}
}

func TestBarWidth(t *testing.T) {
	cases := []struct {
		cur, max int
		want     string
	}{
		{57, 100, "57%"},
		{1, 3, "33.33%"},
		{2, 3, "66.67%"},
		{150, 100, "100%"},
		{-5, 100, "0%"},
		{5, 0, "0%"},
	}
	for _, tc := range cases {
		if got := barWidth(tc.cur, tc.max); got != tc.want {
			t.Fatalf("barWidth(%d, %d): got %q want %q", tc.cur, tc.max, got, tc.want)
		}
	}
}

func TestSuccessfulContractReplacesSnapshot(t *testing.T) {
	after := sampleState()
	after.Money = 150
	after.Energy = 0
	after.XP = 40
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	api.contract = func(string) (protocol.PlayerState, error) { return after, nil }
	c := startController(t, api)

	waitFor(t, c.Click(ContractButtonID("fix_bug")))

	if got := text(t, c, "money"); got != "$150" {
		t.Fatalf("money: got %q", got)
	}
	if !disabled(t, c, ContractButtonID("fix_bug")) {
		t.Fatalf("no energy left, fix_bug should be disabled")
	}
	if disabled(t, c, StoreButtonID("coffee")) {
		t.Fatalf("coffee should stay enabled at $150")
	}
	fb := feedback(t, c)
	if len(fb) == 0 || !strings.Contains(fb[0], "Fix a Bug") {
		t.Fatalf("feedback: %v", fb)
	}
	view(t, c, func(f Frame) {
		if f.State == nil || f.State.Energy != 0 || f.State.XP != 40 {
			t.Fatalf("snapshot not replaced: %+v", f.State)
		}
	})
	if _, n, _, _ := api.calls(); n != 1 {
		t.Fatalf("contract calls: %d", n)
	}
}

func TestOwnedUpgradeStaysDisabled(t *testing.T) {
	st := sampleState()
	st.Money = 10_000
	st.Upgrades = []string{"ergonomic_chair"}
	api := &fakeAPI{defs: sampleDefs(), state: st}
	api.contract = func(string) (protocol.PlayerState, error) { return st, nil }
	c := startController(t, api)

	check := func() {
		t.Helper()
		view(t, c, func(f Frame) {
			btn := f.Doc.ByID(StoreButtonID("ergonomic_chair"))
			if !btn.Disabled() {
				t.Fatalf("owned upgrade must be disabled")
			}
			if v, _ := btn.Attr("data-owned"); v != "true" {
				t.Fatalf("data-owned: %q", v)
			}
			if !strings.HasPrefix(btn.Text(), "Ergonomic Chair (Owned)") {
				t.Fatalf("label: %q", btn.Text())
			}
			if d := btn.FirstByClass("button-description").Style("display"); d != "none" {
				t.Fatalf("description display: %q", d)
			}
		})
	}
	check()
	waitFor(t, c.Click(ContractButtonID("fix_bug")))
	check()
}

func TestOwnedUpgradeSurvivesStaleSnapshot(t *testing.T) {
	owned := sampleState()
	owned.Money = 10_000
	owned.Upgrades = []string{"ergonomic_chair"}
	stale := owned
	stale.Money = 9_999
	stale.Upgrades = []string{}

	release := make(chan struct{})
	api := &fakeAPI{defs: sampleDefs(), state: owned}
	api.contract = func(string) (protocol.PlayerState, error) {
		<-release
		return stale, nil
	}
	c := startController(t, api, func(cfg *Config) { cfg.PollInterval = 20 * time.Millisecond })

	checkOwned := func(when string) {
		t.Helper()
		view(t, c, func(f Frame) {
			btn := f.Doc.ByID(StoreButtonID("ergonomic_chair"))
			if !btn.Disabled() {
				t.Fatalf("%s: owned chair enabled", when)
			}
			if !strings.HasPrefix(btn.Text(), "Ergonomic Chair (Owned)") {
				t.Fatalf("%s: label %q", when, btn.Text())
			}
		})
	}
	checkOwned("before stale poll")

	// A poll answered before the purchase landed.
	api.mu.Lock()
	api.state = stale
	api.mu.Unlock()
	deadline := time.Now().Add(3 * time.Second)
	for text(t, c, "money") != "$9999" {
		if time.Now().After(deadline) {
			t.Fatalf("stale snapshot never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}
	checkOwned("after stale poll")

	// Stop polling so nothing re-enables controls while the action is held.
	api.mu.Lock()
	api.stateErr = func(int) error { return errors.New("down") }
	api.mu.Unlock()
	for {
		var polling bool
		view(t, c, func(f Frame) { polling = f.Polling })
		if !polling {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("polling never stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	first := c.Click(ContractButtonID("fix_bug"))
	view(t, c, func(f Frame) {
		for _, b := range f.Doc.All(func(e *dom.Element) bool { return e.Tag() == "button" }) {
			if !b.Disabled() {
				t.Fatalf("button %s enabled while an action is in flight", b.ID())
			}
		}
	})
	close(release)
	waitFor(t, first)
	checkOwned("after action")
}

func TestStackablePriceRecomputedFromCount(t *testing.T) {
	st := sampleState()
	st.JuniorDevs = 1
	st.Money = 574
	c := startController(t, &fakeAPI{defs: sampleDefs(), state: st})

	label := text(t, c, StoreButtonID("dev_junior"))
	if !strings.Contains(label, "(1 hired)") || !strings.Contains(label, "Cost: $575") {
		t.Fatalf("label: %q", label)
	}
	if !disabled(t, c, StoreButtonID("dev_junior")) {
		t.Fatalf("$574 cannot afford $575")
	}
}

func TestFailedPollStopsPolling(t *testing.T) {
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	api.stateErr = func(call int) error {
		if call >= 2 {
			return &gameapi.TransportError{Op: "get game state", Err: errors.New("connection refused")}
		}
		return nil
	}
	c := startController(t, api, func(cfg *Config) { cfg.PollInterval = 20 * time.Millisecond })

	deadline := time.Now().Add(3 * time.Second)
	for {
		var polling bool
		view(t, c, func(f Frame) { polling = f.Polling })
		if !polling {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("polling never stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}
	before, _, _, _ := api.calls()
	time.Sleep(150 * time.Millisecond)
	after, _, _, _ := api.calls()
	if after != before {
		t.Fatalf("get_game_state called after failure: %d -> %d", before, after)
	}
	fb := feedback(t, c)
	if len(fb) == 0 || !strings.Contains(fb[0], "Lost connection") {
		t.Fatalf("feedback: %v", fb)
	}
	if got := text(t, c, "money"); got != "$100" {
		t.Fatalf("last good snapshot should stay rendered, money %q", got)
	}
}

func TestDeclinedResetSendsNothing(t *testing.T) {
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	api.reset = func() (protocol.PlayerState, error) { return sampleState(), nil }
	var prompts []string
	confirm := ConfirmFunc(func(_ context.Context, prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	})
	c := startController(t, api, func(cfg *Config) { cfg.Confirm = confirm })

	var before string
	view(t, c, func(f Frame) { before = f.Doc.String() })
	waitFor(t, c.Click(ResetButtonID))
	var after string
	view(t, c, func(f Frame) { after = f.Doc.String() })

	if _, _, _, n := api.calls(); n != 0 {
		t.Fatalf("reset requests: %d", n)
	}
	if len(prompts) != 1 {
		t.Fatalf("prompts: %v", prompts)
	}
	if before != after {
		t.Fatalf("declined reset changed the document")
	}
}

func TestConfirmedResetRegeneratesStore(t *testing.T) {
	st := sampleState()
	st.Money = 1000
	st.Upgrades = []string{"ergonomic_chair"}
	fresh := sampleState()
	fresh.Money = 1000
	api := &fakeAPI{defs: sampleDefs(), state: st}
	api.reset = func() (protocol.PlayerState, error) { return fresh, nil }
	c := startController(t, api, func(cfg *Config) {
		cfg.Confirm = ConfirmFunc(func(context.Context, string) bool { return true })
	})

	if !disabled(t, c, StoreButtonID("ergonomic_chair")) {
		t.Fatalf("chair should start owned")
	}
	waitFor(t, c.Click(ResetButtonID))

	view(t, c, func(f Frame) {
		btn := f.Doc.ByID(StoreButtonID("ergonomic_chair"))
		if btn.HasAttr("data-owned") || btn.Disabled() {
			t.Fatalf("chair should be purchasable after reset: %s", f.Doc.String())
		}
		if !strings.HasPrefix(btn.Text(), "Ergonomic Chair") || strings.Contains(btn.Text(), "Owned") {
			t.Fatalf("label: %q", btn.Text())
		}
		if f.Doc.ByID(ResetButtonID).Disabled() {
			t.Fatalf("reset button left disabled")
		}
	})
	fb := feedback(t, c)
	if len(fb) == 0 || !strings.HasPrefix(fb[0], "Game reset!") {
		t.Fatalf("feedback: %v", fb)
	}
}

func TestRejectedResetLogsFixedMessage(t *testing.T) {
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	api.reset = func() (protocol.PlayerState, error) {
		return protocol.PlayerState{}, &gameapi.RejectedError{Op: "reset game", Status: 500, Message: "db down"}
	}
	c := startController(t, api, func(cfg *Config) {
		cfg.Confirm = ConfirmFunc(func(context.Context, string) bool { return true })
	})
	waitFor(t, c.ResetProgress())
	fb := feedback(t, c)
	if len(fb) == 0 || fb[0] != "Error: could not reset the game." {
		t.Fatalf("feedback: %v", fb)
	}
}

func TestPurchaseWithEmptyIDShortCircuits(t *testing.T) {
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	c := startController(t, api)
	waitFor(t, c.PurchaseItem(""))
	if _, _, n, _ := api.calls(); n != 0 {
		t.Fatalf("buy requests: %d", n)
	}
	fb := feedback(t, c)
	if len(fb) == 0 || fb[0] != "Error: invalid purchase attempt." {
		t.Fatalf("feedback: %v", fb)
	}
}

func TestRejectedPurchaseShowsServerMessage(t *testing.T) {
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	api.buy = func(string) (protocol.PlayerState, error) {
		return protocol.PlayerState{Money: 1}, &gameapi.RejectedError{Op: "buy item", Status: 400, Code: protocol.ErrNoMoney, Message: "Not enough money"}
	}
	c := startController(t, api)
	waitFor(t, c.Click(StoreButtonID("coffee")))

	fb := feedback(t, c)
	if len(fb) == 0 || fb[0] != "Error: Not enough money" {
		t.Fatalf("feedback: %v", fb)
	}
	if got := text(t, c, "money"); got != "$100" {
		t.Fatalf("rejection must not touch state, money %q", got)
	}
	if disabled(t, c, StoreButtonID("coffee")) || disabled(t, c, ContractButtonID("fix_bug")) {
		t.Fatalf("controls not re-enabled after rejection")
	}
}

func TestTransportFailureShowsGenericMessage(t *testing.T) {
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	api.contract = func(string) (protocol.PlayerState, error) {
		return protocol.PlayerState{}, &gameapi.TransportError{Op: "do contract", Err: errors.New("EOF")}
	}
	c := startController(t, api)
	waitFor(t, c.Click(ContractButtonID("fix_bug")))

	fb := feedback(t, c)
	if len(fb) == 0 || fb[0] != "Connection error while running the contract." {
		t.Fatalf("feedback: %v", fb)
	}
	if disabled(t, c, ContractButtonID("fix_bug")) {
		t.Fatalf("fix_bug left disabled")
	}
}

func TestControlsDisabledWhileActionInFlight(t *testing.T) {
	st := sampleState()
	st.Money = 10_000
	st.Upgrades = []string{"ergonomic_chair"}
	release := make(chan struct{})
	api := &fakeAPI{defs: sampleDefs(), state: st}
	api.contract = func(string) (protocol.PlayerState, error) {
		<-release
		return st, nil
	}
	c := startController(t, api)

	first := c.Click(ContractButtonID("fix_bug"))
	view(t, c, func(f Frame) {
		for _, b := range f.Doc.All(func(e *dom.Element) bool { return e.Tag() == "button" }) {
			if !b.Disabled() {
				t.Fatalf("button %s enabled while an action is in flight", b.ID())
			}
		}
	})
	second := c.Click(StoreButtonID("coffee"))
	waitFor(t, second)
	if _, _, n, _ := api.calls(); n != 0 {
		t.Fatalf("click on disabled button reached the server")
	}

	close(release)
	waitFor(t, first)
	if disabled(t, c, StoreButtonID("coffee")) || disabled(t, c, ResetButtonID) {
		t.Fatalf("controls not restored")
	}
	if !disabled(t, c, StoreButtonID("ergonomic_chair")) {
		t.Fatalf("owned chair re-enabled")
	}
}

func TestDefinitionsFailureLeavesCacheEmpty(t *testing.T) {
	api := &fakeAPI{defsErr: errors.New("boom"), state: sampleState()}
	c := startController(t, api)
	view(t, c, func(f Frame) {
		if len(f.Doc.ByID("contracts-list").Children()) != 0 || len(f.Doc.ByID("store-list").Children()) != 0 {
			t.Fatalf("lists should be empty")
		}
		if len(f.Definitions.Contracts) != 0 {
			t.Fatalf("cache should be empty")
		}
		if !f.Polling {
			t.Fatalf("state polling still runs without definitions")
		}
	})
	if got := text(t, c, "money"); got != "$100" {
		t.Fatalf("money: %q", got)
	}
	fb := feedback(t, c)
	if len(fb) != 1 || fb[0] != "Could not load game definitions." {
		t.Fatalf("feedback: %v", fb)
	}
}

func TestFeedbackPanelIsBounded(t *testing.T) {
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	c := startController(t, api, func(cfg *Config) { cfg.FeedbackCapacity = 2 })
	for i := 0; i < 3; i++ {
		waitFor(t, c.PurchaseItem(""))
	}
	view(t, c, func(f Frame) {
		if n := len(f.Doc.ByID("feedback-log").Children()); n != 2 {
			t.Fatalf("feedback entries: %d", n)
		}
		if len(f.Feedback) != 2 {
			t.Fatalf("feedback ring: %v", f.Feedback)
		}
	})
}

func TestFeedbackLogNewestFirst(t *testing.T) {
	f := newFeedbackLog(3)
	for _, m := range []string{"a", "b", "c", "d", "e"} {
		f.add(m)
	}
	if got := strings.Join(f.newestFirst(), ","); got != "e,d,c" {
		t.Fatalf("got %s", got)
	}
}

func TestSubscribeReceivesRenderedPage(t *testing.T) {
	api := &fakeAPI{defs: sampleDefs(), state: sampleState()}
	pages := make(chan []byte, 16)
	cfg := Config{API: api, Logger: log.New(io.Discard, "", 0)}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Subscribe(func(page []byte) {
		select {
		case pages <- append([]byte(nil), page...):
		default:
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()
	waitFor(t, c.Started())

	deadline := time.After(3 * time.Second)
	for {
		select {
		case p := <-pages:
			if strings.Contains(string(p), `id="contract-fix_bug"`) && strings.Contains(string(p), "$100") {
				return
			}
		case <-deadline:
			t.Fatalf("no page with rendered state received")
		}
	}
}

func TestNewRejectsIncompletePage(t *testing.T) {
	_, err := New(Config{API: &fakeAPI{}, Page: `<html><body><div id="money"></div></body></html>`})
	if err == nil {
		t.Fatalf("expected error for page without required elements")
	}
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without API")
	}
}

// The client and controller together against an HTTP fake of the server.
func TestControllerOverHTTP(t *testing.T) {
	defs := sampleDefs()
	st := sampleState()
	st.Energy = 20
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case protocol.PathDefinitions:
			_ = json.NewEncoder(w).Encode(defs)
		case protocol.PathGameState:
			_ = json.NewEncoder(w).Encode(st)
		case protocol.PathDoContract:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(protocol.ActionResponse{Error: "Not enough energy", Code: protocol.ErrNoEnergy})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := gameapi.New(gameapi.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("gameapi.New: %v", err)
	}
	c := startController(t, client)
	if got := text(t, c, "energy"); got != "20 / 100" {
		t.Fatalf("energy: %q", got)
	}
	waitFor(t, c.RunContract("data_analysis"))
	fb := feedback(t, c)
	if len(fb) == 0 || fb[0] != "Error: Not enough energy" {
		t.Fatalf("feedback: %v", fb)
	}
}
