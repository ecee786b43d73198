// Package ui is the game client: it keeps the definitions cache and the
// latest player snapshot, renders them into a document and turns button
// clicks into server requests.
//
// Every piece of client state is owned by the goroutine running
// Controller.Run. Network calls happen on their own goroutines and hand
// their results back to that loop, so none of the fields below are
// guarded by a mutex.
package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"devtycoon.app/internal/dom"
	"devtycoon.app/internal/protocol"
)

const (
	DefaultPollInterval     = 5 * time.Second
	DefaultFeedbackCapacity = 50
)

// API is the part of the Game Server the client talks to.
// *gameapi.Client implements it.
type API interface {
	GameState(ctx context.Context) (protocol.PlayerState, error)
	Definitions(ctx context.Context) (protocol.Definitions, error)
	DoContract(ctx context.Context, contractID string) (protocol.PlayerState, error)
	BuyItem(ctx context.Context, itemID string) (protocol.PlayerState, error)
	ResetGame(ctx context.Context) (protocol.PlayerState, error)
}

// Confirmer asks the user a yes/no question. It may block; it is never
// called on the loop goroutine.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

type Config struct {
	API     API
	Confirm Confirmer
	Logger  *log.Logger

	PollInterval     time.Duration
	FeedbackCapacity int

	// Page overrides the embedded page template. It must contain the
	// element ids the renderer writes to.
	Page string
}

var errStopped = errors.New("ui: controller stopped")

type Controller struct {
	api     API
	confirm Confirmer
	log     *log.Logger
	every   time.Duration

	tasks   chan func()
	quit    chan struct{}
	ctx     context.Context // set by Run, read only on the loop
	started chan struct{}

	doc      *dom.Document
	defs     definitionsCache
	store    stateStore
	feedback *feedbackLog
	poll     *pollLoop

	pendingDone func()
	dirty       bool
	subs        []func(page []byte)
}

func New(cfg Config) (*Controller, error) {
	if cfg.API == nil {
		return nil, errors.New("ui: missing API")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Confirm == nil {
		cfg.Confirm = ConfirmFunc(func(context.Context, string) bool { return false })
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FeedbackCapacity <= 0 {
		cfg.FeedbackCapacity = DefaultFeedbackCapacity
	}
	page := cfg.Page
	if page == "" {
		page = defaultPage
	}
	doc, err := dom.ParseString(page)
	if err != nil {
		return nil, err
	}
	for _, id := range []string{idMoney, idEnergy, idEnergyBar, idLevel, idXP, idXPBar, idPassiveIncome, idJuniorDevs, idContractsList, idStoreList, idFeedbackLog, idResetButton} {
		if doc.ByID(id) == nil {
			return nil, errors.New("ui: page is missing element #" + id)
		}
	}

	c := &Controller{
		api:      cfg.API,
		confirm:  cfg.Confirm,
		log:      cfg.Logger,
		every:    cfg.PollInterval,
		tasks:    make(chan func(), 64),
		quit:     make(chan struct{}),
		ctx:      context.Background(),
		started:  make(chan struct{}),
		doc:      doc,
		feedback: newFeedbackLog(cfg.FeedbackCapacity),
	}
	doc.OnClick(doc.ByID(idResetButton), func() { c.resetProgress(c.takeDone()) })
	return c, nil
}

// Subscribe registers fn to receive the rendered document after every
// loop task that changed it. fn runs on the loop and must not block.
// Call before Run.
func (c *Controller) Subscribe(fn func(page []byte)) {
	c.subs = append(c.subs, fn)
}

// Run loads the definitions, fetches the first snapshot, starts polling
// and then serves tasks until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	defer close(c.quit)
	c.startup()
	c.flush()
	for {
		select {
		case <-ctx.Done():
			c.stopPolling()
			return ctx.Err()
		case fn := <-c.tasks:
			fn()
			c.flush()
		}
	}
}

// Started is closed once the startup sequence has settled, whether or
// not its requests succeeded.
func (c *Controller) Started() <-chan struct{} { return c.started }

func (c *Controller) startup() {
	c.loadDefinitions(func() {
		c.fetchState(func() {
			c.startPolling()
			close(c.started)
		})
	})
}

// Click delivers a click to the element with the given id. The returned
// channel is closed when the action it started has settled, or right
// away when the click was ignored.
func (c *Controller) Click(id string) <-chan struct{} {
	done := make(chan struct{})
	c.post(func() {
		c.pendingDone = func() { close(done) }
		if !c.doc.Click(id) {
			c.takeDone()()
		}
	})
	return done
}

// takeDone hands the completion callback of the click being delivered to
// the handler it triggered.
func (c *Controller) takeDone() func() {
	fn := c.pendingDone
	c.pendingDone = nil
	if fn == nil {
		return func() {}
	}
	return fn
}

// Frame is a read-only view of the client state. It is only valid inside
// the function passed to View.
type Frame struct {
	Doc         *dom.Document
	State       *protocol.PlayerState
	Definitions protocol.Definitions
	Feedback    []string
	Polling     bool
}

// View runs fn on the loop and waits for it.
func (c *Controller) View(ctx context.Context, fn func(Frame)) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		var st *protocol.PlayerState
		if s, ok := c.store.current(); ok {
			st = &s
		}
		fn(Frame{
			Doc:         c.doc,
			State:       st,
			Definitions: c.defs.snapshot(),
			Feedback:    c.feedback.newestFirst(),
			Polling:     c.poll != nil,
		})
	}
	select {
	case c.tasks <- task:
	case <-c.quit:
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-c.quit:
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Text returns the text content of the element with the given id.
func (c *Controller) Text(ctx context.Context, id string) (string, error) {
	var out string
	err := c.View(ctx, func(f Frame) { out = strings.TrimSpace(f.Doc.ByID(id).Text()) })
	return out, err
}

func (c *Controller) post(fn func()) {
	select {
	case c.tasks <- fn:
	case <-c.quit:
	}
}

// await runs call off the loop and resumes with then on the loop.
func await[T any](c *Controller, call func(ctx context.Context) (T, error), then func(T, error)) {
	ctx := c.ctx
	go func() {
		v, err := call(ctx)
		c.post(func() { then(v, err) })
	}()
}

func (c *Controller) flush() {
	if !c.dirty {
		return
	}
	c.dirty = false
	if len(c.subs) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := c.doc.Render(&buf); err != nil {
		c.log.Printf("render document: %v", err)
		return
	}
	for _, fn := range c.subs {
		fn(buf.Bytes())
	}
}
