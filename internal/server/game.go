package server

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"devtycoon.app/internal/protocol"
)

// Game applies the rules to the persisted player. Requests are
// serialized: each one loads, settles passive income, applies its
// change and saves before the next starts.
type Game struct {
	cat     *Catalog
	repo    Repository
	journal *Journal
	log     *log.Logger
	now     func() time.Time

	mu sync.Mutex
}

type GameOptions struct {
	Catalog *Catalog
	Repo    Repository
	// Journal is optional.
	Journal *Journal
	Logger  *log.Logger
	Now     func() time.Time
}

func NewGame(opts GameOptions) (*Game, error) {
	if opts.Repo == nil {
		return nil, errors.New("server: missing repository")
	}
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Game{
		cat:     opts.Catalog,
		repo:    opts.Repo,
		journal: opts.Journal,
		log:     opts.Logger,
		now:     opts.Now,
	}, nil
}

func (g *Game) Catalog() *Catalog { return g.cat }

func (g *Game) State(ctx context.Context) (protocol.PlayerState, error) {
	return g.apply(ctx, "get_state", "", nil)
}

func (g *Game) RunContract(ctx context.Context, id string) (protocol.PlayerState, error) {
	return g.apply(ctx, "do_contract", id, func(p *Player) error { return p.RunContract(g.cat, id) })
}

func (g *Game) Buy(ctx context.Context, id string) (protocol.PlayerState, error) {
	return g.apply(ctx, "buy_item", id, func(p *Player) error { return p.Buy(g.cat, id) })
}

func (g *Game) Reset(ctx context.Context) (protocol.PlayerState, error) {
	return g.apply(ctx, "reset_game", "", func(p *Player) error {
		*p = NewPlayer(g.now())
		return nil
	})
}

// apply runs change against the settled player. The settled income is
// saved even when change refuses the action.
func (g *Game) apply(ctx context.Context, action, target string, change func(*Player) error) (protocol.PlayerState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	p, ok, err := g.repo.Load(ctx)
	if err != nil {
		return protocol.PlayerState{}, err
	}
	if !ok {
		p = NewPlayer(now)
	}
	p.Settle(now, g.cat.IncomePerHire())

	var ruleErr error
	if change != nil {
		next := p
		next.Upgrades = append([]string{}, p.Upgrades...)
		if ruleErr = change(&next); ruleErr == nil {
			p = next
		}
	}
	if err := g.repo.Save(ctx, p); err != nil {
		return protocol.PlayerState{}, err
	}
	if change != nil && g.journal != nil {
		if err := g.journal.Record(ctx, action, target, p, ruleErr); err != nil {
			g.log.Printf("journal: %v", err)
		}
	}
	if ruleErr != nil {
		return protocol.PlayerState{}, ruleErr
	}
	return p.Snapshot(g.cat.IncomePerHire()), nil
}
