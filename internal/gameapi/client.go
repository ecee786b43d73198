// Package gameapi is the HTTP/JSON transport to the Game Server.
package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"

	"devtycoon.app/internal/protocol"
)

const maxBodyBytes = 4 << 20

type Config struct {
	BaseURL string
	// HTTPClient defaults to a client with a gzip-aware transport and no
	// timeout; requests are bounded only by their context.
	HTTPClient *http.Client
}

type Client struct {
	base  string
	http  *http.Client
	newID func() string
}

// TransportError covers everything that is not a structured rejection:
// network failures, unexpected statuses and bodies that do not decode or
// validate.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError is an application-level refusal: a non-success status
// carrying a structured error payload.
type RejectedError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: rejected (%d %s): %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: rejected (%d): %s", e.Op, e.Status, e.Message)
}

func IsRejected(err error) (*RejectedError, bool) {
	var rej *RejectedError
	ok := errors.As(err, &rej)
	return rej, ok
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("empty server url")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", base)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: gzhttp.Transport(http.DefaultTransport)}
	}
	return &Client{
		base:  base,
		http:  hc,
		newID: func() string { return uuid.NewString() },
	}, nil
}

func (c *Client) BaseURL() string { return c.base }

func (c *Client) GameState(ctx context.Context) (protocol.PlayerState, error) {
	const op = "get game state"
	raw, err := c.get(ctx, op, protocol.PathGameState)
	if err != nil {
		return protocol.PlayerState{}, err
	}
	st, err := protocol.DecodeState(raw)
	if err != nil {
		return protocol.PlayerState{}, &TransportError{Op: op, Err: err}
	}
	return st, nil
}

func (c *Client) Definitions(ctx context.Context) (protocol.Definitions, error) {
	const op = "get definitions"
	raw, err := c.get(ctx, op, protocol.PathDefinitions)
	if err != nil {
		return protocol.Definitions{}, err
	}
	defs, err := protocol.DecodeDefinitions(raw)
	if err != nil {
		return protocol.Definitions{}, &TransportError{Op: op, Err: err}
	}
	return defs, nil
}

func (c *Client) DoContract(ctx context.Context, contractID string) (protocol.PlayerState, error) {
	return c.act(ctx, "do contract", protocol.PathDoContract, protocol.ContractReq{ContractID: contractID})
}

func (c *Client) BuyItem(ctx context.Context, itemID string) (protocol.PlayerState, error) {
	return c.act(ctx, "buy item", protocol.PathBuyItem, protocol.PurchaseReq{ItemID: itemID})
}

func (c *Client) ResetGame(ctx context.Context) (protocol.PlayerState, error) {
	return c.act(ctx, "reset game", protocol.PathResetGame, nil)
}

func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	status, raw, err := c.do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", status)}
	}
	return raw, nil
}

// act sends one mutating request. body may be nil for requests without a
// payload.
func (c *Client) act(ctx context.Context, op, path string, body any) (protocol.PlayerState, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return protocol.PlayerState{}, &TransportError{Op: op, Err: err}
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, rdr)
	if err != nil {
		return protocol.PlayerState{}, &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(protocol.HeaderRequestID, c.newID())

	status, raw, err := c.do(req)
	if err != nil {
		return protocol.PlayerState{}, &TransportError{Op: op, Err: err}
	}
	resp, err := protocol.DecodeActionResponse(raw)
	if err != nil {
		return protocol.PlayerState{}, &TransportError{Op: op, Err: fmt.Errorf("status %d: %w", status, err)}
	}
	if status < 200 || status > 299 {
		return protocol.PlayerState{}, &RejectedError{Op: op, Status: status, Code: resp.Code, Message: resp.Error}
	}
	if resp.NewState == nil {
		return protocol.PlayerState{}, &TransportError{Op: op, Err: fmt.Errorf("status %d without new_state", status)}
	}
	return *resp.NewState, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, raw, nil
}
