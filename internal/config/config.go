package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvServerURL     = "DEVTYCOON_SERVER_URL"
	DefaultServerURL = "http://127.0.0.1:5000"
)

// Client configures cmd/client. Zero fields fall back to the defaults.
type Client struct {
	ServerURL        string        `yaml:"server_url"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	FeedbackCapacity int           `yaml:"feedback_capacity"`
	// ViewAddr, when set, serves the live document over HTTP.
	ViewAddr string `yaml:"view_addr"`
}

func Defaults() Client {
	server := strings.TrimSpace(os.Getenv(EnvServerURL))
	if server == "" {
		server = DefaultServerURL
	}
	return Client{
		ServerURL:        server,
		PollInterval:     5 * time.Second,
		FeedbackCapacity: 50,
	}
}

// Load reads a YAML file over the defaults. An empty path yields the
// defaults alone.
func Load(path string) (Client, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Client) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_url: want an http(s) URL, got %q", c.ServerURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval: must be positive, got %s", c.PollInterval)
	}
	if c.FeedbackCapacity <= 0 {
		return fmt.Errorf("feedback_capacity: must be positive, got %d", c.FeedbackCapacity)
	}
	return nil
}
