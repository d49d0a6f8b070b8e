package crds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/datamodels"
)

// Client resolves reference files through the local cache.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu      sync.Mutex
	mapping *Mapping
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client's settings.
func (c *Client) Config() Config { return c.cfg }

// MappingPath is where the active context file is cached.
func (c *Client) MappingPath() string {
	return filepath.Join(c.cfg.Path, "mappings", c.cfg.Observatory, c.cfg.Context)
}

// ReferencePath is where a reference file of instrument is cached.
func (c *Client) ReferencePath(instrument, file string) string {
	return filepath.Join(c.cfg.Path, "references", c.cfg.Observatory, strings.ToLower(instrument), file)
}

// Resolve returns the cached path of the refType reference that applies to
// an exposure described by meta, downloading it if needed.
func (c *Client) Resolve(ctx context.Context, instrument, refType string, meta *datamodels.Meta) (string, error) {
	logger := ctxlog.FromContext(ctx)

	mapping, err := c.loadMapping(ctx)
	if err != nil {
		return "", err
	}
	ref, err := mapping.Select(instrument, refType, meta)
	if err != nil {
		return "", err
	}

	path := c.ReferencePath(instrument, ref.File)
	if err := c.ensure(ctx, path, "references", ref.File); err != nil {
		return "", fmt.Errorf("reference %s: %w", ref.File, err)
	}
	logger.Debug("Reference resolved.", "instrument", instrument, "type", refType, "file", ref.File, "path", path)
	return path, nil
}

func (c *Client) loadMapping(ctx context.Context) (*Mapping, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mapping != nil {
		return c.mapping, nil
	}

	path := c.MappingPath()
	if err := c.ensure(ctx, path, "mappings", c.cfg.Context); err != nil {
		return nil, fmt.Errorf("context %s: %w", c.cfg.Context, err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseMapping(c.cfg.Context, src)
	if err != nil {
		return nil, err
	}
	c.mapping = m
	return m, nil
}

// ensure makes sure path exists, downloading kind/name from the server on a miss.
func (c *Client) ensure(ctx context.Context, path, kind, name string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if c.cfg.ServerURL == "" {
		return fmt.Errorf("%s not cached at %s and no server configured", name, path)
	}
	return c.download(ctx, kind, name, path)
}

func (c *Client) download(ctx context.Context, kind, name, dest string) error {
	logger := ctxlog.FromContext(ctx)
	url := strings.TrimRight(c.cfg.ServerURL, "/") + "/unchecked_get/" + kind + "/" + c.cfg.Observatory + "/" + name
	logger.Info("Fetching from reference server.", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
