package profiles

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/irispipe/internal/config"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/fsutil"
	"github.com/vk/irispipe/internal/pipeerr"
)

//go:embed builtin/*.hcl
var builtin embed.FS

// Entry describes one profile the catalog can load.
type Entry struct {
	Name   string
	Source string
}

// Catalog resolves profile references.
type Catalog struct {
	dirs    []string
	loaders map[string]config.Loader
	exts    []string
}

// NewCatalog creates a catalog searching dirs, in order, with the given
// format loaders. Loaders are picked by file extension.
func NewCatalog(dirs []string, loaders ...config.Loader) *Catalog {
	c := &Catalog{dirs: dirs, loaders: make(map[string]config.Loader)}
	for _, l := range loaders {
		for _, ext := range l.Extensions() {
			c.loaders[ext] = l
			c.exts = append(c.exts, ext)
		}
	}
	sort.Strings(c.exts)
	return c
}

// Load resolves ref. A ref with a known extension or a path separator is a
// file; anything else is a profile name.
func (c *Catalog) Load(ctx context.Context, ref string) (*config.Profile, error) {
	logger := ctxlog.FromContext(ctx)
	if ref == "" {
		return nil, pipeerr.Configf("no profile given")
	}

	if c.isPath(ref) {
		logger.Debug("Loading profile file.", "path", ref)
		return c.loadFile(ctx, ref)
	}

	for _, dir := range c.dirs {
		files, err := fsutil.FindFilesByExtension(dir, c.exts...)
		if err != nil {
			return nil, pipeerr.WrapConfig(err, "scan profile directory %s", dir)
		}
		for _, f := range files {
			if fsutil.Stem(f) == ref {
				logger.Debug("Profile found in directory.", "name", ref, "path", f)
				return c.loadFile(ctx, f)
			}
		}
	}

	for _, ext := range c.exts {
		name := path.Join("builtin", ref+ext)
		src, err := builtin.ReadFile(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, pipeerr.WrapConfig(err, "read built-in profile %s", ref)
		}
		logger.Debug("Using built-in profile.", "name", ref)
		return c.loaders[ext].LoadBytes(ctx, "builtin:"+ref+ext, src)
	}

	known, _ := c.Names(ctx)
	names := make([]string, len(known))
	for i, e := range known {
		names[i] = e.Name
	}
	return nil, pipeerr.Configf("profile %q not found (available: %s)", ref, strings.Join(names, ", "))
}

// Names lists every profile name the catalog resolves. A name found in a
// directory hides a built-in of the same name.
func (c *Catalog) Names(ctx context.Context) ([]Entry, error) {
	seen := make(map[string]bool)
	var out []Entry
	for _, dir := range c.dirs {
		files, err := fsutil.FindFilesByExtension(dir, c.exts...)
		if err != nil {
			return nil, pipeerr.WrapConfig(err, "scan profile directory %s", dir)
		}
		for _, f := range files {
			name := fsutil.Stem(f)
			if !seen[name] {
				seen[name] = true
				out = append(out, Entry{Name: name, Source: f})
			}
		}
	}

	entries, err := builtin.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := fsutil.Stem(e.Name())
		if _, ok := c.loaders[path.Ext(e.Name())]; !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Entry{Name: name, Source: "builtin"})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	ctxlog.FromContext(ctx).Debug("Profiles listed.", "count", len(out))
	return out, nil
}

func (c *Catalog) isPath(ref string) bool {
	if strings.ContainsRune(ref, os.PathSeparator) || strings.Contains(ref, "/") {
		return true
	}
	_, ok := c.loaders[filepath.Ext(ref)]
	return ok
}

func (c *Catalog) loadFile(ctx context.Context, p string) (*config.Profile, error) {
	loader, ok := c.loaders[filepath.Ext(p)]
	if !ok {
		return nil, pipeerr.Configf("profile %s: unsupported format %q (supported: %s)", p, filepath.Ext(p), strings.Join(c.exts, ", "))
	}
	return loader.Load(ctx, p)
}
