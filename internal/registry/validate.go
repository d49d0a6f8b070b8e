package registry

import (
	"context"
	"strings"

	"github.com/vk/irispipe/internal/config"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/pipeerr"
)

// ValidateProfile checks that every step the profile names is registered and
// named only once. Disabled steps are checked too: a typo in a skipped step
// is still a configuration error.
func (r *Registry) ValidateProfile(ctx context.Context, p *config.Profile) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	seen := make(map[string]string)
	for _, s := range p.Steps {
		if _, ok := r.steps[s.Name]; !ok {
			errs = append(errs, "unknown step '"+s.Name+"' at "+s.Source)
			continue
		}
		if first, dup := seen[s.Name]; dup {
			errs = append(errs, "step '"+s.Name+"' at "+s.Source+" already configured at "+first)
			continue
		}
		seen[s.Name] = s.Source
	}

	if len(errs) > 0 {
		return pipeerr.Configf("profile %q validation failed (known steps: %s):\n- %s",
			p.Name, strings.Join(r.Names(), ", "), strings.Join(errs, "\n- "))
	}
	logger.Debug("Profile validation passed.", "profile", p.Name, "steps", len(p.Steps))
	return nil
}
