package dependencychecker

import (
	"context"

	"github.com/rasaeel/rasaeel/internal/healthcheck"
)

const checkTypeDependency = "dependency.configured"

// Dependency is an external service the pipeline can call.
type Dependency struct {
	Name       string
	Configured bool
	// Optional dependencies only warn when missing.
	Optional bool
}

// Checker reports whether external services have credentials configured.
type Checker struct {
	deps []Dependency
}

func NewChecker(deps ...Dependency) *Checker {
	return &Checker{deps: deps}
}

func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	out := make([]healthcheck.CheckResult, 0, len(c.deps))
	for _, d := range c.deps {
		item := healthcheck.CheckResult{
			ID:      checkTypeDependency + "." + d.Name,
			Type:    checkTypeDependency,
			Status:  healthcheck.StatusOK,
			Summary: d.Name + " is configured.",
		}
		if !d.Configured {
			item.Status = healthcheck.StatusError
			if d.Optional {
				item.Status = healthcheck.StatusWarn
			}
			item.Summary = d.Name + " is not configured."
		}
		out = append(out, item)
	}
	return out
}
