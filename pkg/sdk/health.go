package abekm

import (
	"context"
	"slices"

	healthuc "github.com/arkwith7/abekm/internal/usecase/health"
)

// HealthStatus is the engine health as seen by Client.Health.
// Status is "ok", "degraded" or "error"; Checks maps each component to "ok" or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// Healthy reports whether every component answered.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Failed lists the components whose check did not pass.
func (h HealthStatus) Failed() []string {
	var out []string
	for name, v := range h.Checks {
		if v != string(healthuc.CheckOK) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Health probes the chunk store, the permission database and each configured embedder.
func (c *Client) Health(ctx context.Context) HealthStatus {
	r := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(r.Checks))
	for name, v := range r.Checks {
		checks[name] = string(v)
	}
	return HealthStatus{Status: string(r.Status), Checks: checks}
}
