package health

import (
	"context"
	"time"

	corehealth "italiancorner/mydata_core/internal/core/health"
)

// probeTimeout bounds each dependency check.
const probeTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Check probes one dependency. A failing critical check marks the service
// DOWN; any other failure marks it DEGRADED.
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	checks    []Check
	startedAt time.Time
	now       func() time.Time
}

func NewService(meta Metadata, checks ...Check) *Service {
	return &Service{
		meta:      meta,
		checks:    checks,
		startedAt: time.Now().UTC(),
		now:       time.Now,
	}
}

// Status returns the current availability snapshot.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := s.now().Sub(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.Truncate(time.Second).String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, check := range s.checks {
		dep := corehealth.Dependency{Name: check.Name, Status: corehealth.StatusUp, Critical: check.Critical}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := check.Probe(probeCtx)
		cancel()

		if err != nil {
			dep.Status = corehealth.StatusDown
			dep.Error = err.Error()
			switch {
			case check.Critical:
				status.Status = corehealth.StatusDown
			case status.Status == corehealth.StatusUp:
				status.Status = corehealth.StatusDegraded
			}
		}
		status.Dependencies = append(status.Dependencies, dep)
	}

	return status
}
