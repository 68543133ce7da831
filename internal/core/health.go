package core

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// healthCheckTimeout is the maximum time allowed for all health probes to complete.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is a dependency the service needs to answer requests.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

type probeFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (p probeFunc) Name() string                    { return p.name }
func (p probeFunc) Check(ctx context.Context) error { return p.fn(ctx) }

// NewProbe adapts fn (for example a pool's Ping) to a HealthProbe.
func NewProbe(name string, fn func(ctx context.Context) error) HealthProbe {
	return probeFunc{name: name, fn: fn}
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs every probe concurrently under a 2 second deadline.
// It returns 200 when all pass and 503 when any fails or times out.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	type result struct {
		idx int
		err error
	}
	results := make(chan result, len(s.HealthProbes))
	for i, p := range s.HealthProbes {
		go func() {
			results <- result{idx: i, err: runProbe(ctx, p)}
		}()
	}

	errs := make([]error, len(s.HealthProbes))
	done := make([]bool, len(s.HealthProbes))
wait:
	for range s.HealthProbes {
		select {
		case res := <-results:
			errs[res.idx] = res.err
			done[res.idx] = true
		case <-ctx.Done():
			break wait
		}
	}

	resp := healthResponse{Status: "healthy", Components: make(map[string]componentStatus, len(s.HealthProbes))}
	for i, p := range s.HealthProbes {
		switch {
		case !done[i]:
			resp.Status = "unhealthy"
			resp.Components[p.Name()] = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		case errs[i] != nil:
			resp.Status = "unhealthy"
			resp.Components[p.Name()] = componentStatus{Status: "unhealthy", Message: errs[i].Error()}
		default:
			resp.Components[p.Name()] = componentStatus{Status: "healthy"}
		}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	JSON(w, r, status, resp)
}

func runProbe(ctx context.Context, p HealthProbe) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("probe panicked: %v", rec)
		}
	}()
	return p.Check(ctx)
}
