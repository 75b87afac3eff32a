// Package health verifies that deployed services accept HTTP requests.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/llmdock/llmdock/internal/logger"
)

// defaultTimeout bounds each individual probe request.
const defaultTimeout = 10 * time.Second

// Target is one service endpoint to probe.
type Target struct {
	// Name identifies the service in error messages.
	Name string

	// URL is the endpoint to GET.
	URL string
}

// ProbeError reports a failed probe for a specific service.
type ProbeError struct {
	// Service is the failing target's name.
	Service string

	// Status is the HTTP status received, or 0 when the connection
	// itself failed.
	Status int

	// Err is the transport error, if any.
	Err error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s is not reachable: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("service %s returned status %d, expected 200", e.Service, e.Status)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Prober performs single-shot HTTP health checks.
//
// Each target gets exactly one GET after the settle delay; there is no
// retry or backoff. A service that needs longer to come up than the
// settle delay allows is reported as unhealthy.
type Prober struct {
	// Client issues the probe requests. Defaults to a client with a
	// 10-second timeout.
	Client *http.Client

	// Settle is the wait before the first probe, giving freshly
	// started containers time to bind their ports.
	Settle time.Duration
}

// NewProber returns a Prober with the given settle delay.
func NewProber(settle time.Duration) *Prober {
	return &Prober{
		Client: &http.Client{Timeout: defaultTimeout},
		Settle: settle,
	}
}

// Check probes every target in order and returns the first failure as a
// *ProbeError. Exactly HTTP 200 counts as healthy.
func (p *Prober) Check(ctx context.Context, targets []Target) error {
	if p.Settle > 0 {
		logger.Info("Waiting %s for services to settle", p.Settle)
		select {
		case <-time.After(p.Settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for _, target := range targets {
		if err := p.probe(ctx, target); err != nil {
			return err
		}
		logger.Info("Service %s is healthy", target.Name)
	}

	return nil
}

func (p *Prober) probe(ctx context.Context, target Target) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return &ProbeError{Service: target.Name, Err: err}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return &ProbeError{Service: target.Name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &ProbeError{Service: target.Name, Status: resp.StatusCode}
	}

	return nil
}
