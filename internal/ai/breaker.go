package ai

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/googleapi"
)

// ErrRateLimited marks a quota/rate-limit signal from the model API. It is
// the only error class the breaker records as a failure.
var ErrRateLimited = errors.New("rate limited")

// IsRateLimit classifies provider errors that must open the breaker.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted")
}

// Breaker guards outbound model calls. A single rate-limit failure opens it
// for the cooldown window; while open every call short-circuits without
// network I/O. The first call after the cooldown goes out, and any
// non-rate-limit outcome closes the breaker again.
//
// State is per-instance so independent pipelines (and tests) don't share it.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[string]
}

func NewBreaker(name string, cooldown time.Duration, logger *slog.Logger) *Breaker {
	if name == "" {
		name = "ai"
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.TotalFailures > 0
		},
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, ErrRateLimited)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ai.breaker.state_change", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[string](settings)}
}

// Execute runs fn under the breaker. While open it returns
// gobreaker.ErrOpenState without invoking fn.
func (b *Breaker) Execute(fn func() (string, error)) (string, error) {
	return b.cb.Execute(fn)
}

// Open reports whether calls are currently short-circuited.
func (b *Breaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}
