package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator scripts per-model outcomes and records every attempt.
type stubGenerator struct {
	mu       sync.Mutex
	attempts []string
	respond  func(model string) (string, error)
}

func (s *stubGenerator) generate(_ context.Context, model string, _ ...genai.Part) (string, error) {
	s.mu.Lock()
	s.attempts = append(s.attempts, model)
	s.mu.Unlock()
	return s.respond(model)
}

func (s *stubGenerator) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.attempts...)
}

func testConfig(cooldown time.Duration) Config {
	return Config{
		Models:          []string{"primary", "fallback"},
		Cooldown:        cooldown,
		MinCallInterval: time.Millisecond,
		Timeout:         time.Second,
	}
}

func TestStructureUsesFirstWorkingModel(t *testing.T) {
	gen := &stubGenerator{respond: func(string) (string, error) {
		return validResponse, nil
	}}
	c := newClientWithGenerator(testConfig(time.Minute), gen, nil)

	out := c.Structure(context.Background(), Request{RawText: "TOTAL AED 125.50"})
	require.NotNil(t, out)
	assert.Equal(t, []string{"primary"}, gen.calls())
}

func TestStructureFallsBackOnModelError(t *testing.T) {
	gen := &stubGenerator{respond: func(model string) (string, error) {
		if model == "primary" {
			return "", errors.New("internal server error")
		}
		return validResponse, nil
	}}
	c := newClientWithGenerator(testConfig(time.Minute), gen, nil)

	out := c.Structure(context.Background(), Request{RawText: "TOTAL AED 125.50"})
	require.NotNil(t, out)
	assert.Equal(t, []string{"primary", "fallback"}, gen.calls())
}

func TestStructureAllModelsFailReturnsNil(t *testing.T) {
	gen := &stubGenerator{respond: func(string) (string, error) {
		return "", errors.New("internal server error")
	}}
	c := newClientWithGenerator(testConfig(time.Minute), gen, nil)

	assert.Nil(t, c.Structure(context.Background(), Request{RawText: "x"}))
	// Non-rate-limit failures never open the breaker.
	assert.False(t, c.breaker.Open())
}

func TestStructureRateLimitOpensBreaker(t *testing.T) {
	gen := &stubGenerator{respond: func(string) (string, error) {
		return "", errors.New("googleapi: Error 429: quota exceeded")
	}}
	c := newClientWithGenerator(testConfig(time.Minute), gen, nil)

	assert.Nil(t, c.Structure(context.Background(), Request{RawText: "x"}))
	assert.True(t, c.breaker.Open())
	// Rate limit aborts the chain before the fallback model is tried.
	assert.Equal(t, []string{"primary"}, gen.calls())

	// While open, calls short-circuit without reaching the backend.
	assert.Nil(t, c.Structure(context.Background(), Request{RawText: "x"}))
	assert.Equal(t, []string{"primary"}, gen.calls())
}

func TestStructureBreakerReopensAfterCooldown(t *testing.T) {
	failing := true
	gen := &stubGenerator{respond: func(string) (string, error) {
		if failing {
			return "", errors.New("RESOURCE_EXHAUSTED")
		}
		return validResponse, nil
	}}
	c := newClientWithGenerator(testConfig(30*time.Millisecond), gen, nil)

	assert.Nil(t, c.Structure(context.Background(), Request{RawText: "x"}))
	require.True(t, c.breaker.Open())

	failing = false
	time.Sleep(50 * time.Millisecond)

	out := c.Structure(context.Background(), Request{RawText: "x"})
	require.NotNil(t, out)
	assert.False(t, c.breaker.Open())
}

func TestStructureNotConfigured(t *testing.T) {
	c := newClientWithGenerator(testConfig(time.Minute), nil, nil)
	assert.Nil(t, c.Structure(context.Background(), Request{RawText: "x"}))
}

func TestStructureBadJSONReturnsNil(t *testing.T) {
	gen := &stubGenerator{respond: func(string) (string, error) {
		return "no json here", nil
	}}
	c := newClientWithGenerator(testConfig(time.Minute), gen, nil)
	assert.Nil(t, c.Structure(context.Background(), Request{RawText: "x"}))
}

func TestStructureThrottlesConsecutiveCalls(t *testing.T) {
	gen := &stubGenerator{respond: func(string) (string, error) {
		return validResponse, nil
	}}
	cfg := testConfig(time.Minute)
	cfg.MinCallInterval = 50 * time.Millisecond
	c := newClientWithGenerator(cfg, gen, nil)

	start := time.Now()
	require.NotNil(t, c.Structure(context.Background(), Request{RawText: "x"}))
	require.NotNil(t, c.Structure(context.Background(), Request{RawText: "x"}))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, IsRateLimit(errors.New("Error 429: too many requests")))
	assert.True(t, IsRateLimit(errors.New("quota exceeded for project")))
	assert.True(t, IsRateLimit(errors.New("RESOURCE_EXHAUSTED")))
	assert.False(t, IsRateLimit(errors.New("internal server error")))
	assert.False(t, IsRateLimit(nil))
}
