package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/reslib/paper-metadata-api/internal/agent"
	"github.com/reslib/paper-metadata-api/internal/models"
	"github.com/reslib/paper-metadata-api/internal/utils"
)

// Policy is the tunable retry behavior. Delay before attempt n (n >= 2) is
// RetryDelay * (n-1), so waits grow linearly and never hammer the endpoint.
type Policy struct {
	MaxRetries   int
	RetryDelay   time.Duration
	ExcerptLimit int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   4,
		RetryDelay:   2 * time.Second,
		ExcerptLimit: 1200,
	}
}

// ExtractionFailedError is the terminal failure after the retry budget is
// spent. It carries the last observed error and raw response for diagnostics.
type ExtractionFailedError struct {
	Attempts int
	LastErr  error
	LastRaw  string
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("metadata extraction failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ExtractionFailedError) Unwrap() error {
	return e.LastErr
}

// state of one resolution run. Transitions:
// attempting -> validating -> succeeded
// attempting | validating -> retrying -> attempting
// retrying -> exhausted (budget spent)
type state int

const (
	stateAttempting state = iota
	stateValidating
	stateRetrying
	stateSucceeded
	stateExhausted
)

// Resolver wraps the agent client with bounded retries and validation.
// Transient failures never escape it; callers see either a validated
// ExtractionResult or a terminal *ExtractionFailedError.
type Resolver struct {
	agent  agent.Client
	policy Policy
	logger *utils.Logger

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewResolver(client agent.Client, policy Policy, logger *utils.Logger) *Resolver {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	return &Resolver{
		agent:  client,
		policy: policy,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Resolve sends a bounded excerpt of text to the agent and returns the first
// response that validates. Returns immediately on success; no delay follows
// the final failed attempt.
func (r *Resolver) Resolve(ctx context.Context, text string) (*models.ExtractionResult, error) {
	excerpt := r.excerpt(text)

	var (
		attempt int
		lastErr error
		lastRaw string
		raw     string
	)

	current := stateAttempting
	for {
		switch current {
		case stateAttempting:
			attempt++
			resp, err := r.agent.Query(ctx, excerpt)
			if err != nil {
				r.logger.Warn("Agent attempt failed",
					"attempt", attempt,
					"max_retries", r.policy.MaxRetries,
					"error", err)
				lastErr = err
				current = stateRetrying
				continue
			}
			raw = resp
			current = stateValidating

		case stateValidating:
			result, err := Validate(raw)
			if err != nil {
				r.logger.Warn("Agent response failed validation",
					"attempt", attempt,
					"error", err)
				lastErr = err
				lastRaw = raw
				current = stateRetrying
				continue
			}
			r.logger.Info("Metadata resolved",
				"attempt", attempt,
				"title", result.Title,
				"authors", len(result.Authors))
			return result, nil

		case stateRetrying:
			if attempt >= r.policy.MaxRetries {
				current = stateExhausted
				continue
			}
			if err := r.sleep(ctx, r.policy.RetryDelay*time.Duration(attempt)); err != nil {
				lastErr = err
				current = stateExhausted
				continue
			}
			current = stateAttempting

		case stateExhausted:
			return nil, &ExtractionFailedError{
				Attempts: attempt,
				LastErr:  lastErr,
				LastRaw:  lastRaw,
			}
		}
	}
}

// excerpt bounds the document text sent to the model to control cost and
// latency; titles and authors live on the first page anyway.
func (r *Resolver) excerpt(text string) string {
	limit := r.policy.ExcerptLimit
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
