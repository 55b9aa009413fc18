package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultMaxAttempts    = 3
	DefaultRetryDelay     = time.Second
	DefaultPendingTimeout = 5 * time.Second
	DefaultPendingPoll    = time.Second
)

type RequesterConfig struct {
	MaxAttempts    int
	RetryDelay     time.Duration
	PendingTimeout time.Duration
	PendingPoll    time.Duration
}

func DefaultRequesterConfig() RequesterConfig {
	return RequesterConfig{
		MaxAttempts:    DefaultMaxAttempts,
		RetryDelay:     DefaultRetryDelay,
		PendingTimeout: DefaultPendingTimeout,
		PendingPoll:    DefaultPendingPoll,
	}
}

func (c RequesterConfig) normalized() RequesterConfig {
	def := DefaultRequesterConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.PendingTimeout <= 0 {
		c.PendingTimeout = def.PendingTimeout
	}
	if c.PendingPoll <= 0 {
		c.PendingPoll = def.PendingPoll
	}
	return c
}

// Requester negotiates account permission with a signing agent.
type Requester struct {
	cfg    RequesterConfig
	logger *slog.Logger
}

func NewRequester(cfg RequesterConfig, logger *slog.Logger) *Requester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Requester{cfg: cfg.normalized(), logger: logger}
}

// RequestAccounts returns the agent's authorized accounts, prompting only when
// none are authorized yet. Failures wrap ErrUserRejected, ErrPendingTimeout or
// ErrTransport.
func (r *Requester) RequestAccounts(ctx context.Context, agent Agent) ([]common.Address, error) {
	if agent == nil {
		return nil, ErrAgentUnavailable
	}
	var (
		accounts     []common.Address
		attempt      int
		pendingSince time.Time
	)
	err := retry.Do(
		func() error {
			attempt++
			got, err := r.attempt(ctx, agent)
			if err == nil {
				accounts = got
				return nil
			}
			r.logger.Warn("account request attempt failed", "attempt", attempt, "tag", string(TagOf(err)), "error", err)
			switch TagOf(err) {
			case TagUserRejected:
				return retry.Unrecoverable(err)
			case TagPending:
				if pendingSince.IsZero() {
					pendingSince = time.Now()
				}
				cleared, waitErr := r.waitPending(ctx, agent, pendingSince)
				if waitErr != nil {
					return retry.Unrecoverable(waitErr)
				}
				if len(cleared) > 0 {
					accounts = cleared
					return nil
				}
				if time.Since(pendingSince) >= r.cfg.PendingTimeout {
					return retry.Unrecoverable(err)
				}
				return err
			default:
				return err
			}
		},
		retry.Context(ctx),
		retry.Attempts(uint(r.cfg.MaxAttempts)),
		retry.LastErrorOnly(true),
		retry.DelayType(func(_ uint, err error, _ *retry.Config) time.Duration {
			if TagOf(err) == TagPending {
				// waitPending already spent the pending poll interval.
				return 0
			}
			return r.cfg.RetryDelay
		}),
	)
	if err == nil {
		return accounts, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, ctxErr)
	}
	switch TagOf(err) {
	case TagUserRejected:
		return nil, fmt.Errorf("%w: %w", ErrUserRejected, err)
	case TagPending:
		return nil, fmt.Errorf("%w: %w", ErrPendingTimeout, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrTransport, err)
}

func (r *Requester) attempt(ctx context.Context, agent Agent) ([]common.Address, error) {
	existing, err := agent.ListAuthorizedAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	accounts, err := agent.RequestAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, transport(ErrNoAccounts)
	}
	return accounts, nil
}

// waitPending sleeps one poll interval, bounded by the pending budget that
// started at since, then checks whether the pending negotiation granted
// accounts in the meantime.
func (r *Requester) waitPending(ctx context.Context, agent Agent, since time.Time) ([]common.Address, error) {
	remaining := r.cfg.PendingTimeout - time.Since(since)
	if remaining <= 0 {
		return nil, nil
	}
	wait := r.cfg.PendingPoll
	if wait > remaining {
		wait = remaining
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	accounts, err := agent.ListAuthorizedAccounts(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, nil
	}
	return accounts, nil
}
