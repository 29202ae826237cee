package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FailureClass tells the caller which canned apology fits a terminal failure.
type FailureClass int

const (
	// FailureDegraded: the primary vendor rejected us (auth/quota) and the
	// fallback vendor could not answer either.
	FailureDegraded FailureClass = iota
	// FailureTransient: the primary vendor hit a transient fault and the
	// stateless retry failed too.
	FailureTransient
)

// InvokeError is the terminal error of an exhausted attempt chain.
type InvokeError struct {
	Class FailureClass
	cause error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("all provider attempts failed (class %d): %v", e.Class, e.cause)
}

func (e *InvokeError) Unwrap() error { return e.cause }

// Chain drives the provider attempt sequence for one chat turn:
//
//	primary (full history + tools)
//	  auth/quota error -> fallback vendor, historyless, no tools
//	  other error      -> primary again, single stateless turn
//
// At most one hop per failure class; no backoff. This is a synchronous
// user-facing path with a tight latency budget.
type Chain struct {
	primary  ChatProvider
	fallback TextProvider
	logger   *zap.Logger
}

func NewChain(primary ChatProvider, fallback TextProvider, logger *zap.Logger) *Chain {
	return &Chain{primary: primary, fallback: fallback, logger: logger}
}

func (c *Chain) Invoke(ctx context.Context, req ChatRequest) (*Reply, error) {
	reply, err := c.primary.Chat(ctx, req)
	if err == nil {
		return reply, nil
	}

	if IsAuthOrQuota(err) {
		c.logger.Warn("primary provider rejected request, escalating to fallback",
			zap.String("provider", c.primary.Name()),
			zap.Error(err))
		if c.fallback != nil {
			text, ferr := c.fallback.Complete(ctx, req.System, req.Pending)
			if ferr == nil {
				return &Reply{Text: text}, nil
			}
			c.logger.Error("fallback provider failed",
				zap.String("provider", c.fallback.Name()),
				zap.Error(ferr))
			err = ferr
		}
		return nil, &InvokeError{Class: FailureDegraded, cause: err}
	}

	c.logger.Warn("primary provider failed, retrying statelessly",
		zap.String("provider", c.primary.Name()),
		zap.Error(err))
	text, rerr := c.primary.Complete(ctx, req.System, req.Pending)
	if rerr == nil {
		return &Reply{Text: text}, nil
	}
	c.logger.Error("stateless retry failed",
		zap.String("provider", c.primary.Name()),
		zap.Error(rerr))
	return nil, &InvokeError{Class: FailureTransient, cause: rerr}
}
