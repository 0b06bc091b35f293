package strategy

import "context"

// Strategy is a long-running trading loop. Init establishes starting state
// from the live account, Run blocks until the context is cancelled.
type Strategy interface {
	Init(ctx context.Context) error
	Run(ctx context.Context) error
}
