package summary

import "context"

// Sink delivers a finished run's record to one notification channel.
// A delivery error never changes the run's outcome, the caller only logs it.
type Sink interface {
	Deliver(ctx context.Context, rec *Record) error
}
