package detect

import (
	"fmt"
)

// TransportError reports a network or HTTP failure against one tier.
// Recoverable: the invoker advances to the next tier.
type TransportError struct {
	TierID string
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("tier %s: scoring API returned status %d", e.TierID, e.Status)
	}
	return fmt.Sprintf("tier %s: %v", e.TierID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// EmptyReplyError reports a successful call that produced no generated
// text. Treated exactly like a transport failure for tier fallback.
type EmptyReplyError struct {
	TierID string
}

func (e *EmptyReplyError) Error() string {
	return fmt.Sprintf("tier %s: reply contained no generated text", e.TierID)
}

// AllTiersExhaustedError is fatal: every tier in the chain failed.
// Last carries the final underlying failure.
type AllTiersExhaustedError struct {
	Attempts int
	Last     error
}

func (e *AllTiersExhaustedError) Error() string {
	return fmt.Sprintf("all %d model tiers exhausted: %v", e.Attempts, e.Last)
}

func (e *AllTiersExhaustedError) Unwrap() error { return e.Last }
