package peer

import (
	"context"
)

// State is the pairing state reported by the transport.
type State int

const (
	// Unpaired means no companion is set up. Pushes are skipped.
	Unpaired State = iota

	// PairedUnreachable means a companion exists but cannot take a message
	// right now.
	PairedUnreachable

	// PairedReachable means a companion is connected.
	PairedReachable
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case Unpaired:
		return "unpaired"
	case PairedUnreachable:
		return "paired (unreachable)"
	case PairedReachable:
		return "paired (reachable)"
	default:
		return "unknown"
	}
}

// Link is the transport between the phone and its companion.
//
// The channel never caches State: it asks before every send, because the
// transport owns pairing and reachability.
type Link interface {
	// State returns the current pairing state.
	State() State

	// SendMessage delivers payload to the companion right now. It returns
	// an error if delivery failed; the caller does not retry.
	//
	// Example:
	//   err := link.SendMessage(ctx, payload)
	SendMessage(ctx context.Context, payload []byte) error

	// UpdateContext replaces the pending context that the companion
	// receives on its next activation. Only the latest context is kept.
	//
	// Example:
	//   err := link.UpdateContext(ctx, payload)
	UpdateContext(ctx context.Context, payload []byte) error
}
