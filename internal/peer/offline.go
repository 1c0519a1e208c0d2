package peer

import (
	"context"
	"errors"
	"fmt"

	"github.com/whatsfordinner/dinner/internal/store"
)

// errOffline is returned by Offline.SendMessage.
var errOffline = errors.New("companion link not running in this process")

// Offline is the Link of a short-lived process that holds no connection.
// A paired companion is never reachable from it, so every push lands in
// the durable context slot for the daemon to deliver.
type Offline struct {
	shared *store.Shared
	paired bool
}

// NewOffline creates an Offline link writing the slot into shared.
func NewOffline(shared *store.Shared, paired bool) (*Offline, error) {
	if shared == nil {
		return nil, fmt.Errorf("shared store cannot be nil")
	}
	return &Offline{shared: shared, paired: paired}, nil
}

// State implements Link.
func (o *Offline) State() State {
	if !o.paired {
		return Unpaired
	}
	return PairedUnreachable
}

// SendMessage implements Link. It always fails.
func (o *Offline) SendMessage(ctx context.Context, payload []byte) error {
	return errOffline
}

// UpdateContext implements Link.
func (o *Offline) UpdateContext(ctx context.Context, payload []byte) error {
	return o.shared.SaveContext(ctx, payload)
}

var _ Link = (*Offline)(nil)
var _ Link = (*Server)(nil)

