package peer

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/whatsfordinner/dinner/internal/dishes"
	"github.com/whatsfordinner/dinner/internal/store"
)

// Receiver applies payloads on the companion. A payload always wins: the
// whole local list is replaced and saved, and the day-label flag mirrored.
type Receiver struct {
	model  *dishes.Model
	shared *store.Shared
	logger *log.Logger
}

// NewReceiver creates a Receiver writing into model and shared. If logger
// is nil, a default logger writing to stderr is used.
func NewReceiver(model *dishes.Model, shared *store.Shared, logger *log.Logger) (*Receiver, error) {
	if model == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if shared == nil {
		return nil, fmt.Errorf("shared store cannot be nil")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[peer] ", log.LstdFlags)
	}
	return &Receiver{model: model, shared: shared, logger: logger}, nil
}

// Apply decodes payload and replaces the local state with it. On a decode
// failure nothing changes; the error wraps ErrDecode.
func (r *Receiver) Apply(ctx context.Context, payload []byte) error {
	list, days, err := DecodePayload(payload)
	if err != nil {
		r.logger.Printf("Warning: ignoring payload: %v", err)
		return err
	}

	r.model.Replace(list)
	r.model.Flush()
	if err := r.shared.SaveDaysInsteadOfNumbers(ctx, days); err != nil {
		r.logger.Printf("Warning: failed to save day-label flag: %v", err)
	}
	r.logger.Printf("Received %d dishes", len(list))
	return nil
}
