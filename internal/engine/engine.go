package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Engine orchestrates the approval workflow over a transactional store.
type Engine struct {
	store    TxStore
	notifier Notifier
}

// New creates an Engine. A nil notifier disables notifications.
func New(store TxStore, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{store: store, notifier: notifier}
}

// newID generates a time-ordered unique id.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}
