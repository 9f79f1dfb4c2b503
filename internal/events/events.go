package events

import (
	"context"

	"github.com/masilia/consent-bundle/internal/models"
)

// EventName identifies the kind of consent transition that occurred.
type EventName string

const (
	// ConsentChanged is emitted on accept, reject and preference updates.
	ConsentChanged EventName = "consent.changed"
	// ConsentRevoked is emitted when a stored preference is cleared.
	ConsentRevoked EventName = "consent.revoked"
)

// ConsentChangedEvent carries the preference state before and after a
// transition. Old is nil for an initial decision; New is nil for a
// revocation.
type ConsentChangedEvent struct {
	Name EventName
	Old  *models.ConsentPreferences
	New  *models.ConsentPreferences
}

// IsInitialConsent reports whether this is the user's first decision.
func (e ConsentChangedEvent) IsInitialConsent() bool {
	return e.Old == nil && e.New != nil
}

// IsRevocation reports whether a stored decision was cleared.
func (e ConsentChangedEvent) IsRevocation() bool {
	return e.Old != nil && e.New == nil
}

// Listener receives consent change events. Listeners run synchronously after
// the transition has been persisted; a returned error is logged and never
// rolls the transition back.
type Listener interface {
	OnConsentChanged(ctx context.Context, event ConsentChangedEvent) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, event ConsentChangedEvent) error

// OnConsentChanged calls the wrapped function.
func (f ListenerFunc) OnConsentChanged(ctx context.Context, event ConsentChangedEvent) error {
	return f(ctx, event)
}
