package events

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogListener writes a structured record of every consent change, including
// the per-category diff on updates.
type LogListener struct {
	logger *logrus.Logger
}

// NewLogListener creates a listener that logs consent changes
func NewLogListener(logger *logrus.Logger) *LogListener {
	return &LogListener{logger: logger}
}

// OnConsentChanged implements the Listener interface
func (l *LogListener) OnConsentChanged(_ context.Context, event ConsentChangedEvent) error {
	fields := logrus.Fields{"event": event.Name}
	if event.Old != nil {
		fields["old_policy_version"] = event.Old.Version()
	}
	if event.New != nil {
		fields["new_policy_version"] = event.New.Version()
	}

	switch {
	case event.IsInitialConsent():
		fields["accepted_categories"] = acceptedCategories(event)
		l.logger.WithFields(fields).Info("User gave initial consent")
	case event.IsRevocation():
		l.logger.WithFields(fields).Info("User revoked all consent")
	default:
		changes := consentChanges(event)
		if len(changes) == 0 {
			return nil
		}
		fields["changes"] = changes
		l.logger.WithFields(fields).Info("User updated consent preferences")
	}

	return nil
}

func acceptedCategories(event ConsentChangedEvent) []string {
	accepted := []string{}
	for id, consented := range event.New.Categories() {
		if consented {
			accepted = append(accepted, id)
		}
	}
	return accepted
}

// consentChanges returns category -> new value for every category whose
// decision differs between old and new.
func consentChanges(event ConsentChangedEvent) map[string]bool {
	oldCategories := event.Old.Categories()
	newCategories := event.New.Categories()

	changes := make(map[string]bool)
	for id, newValue := range newCategories {
		oldValue, existed := oldCategories[id]
		if !existed || oldValue != newValue {
			changes[id] = newValue
		}
	}
	for id := range oldCategories {
		if _, still := newCategories[id]; !still {
			changes[id] = false
		}
	}
	return changes
}
