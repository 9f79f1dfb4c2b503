package events

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/masilia/consent-bundle/internal/models"
)

func testDispatcher() *Dispatcher {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewDispatcher(logger)
}

// TestDispatch_AllListenersNotified tests that every subscribed listener
// sees the event.
func TestDispatch_AllListenersNotified(t *testing.T) {
	dispatcher := testDispatcher()

	var calls int
	for i := 0; i < 3; i++ {
		dispatcher.Subscribe(ListenerFunc(func(_ context.Context, _ ConsentChangedEvent) error {
			calls++
			return nil
		}))
	}

	dispatcher.Dispatch(context.Background(), ConsentChangedEvent{Name: ConsentChanged})
	assert.Equal(t, 3, calls)
}

// TestDispatch_FailingListenerDoesNotBlockOthers tests that one listener's
// error or panic never prevents the remaining listeners from running.
func TestDispatch_FailingListenerDoesNotBlockOthers(t *testing.T) {
	dispatcher := testDispatcher()

	var reached bool
	dispatcher.Subscribe(ListenerFunc(func(_ context.Context, _ ConsentChangedEvent) error {
		return errors.New("listener failed")
	}))
	dispatcher.Subscribe(ListenerFunc(func(_ context.Context, _ ConsentChangedEvent) error {
		panic("listener panicked")
	}))
	dispatcher.Subscribe(ListenerFunc(func(_ context.Context, _ ConsentChangedEvent) error {
		reached = true
		return nil
	}))

	dispatcher.Dispatch(context.Background(), ConsentChangedEvent{Name: ConsentChanged})
	assert.True(t, reached)
}

// TestConsentChangedEvent_Classification tests the initial-consent and
// revocation predicates.
func TestConsentChangedEvent_Classification(t *testing.T) {
	preferences := models.NewConsentPreferences(map[string]bool{"analytics": true}, "2.0.0")

	initial := ConsentChangedEvent{Name: ConsentChanged, New: preferences}
	assert.True(t, initial.IsInitialConsent())
	assert.False(t, initial.IsRevocation())

	update := ConsentChangedEvent{Name: ConsentChanged, Old: preferences, New: preferences}
	assert.False(t, update.IsInitialConsent())

	revocation := ConsentChangedEvent{Name: ConsentRevoked, Old: preferences}
	assert.True(t, revocation.IsRevocation())
}
