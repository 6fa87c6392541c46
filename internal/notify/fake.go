package notify

import (
	"context"
	"sync"
)

// FakeNotifier records alerts for test assertions.
type FakeNotifier struct {
	mu sync.Mutex

	// Alerts contains every alert passed to Notify, including failed ones.
	Alerts []Alert

	// NotifyError, if set, is returned by Notify.
	NotifyError error
}

// NewFakeNotifier creates a FakeNotifier for testing.
func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

// Notify records the alert.
func (f *FakeNotifier) Notify(ctx context.Context, a Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Alerts = append(f.Alerts, a)
	return f.NotifyError
}

// Count returns the number of recorded alerts.
func (f *FakeNotifier) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Alerts)
}

// Reset clears recorded alerts and errors.
func (f *FakeNotifier) Reset() {
	f.mu.Lock()
	f.Alerts = nil
	f.NotifyError = nil
	f.mu.Unlock()
}
