package sendpush

import (
	"context"
	"sync"

	"delivery-notifier/internal/models"
)

type fakeOrders struct {
	orders map[string]*models.Order
	err    error
	calls  int
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (*models.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[id], nil
}

type fakeProfiles struct {
	types map[string]string
	err   error
	calls int
}

func (f *fakeProfiles) GetUserTypes(_ context.Context, ids []string) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for _, id := range ids {
		if t, ok := f.types[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

// fakeStore is an in-memory subscription table.
type fakeStore struct {
	mu        sync.Mutex
	subs      []models.PushSubscription
	findErr   error
	deleteErr error
	finds     int
	deletes   []string
}

func (f *fakeStore) FindByUserIDs(_ context.Context, ids []string) ([]models.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.PushSubscription
	for _, s := range f.subs {
		if want[s.UserID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteByEndpoint(_ context.Context, endpoint string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, endpoint)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	kept := f.subs[:0]
	for _, s := range f.subs {
		if s.Endpoint == endpoint {
			n++
			continue
		}
		kept = append(kept, s)
	}
	f.subs = kept
	return n, nil
}

func (f *fakeStore) endpoints() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.subs))
	for i, s := range f.subs {
		out[i] = s.Endpoint
	}
	return out
}

type MockSender struct {
	SendFunc func(ctx context.Context, sub models.PushSubscription, payload []byte) error

	mu       sync.Mutex
	payloads [][]byte
	attempts map[string]int
}

func (m *MockSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	m.mu.Lock()
	if m.attempts == nil {
		m.attempts = map[string]int{}
	}
	m.attempts[sub.Endpoint]++
	m.payloads = append(m.payloads, payload)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, sub, payload)
	}
	return nil
}

type recordingAuditor struct {
	mu      sync.Mutex
	records []AuditRecord
}

func (r *recordingAuditor) Record(_ context.Context, rec AuditRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func sub(userID, endpoint string) models.PushSubscription {
	return models.PushSubscription{
		ID:       "sub-" + endpoint,
		UserID:   userID,
		Endpoint: endpoint,
		Keys:     models.SubscriptionKeys{P256dh: "p256dh", Auth: "auth"},
	}
}

func strPtr(s string) *string { return &s }
