package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/services/repositories"
	"github.com/stretchr/testify/require"
)

var (
	baseTime  = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	errBroken = errors.New("disk on fire")
)

// faultyStore wraps a real store and fails the operations that are switched on.
type faultyStore struct {
	repositories.RecordStore

	mu                sync.Mutex
	failAppendSession bool
	failFinalize      bool
	failDistribution  bool
	failReceipts      bool
	failReadSessions  bool
}

func (s *faultyStore) set(apply func(*faultyStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply(s)
}

func (s *faultyStore) fails(flag *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *flag
}

func (s *faultyStore) AppendSession(ctx context.Context, rec model.SessionRecord) error {
	if s.fails(&s.failAppendSession) {
		return errBroken
	}
	return s.RecordStore.AppendSession(ctx, rec)
}

func (s *faultyStore) FinalizeSession(ctx context.Context, identity model.Identity, status model.SessionStatus, elapsed int) (bool, error) {
	if s.fails(&s.failFinalize) {
		return false, errBroken
	}
	return s.RecordStore.FinalizeSession(ctx, identity, status, elapsed)
}

func (s *faultyStore) Sessions(ctx context.Context) (repositories.ParseResult[model.SessionRecord], error) {
	if s.fails(&s.failReadSessions) {
		return repositories.ParseResult[model.SessionRecord]{}, errBroken
	}
	return s.RecordStore.Sessions(ctx)
}

func (s *faultyStore) AppendDistribution(ctx context.Context, rec model.DistributionRecord) error {
	if s.fails(&s.failDistribution) {
		return errBroken
	}
	return s.RecordStore.AppendDistribution(ctx, rec)
}

func (s *faultyStore) AppendGiftReceipts(ctx context.Context, receipts []model.GiftReceipt) error {
	if s.fails(&s.failReceipts) {
		return errBroken
	}
	return s.RecordStore.AppendGiftReceipts(ctx, receipts)
}

func newTestStore(t *testing.T) *faultyStore {
	t.Helper()

	dir := t.TempDir()
	store, err := repositories.NewCSVStore(filepath.Join(dir, "results", "sessions.csv"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &faultyStore{RecordStore: store}
}

// fakeClock is advanced by hand.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// identityPermuter keeps pools in their natural order.
type identityPermuter struct{}

func (identityPermuter) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// reversePermuter draws pools back to front.
type reversePermuter struct{}

func (reversePermuter) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = n - 1 - i
	}
	return out
}

func session(handle, contact string, status model.SessionStatus, elapsed int, startedAt time.Time) model.SessionRecord {
	return model.SessionRecord{
		StartedAt:      startedAt,
		Handle:         handle,
		Contact:        contact,
		Secret:         "banana",
		Status:         status,
		ElapsedSeconds: elapsed,
	}
}

func handles(winners []model.Winner) []string {
	out := make([]string, len(winners))
	for i, w := range winners {
		out[i] = w.Handle
	}
	return out
}
