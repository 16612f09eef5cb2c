package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingArchiver struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (a *recordingArchiver) Snapshot(_ context.Context, at time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, at)
	return a.err
}

func TestSelectWinnersFastestThenDraw(t *testing.T) {
	sessions := []model.SessionRecord{
		session("bob", "+15550000002", model.SessionWon, 55, baseTime),
		session("carol", "+15550000003", model.SessionAbandoned, 80, baseTime.Add(time.Minute)),
		session("alice", "+15550000001", model.SessionWon, 40, baseTime.Add(2*time.Minute)),
	}

	winners := SelectWinners(sessions, nil, nil, identityPermuter{})
	assert.Equal(t, []string{"alice", "bob", "carol"}, handles(winners))
	assert.Equal(t, "+15550000001", winners[0].Contact)
}

func TestSelectWinnersOnlyThreeFastest(t *testing.T) {
	sessions := []model.SessionRecord{
		session("a", "1", model.SessionWon, 90, baseTime),
		session("b", "2", model.SessionWon, 30, baseTime),
		session("c", "3", model.SessionWon, 60, baseTime),
		session("d", "4", model.SessionWon, 10, baseTime),
	}

	winners := SelectWinners(sessions, nil, nil, reversePermuter{})
	assert.Equal(t, []string{"d", "b", "c"}, handles(winners))
}

func TestSelectWinnersTieGoesToEarliestStart(t *testing.T) {
	sessions := []model.SessionRecord{
		session("late", "1", model.SessionWon, 40, baseTime.Add(time.Hour)),
		session("early", "2", model.SessionWon, 40, baseTime),
		session("slow", "3", model.SessionWon, 41, baseTime),
	}

	winners := SelectWinners(sessions, nil, nil, identityPermuter{})
	assert.Equal(t, []string{"early", "late", "slow"}, handles(winners))
}

func TestSelectWinnersDeduplicatesHandles(t *testing.T) {
	sessions := []model.SessionRecord{
		session("alice", "+15550000001", model.SessionWon, 20, baseTime),
		session("alice", "alice@example.com", model.SessionWon, 25, baseTime.Add(time.Minute)),
		session("alice", "+15550000001", model.SessionInProgress, 0, baseTime.Add(2*time.Minute)),
		session("bob", "+15550000002", model.SessionWon, 70, baseTime.Add(3*time.Minute)),
	}

	winners := SelectWinners(sessions, nil, nil, identityPermuter{})
	assert.Equal(t, []string{"alice", "bob"}, handles(winners))
}

func TestSelectWinnersRespectsWatermark(t *testing.T) {
	lastRound := baseTime.Add(time.Hour)
	sessions := []model.SessionRecord{
		session("old-fast", "1", model.SessionWon, 5, baseTime),
		session("old-slow", "2", model.SessionWon, 500, baseTime.Add(time.Minute)),
		session("new", "3", model.SessionWon, 90, lastRound),
		session("newer", "4", model.SessionAbandoned, 10, lastRound.Add(time.Minute)),
	}
	distributions := []model.DistributionRecord{
		{DistributedAt: baseTime.Add(-time.Hour), Winners: []model.Winner{{Handle: "x"}}},
		{DistributedAt: lastRound},
	}
	receipts := []model.GiftReceipt{{Handle: "old-fast", ReceivedAt: lastRound}}

	winners := SelectWinners(sessions, distributions, receipts, identityPermuter{})
	// old-fast was already rewarded, old-slow only qualifies through tier 3
	assert.Equal(t, []string{"new", "newer", "old-slow"}, handles(winners))
}

func TestSelectWinnersRecentDrawUsesLatestContact(t *testing.T) {
	sessions := []model.SessionRecord{
		session("dave", "+15550000004", model.SessionAbandoned, 12, baseTime),
		session("erin", "+15550000005", model.SessionInProgress, 0, baseTime.Add(time.Minute)),
		session("dave", "dave@example.com", model.SessionAbandoned, 30, baseTime.Add(2*time.Minute)),
	}

	winners := SelectWinners(sessions, nil, nil, identityPermuter{})
	require.Len(t, winners, 2)
	assert.Equal(t, model.Winner{Handle: "dave", Contact: "dave@example.com"}, winners[0])
	assert.Equal(t, "erin", winners[1].Handle)

	winners = SelectWinners(sessions, nil, nil, reversePermuter{})
	assert.Equal(t, []string{"erin", "dave"}, handles(winners))
}

func TestSelectWinnersBackfillsUnrewarded(t *testing.T) {
	lastRound := baseTime.Add(24 * time.Hour)
	sessions := []model.SessionRecord{
		session("gina", "1", model.SessionWon, 50, baseTime),
		session("hugo", "2", model.SessionAbandoned, 70, baseTime.Add(time.Minute)),
		session("ivan", "3", model.SessionWon, 20, baseTime.Add(2*time.Minute)),
		session("jade", "4", model.SessionAbandoned, 10, baseTime.Add(3*time.Minute)),
	}
	distributions := []model.DistributionRecord{{DistributedAt: lastRound}}
	receipts := []model.GiftReceipt{
		{Handle: "ivan", ReceivedAt: lastRound},
		{Handle: "gina", ReceivedAt: lastRound},
	}

	winners := SelectWinners(sessions, distributions, receipts, identityPermuter{})
	assert.Equal(t, []string{"hugo", "jade"}, handles(winners))
}

func TestSelectWinnersEmpty(t *testing.T) {
	assert.Empty(t, SelectWinners(nil, nil, nil, identityPermuter{}))
}

func TestRandomPermuterIsPermutation(t *testing.T) {
	p := NewRandomPermuter()
	perm := p.Perm(10)
	require.Len(t, perm, 10)
	seen := map[int]bool{}
	for _, i := range perm {
		require.True(t, i >= 0 && i < 10)
		seen[i] = true
	}
	assert.Len(t, seen, 10)
}

type distributionFixture struct {
	svc      *DistributionService
	store    *faultyStore
	clock    *fakeClock
	archiver *recordingArchiver
}

func newDistributionFixture(t *testing.T) distributionFixture {
	t.Helper()

	f := distributionFixture{
		store:    newTestStore(t),
		clock:    newFakeClock(baseTime.Add(48 * time.Hour)),
		archiver: &recordingArchiver{},
	}
	f.svc = NewDistributionService(NewStoreServiceWith(f.store), identityPermuter{}, f.clock.Now, WithArchiver(f.archiver))
	return f
}

func (f distributionFixture) seed(t *testing.T, records ...model.SessionRecord) {
	t.Helper()
	for _, rec := range records {
		require.NoError(t, f.store.AppendSession(context.Background(), rec))
	}
}

func TestStartDistributionRecordsRound(t *testing.T) {
	f := newDistributionFixture(t)
	ctx := context.Background()
	f.seed(t,
		session("alice", "+15550000001", model.SessionWon, 40, baseTime),
		session("bob", "+15550000002", model.SessionWon, 55, baseTime.Add(time.Minute)),
		session("carol", "+15550000003", model.SessionAbandoned, 90, baseTime.Add(2*time.Minute)),
	)

	rec, err := f.svc.StartDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, handles(rec.Winners))
	assert.Equal(t, f.clock.Now(), rec.DistributedAt)

	distributions, err := f.store.Distributions(ctx)
	require.NoError(t, err)
	require.Len(t, distributions.Records, 1)
	assert.Equal(t, rec.Winners, distributions.Records[0].Winners)

	receipts, err := f.store.GiftReceipts(ctx)
	require.NoError(t, err)
	require.Len(t, receipts.Records, 3)
	for _, r := range receipts.Records {
		assert.Equal(t, rec.DistributedAt, r.ReceivedAt)
	}

	assert.Equal(t, []time.Time{rec.DistributedAt}, f.archiver.calls)

	// everyone played before the round, and all of them are now rewarded
	f.clock.Advance(time.Hour)
	_, err = f.svc.StartDistribution(ctx)
	requireAppError(t, err, 400, shared.ErrInsufficientCandidates)
}

func TestStartDistributionNeedsThreeWinners(t *testing.T) {
	f := newDistributionFixture(t)
	ctx := context.Background()
	f.seed(t,
		session("alice", "+15550000001", model.SessionWon, 40, baseTime),
		session("alice", "+15550000001", model.SessionWon, 35, baseTime.Add(time.Minute)),
		session("bob", "+15550000002", model.SessionInProgress, 0, baseTime.Add(2*time.Minute)),
	)

	_, err := f.svc.StartDistribution(ctx)
	requireAppError(t, err, 400, shared.ErrInsufficientCandidates)
	appErr, _ := shared.GetAppError(err)
	assert.Equal(t, shared.InsufficientPlayersMsg, appErr.Message)

	distributions, err := f.store.Distributions(ctx)
	require.NoError(t, err)
	assert.Empty(t, distributions.Records)
	assert.Empty(t, f.archiver.calls)
}

func TestStartDistributionReceiptFailureStillReturnsRound(t *testing.T) {
	f := newDistributionFixture(t)
	ctx := context.Background()
	f.seed(t,
		session("alice", "1", model.SessionWon, 40, baseTime),
		session("bob", "2", model.SessionWon, 55, baseTime),
		session("carol", "3", model.SessionWon, 60, baseTime),
	)
	f.store.set(func(s *faultyStore) { s.failReceipts = true })
	f.archiver.err = errors.New("bucket gone")

	rec, err := f.svc.StartDistribution(ctx)
	require.NoError(t, err)
	require.Len(t, rec.Winners, 3)

	distributions, err := f.store.Distributions(ctx)
	require.NoError(t, err)
	assert.Len(t, distributions.Records, 1)

	receipts, err := f.store.GiftReceipts(ctx)
	require.NoError(t, err)
	assert.Empty(t, receipts.Records)
}

func TestStartDistributionStoreFailure(t *testing.T) {
	f := newDistributionFixture(t)
	ctx := context.Background()
	f.seed(t,
		session("alice", "1", model.SessionWon, 40, baseTime),
		session("bob", "2", model.SessionWon, 55, baseTime),
		session("carol", "3", model.SessionWon, 60, baseTime),
	)

	f.store.set(func(s *faultyStore) { s.failDistribution = true })
	_, err := f.svc.StartDistribution(ctx)
	requireAppError(t, err, 500, shared.ErrStoreIO)

	f.store.set(func(s *faultyStore) {
		s.failDistribution = false
		s.failReadSessions = true
	})
	_, err = f.svc.StartDistribution(ctx)
	requireAppError(t, err, 500, shared.ErrStoreIO)
}

func TestDistributionLastAndHistory(t *testing.T) {
	f := newDistributionFixture(t)
	ctx := context.Background()

	last, err := f.svc.Last(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	for i, handle := range []string{"first", "second", "third"} {
		f.clock.Advance(time.Hour)
		_, err := f.svc.RecordDistribution(ctx, []model.Winner{{Handle: handle, Contact: "c"}})
		require.NoError(t, err, "round %d", i)
	}

	last, err = f.svc.Last(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "third", last.Winners[0].Handle)

	page, err := f.svc.History(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Distributions, 2)
	assert.Equal(t, "third", page.Distributions[0].Winners[0].Handle)
	assert.Equal(t, "second", page.Distributions[1].Winners[0].Handle)

	page, err = f.svc.History(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Distributions, 1)
	assert.Equal(t, "first", page.Distributions[0].Winners[0].Handle)

	page, err = f.svc.History(ctx, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Distributions)
	assert.NotNil(t, page.Distributions)
	assert.Equal(t, 3, page.Total)
}

func TestDistributionHistoryEqualTimestamps(t *testing.T) {
	f := newDistributionFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordDistribution(ctx, []model.Winner{{Handle: "older"}})
	require.NoError(t, err)
	_, err = f.svc.RecordDistribution(ctx, []model.Winner{{Handle: "newer"}})
	require.NoError(t, err)

	last, err := f.svc.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newer", last.Winners[0].Handle)
}

func TestDistributionHistoryValidation(t *testing.T) {
	f := newDistributionFixture(t)

	_, err := f.svc.History(context.Background(), 0, 10)
	requireAppError(t, err, 400, shared.ErrValidation)

	_, err = f.svc.History(context.Background(), 1, 0)
	requireAppError(t, err, 400, shared.ErrValidation)
}
