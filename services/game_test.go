package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	mu      sync.Mutex
	reply   string
	err     error
	seen    [][]model.ChatMessage
	prompts []string

	// when set, Reply blocks until released
	release chan struct{}
	entered chan struct{}
}

func (o *fakeOracle) Reply(ctx context.Context, systemPrompt string, transcript []model.ChatMessage) (string, error) {
	o.mu.Lock()
	o.seen = append(o.seen, transcript)
	o.prompts = append(o.prompts, systemPrompt)
	release, entered := o.release, o.entered
	reply, err := o.reply, o.err
	o.mu.Unlock()

	if release != nil {
		entered <- struct{}{}
		<-release
	}
	return reply, err
}

type recordingPublisher struct {
	mu      sync.Mutex
	replies []dto.AskResponse
}

func (p *recordingPublisher) PublishReply(reply dto.AskResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, reply)
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (i *countingInvalidator) Invalidate(context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
}

type gameFixture struct {
	svc         *GameService
	store       *faultyStore
	clock       *fakeClock
	oracle      *fakeOracle
	publisher   *recordingPublisher
	invalidator *countingInvalidator
}

func newGameFixture(t *testing.T) gameFixture {
	t.Helper()

	f := gameFixture{
		store:       newTestStore(t),
		clock:       newFakeClock(baseTime),
		oracle:      &fakeOracle{reply: "Oui, c'est un fruit."},
		publisher:   &recordingPublisher{},
		invalidator: &countingInvalidator{},
	}
	f.svc = NewGameService(
		GameConfig{Word: "Banana"},
		NewStoreServiceWith(f.store),
		f.oracle,
		WithClock(f.clock.Now),
		WithReplyPublisher(f.publisher),
		WithLeaderboardInvalidator(f.invalidator),
	)
	return f
}

func (f gameFixture) sessions(t *testing.T) []model.SessionRecord {
	t.Helper()
	result, err := f.store.Sessions(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Failures)
	return result.Records
}

func alice() dto.StartRequest {
	return dto.StartRequest{Handle: " alice ", Phone: "+15550000001"}
}

func requireAppError(t *testing.T, err error, status int, target error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok, "expected an AppError, got %T", err)
	assert.Equal(t, status, appErr.StatusCode)
	assert.ErrorIs(t, err, target)
}

func TestGameWrongThenRightGuess(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()

	resp, err := f.svc.StartGame(ctx, alice())
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Handle)
	assert.Equal(t, string(model.SessionInProgress), resp.Status)
	assert.NotEmpty(t, resp.SessionID)

	records := f.sessions(t)
	require.Len(t, records, 1)
	assert.Equal(t, model.SessionInProgress, records[0].Status)
	assert.Equal(t, "+15550000001", records[0].Contact)
	assert.Equal(t, "Banana", records[0].Secret)

	f.clock.Advance(12 * time.Second)
	correct, err := f.svc.Verify(ctx, "cherry")
	require.NoError(t, err)
	assert.False(t, correct)

	_, active := f.svc.Current()
	assert.True(t, active, "a wrong guess keeps the game open")

	f.clock.Advance(30 * time.Second)
	correct, err = f.svc.Verify(ctx, "  bAnAnA ")
	require.NoError(t, err)
	assert.True(t, correct)

	records = f.sessions(t)
	require.Len(t, records, 1)
	assert.Equal(t, model.SessionWon, records[0].Status)
	assert.Equal(t, 42, records[0].ElapsedSeconds)

	_, active = f.svc.Current()
	assert.False(t, active)
	assert.Equal(t, 1, f.invalidator.calls)
}

func TestVerifyAfterWinHasNoSession(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartGame(ctx, alice())
	require.NoError(t, err)

	correct, err := f.svc.Verify(ctx, "banana")
	require.NoError(t, err)
	require.True(t, correct)

	_, err = f.svc.Verify(ctx, "banana")
	requireAppError(t, err, 400, shared.ErrNoActiveSession)

	records := f.sessions(t)
	require.Len(t, records, 1)
	assert.Equal(t, model.SessionWon, records[0].Status)
}

func TestEndGameTwice(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartGame(ctx, dto.StartRequest{Handle: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	f.clock.Advance(95 * time.Second)
	require.NoError(t, f.svc.EndGame(ctx))

	err = f.svc.EndGame(ctx)
	requireAppError(t, err, 400, shared.ErrInvalidState)

	records := f.sessions(t)
	require.Len(t, records, 1)
	assert.Equal(t, model.SessionAbandoned, records[0].Status)
	assert.Equal(t, 95, records[0].ElapsedSeconds)
	assert.Equal(t, "bob@example.com", records[0].Contact)
	assert.Zero(t, f.invalidator.calls)
}

func TestVerifyWithoutGame(t *testing.T) {
	f := newGameFixture(t)

	_, err := f.svc.Verify(context.Background(), "banana")
	requireAppError(t, err, 400, shared.ErrNoActiveSession)
}

func TestStartGameValidation(t *testing.T) {
	tests := []struct {
		name string
		req  dto.StartRequest
	}{
		{name: "missing handle", req: dto.StartRequest{Phone: "+15550000001"}},
		{name: "blank handle", req: dto.StartRequest{Handle: "   ", Phone: "+15550000001"}},
		{name: "missing contact", req: dto.StartRequest{Handle: "alice"}},
		{name: "bad email", req: dto.StartRequest{Handle: "alice", Email: "not-an-address"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGameFixture(t)

			_, err := f.svc.StartGame(context.Background(), tt.req)
			requireAppError(t, err, 400, shared.ErrValidation)
			assert.Empty(t, f.sessions(t))
		})
	}
}

func TestStartGameReplacesActiveSession(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()

	first, err := f.svc.StartGame(ctx, alice())
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	second, err := f.svc.StartGame(ctx, dto.StartRequest{Handle: "carol", Phone: "+15550000003"})
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	current, ok := f.svc.Current()
	require.True(t, ok)
	assert.Equal(t, "carol", current.Identity.Handle)

	correct, err := f.svc.Verify(ctx, "banana")
	require.NoError(t, err)
	require.True(t, correct)

	records := f.sessions(t)
	require.Len(t, records, 2)
	assert.Equal(t, model.SessionInProgress, records[0].Status, "the replaced attempt stays open")
	assert.Equal(t, model.SessionWon, records[1].Status)
}

func TestStoreFailureKeepsState(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()

	f.store.set(func(s *faultyStore) { s.failAppendSession = true })
	_, err := f.svc.StartGame(ctx, alice())
	requireAppError(t, err, 500, shared.ErrStoreIO)
	_, active := f.svc.Current()
	assert.False(t, active)

	f.store.set(func(s *faultyStore) { s.failAppendSession = false })
	_, err = f.svc.StartGame(ctx, alice())
	require.NoError(t, err)

	f.store.set(func(s *faultyStore) { s.failFinalize = true })
	_, err = f.svc.Verify(ctx, "banana")
	requireAppError(t, err, 500, shared.ErrStoreIO)
	_, active = f.svc.Current()
	assert.True(t, active, "the slot survives a failed finalize")

	f.store.set(func(s *faultyStore) { s.failFinalize = false })
	correct, err := f.svc.Verify(ctx, "banana")
	require.NoError(t, err)
	assert.True(t, correct)
}

func TestAskKeepsTranscript(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartGame(ctx, alice())
	require.NoError(t, err)

	resp, err := f.svc.Ask(ctx, "Est-ce un fruit ?")
	require.NoError(t, err)
	assert.Equal(t, "Oui, c'est un fruit.", resp.Reply)
	assert.False(t, resp.Degraded)

	f.oracle.mu.Lock()
	f.oracle.reply = "Non."
	f.oracle.mu.Unlock()
	_, err = f.svc.Ask(ctx, "Est-il rouge ?")
	require.NoError(t, err)

	require.Len(t, f.oracle.seen, 2)
	assert.Len(t, f.oracle.seen[1], 3)
	assert.Equal(t, SystemPrompt("Banana"), f.oracle.prompts[0])

	current, ok := f.svc.Current()
	require.True(t, ok)
	assert.Equal(t, []model.ChatMessage{
		{Role: model.RoleUser, Content: "Est-ce un fruit ?"},
		{Role: model.RoleAssistant, Content: "Oui, c'est un fruit."},
		{Role: model.RoleUser, Content: "Est-il rouge ?"},
		{Role: model.RoleAssistant, Content: "Non."},
	}, current.Transcript())

	require.Len(t, f.publisher.replies, 2)
	assert.Equal(t, "Non.", f.publisher.replies[1].Reply)
}

func TestAskOracleFailureDropsQuestion(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartGame(ctx, alice())
	require.NoError(t, err)

	f.oracle.err = errors.Join(shared.ErrOracle, context.DeadlineExceeded)
	resp, err := f.svc.Ask(ctx, "Est-ce un fruit ?")
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, shared.OracleUnavailableReply, resp.Reply)

	current, ok := f.svc.Current()
	require.True(t, ok)
	assert.Empty(t, current.Transcript())

	require.Len(t, f.publisher.replies, 1)
	assert.True(t, f.publisher.replies[0].Degraded)
}

func TestAskWithoutGame(t *testing.T) {
	f := newGameFixture(t)

	_, err := f.svc.Ask(context.Background(), "Est-ce un fruit ?")
	requireAppError(t, err, 400, shared.ErrNoActiveSession)

	_, err = f.svc.Ask(context.Background(), "  ")
	requireAppError(t, err, 400, shared.ErrValidation)
}

func TestAskReplyForReplacedSessionIsDiscarded(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartGame(ctx, alice())
	require.NoError(t, err)

	f.oracle.release = make(chan struct{})
	f.oracle.entered = make(chan struct{}, 1)

	done := make(chan *dto.AskResponse, 1)
	go func() {
		resp, err := f.svc.Ask(ctx, "Est-ce un fruit ?")
		assert.NoError(t, err)
		done <- resp
	}()

	<-f.oracle.entered
	_, err = f.svc.StartGame(ctx, dto.StartRequest{Handle: "carol", Phone: "+15550000003"})
	require.NoError(t, err)
	close(f.oracle.release)

	resp := <-done
	assert.Equal(t, "Oui, c'est un fruit.", resp.Reply)

	current, ok := f.svc.Current()
	require.True(t, ok)
	assert.Equal(t, "carol", current.Identity.Handle)
	assert.Empty(t, current.Transcript())
}

func TestConcurrentGuessesFinalizeOnce(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartGame(ctx, alice())
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			correct, err := f.svc.Verify(ctx, "banana")
			if err == nil && correct {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	records := f.sessions(t)
	require.Len(t, records, 1)
	assert.Equal(t, model.SessionWon, records[0].Status)
}
