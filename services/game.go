package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/shared"
	log "github.com/sirupsen/logrus"
)

// ActiveSession is the single game slot of the station. Starting a new game
// replaces it; a terminal transition clears it.
type ActiveSession struct {
	ID        uuid.UUID
	Identity  model.Identity
	StartedAt time.Time

	transcript []model.ChatMessage
}

type ReplyPublisher interface {
	PublishReply(reply dto.AskResponse)
}

type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context)
}

type GameService struct {
	appContext.DefaultService

	config      GameConfig
	storeSvc    *StoreService
	oracle      Oracle
	publisher   ReplyPublisher
	invalidator LeaderboardInvalidator
	now         func() time.Time

	mu     sync.Mutex
	active *ActiveSession
}

const GAME_SVC = "game_svc"

type GameOption func(*GameService)

func WithClock(now func() time.Time) GameOption {
	return func(svc *GameService) { svc.now = now }
}

func WithReplyPublisher(publisher ReplyPublisher) GameOption {
	return func(svc *GameService) { svc.publisher = publisher }
}

func WithLeaderboardInvalidator(invalidator LeaderboardInvalidator) GameOption {
	return func(svc *GameService) { svc.invalidator = invalidator }
}

func NewGameService(cfg GameConfig, storeSvc *StoreService, oracle Oracle, opts ...GameOption) *GameService {
	svc := &GameService{
		config:   cfg,
		storeSvc: storeSvc,
		oracle:   oracle,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc GameService) Id() string {
	return GAME_SVC
}

func (svc *GameService) Configure(ctx *appContext.Context) error {
	if err := ParseEnv(&svc.config); err != nil {
		return err
	}
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *GameService) Start() error {
	svc.storeSvc = svc.Service(STORE_SVC).(*StoreService)
	svc.oracle = svc.Service(ORACLE_SVC).(*OracleService)
	if stream, ok := svc.Service(STREAM_SVC).(*StreamService); ok {
		svc.publisher = stream
	}
	if leaderboard, ok := svc.Service(LEADERBOARD_SVC).(*LeaderboardService); ok {
		svc.invalidator = leaderboard
	}
	return nil
}

// StartGame registers a new attempt and makes it the active session. The
// record is appended first; if that fails the previous slot is left as is.
func (svc *GameService) StartGame(ctx context.Context, req dto.StartRequest) (*dto.StartResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, shared.NewValidationError(err, dto.FormatValidationErrors(err))
	}

	rec := model.SessionRecord{
		StartedAt: svc.now().UTC().Truncate(time.Microsecond),
		Handle:    req.Handle,
		Contact:   req.Contact(),
		Secret:    svc.config.Word,
		Status:    model.SessionInProgress,
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.storeSvc.Store().AppendSession(ctx, rec); err != nil {
		return nil, shared.NewStoreError(svc.storeSvc.HandleError(err, "append_session"), "Failed to record the game")
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	if svc.active != nil {
		log.WithFields(log.Fields{
			"previous": svc.active.Identity.Handle,
			"handle":   rec.Handle,
		}).Info("Active game replaced by a new start")
	}
	svc.active = &ActiveSession{
		ID:        id,
		Identity:  rec.Identity(),
		StartedAt: rec.StartedAt,
	}
	gamesTotal.WithLabelValues(gameEventStarted).Inc()

	log.WithFields(log.Fields{"session_id": id.String(), "handle": rec.Handle}).Info("Game started")

	return &dto.StartResponse{
		SessionID: id.String(),
		Handle:    rec.Handle,
		StartedAt: rec.StartedAt,
		Status:    string(rec.Status),
	}, nil
}

// Verify compares guess with the hidden word, ignoring case. A correct guess
// closes the active session as won.
func (svc *GameService) Verify(ctx context.Context, guess string) (bool, error) {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return false, shared.NewValidationError(errors.New("guess is required"), nil)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.active == nil {
		return false, shared.NewNoActiveSessionError()
	}
	if !strings.EqualFold(guess, strings.TrimSpace(svc.config.Word)) {
		return false, nil
	}

	if err := svc.finishLocked(ctx, model.SessionWon); err != nil {
		return false, err
	}
	gamesTotal.WithLabelValues(gameEventWon).Inc()
	if svc.invalidator != nil {
		svc.invalidator.Invalidate(ctx)
	}
	return true, nil
}

// EndGame abandons the active session.
func (svc *GameService) EndGame(ctx context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.active == nil {
		return shared.NewInvalidStateError("No game in progress")
	}
	if err := svc.finishLocked(ctx, model.SessionAbandoned); err != nil {
		return err
	}
	gamesTotal.WithLabelValues(gameEventAbandoned).Inc()
	return nil
}

// finishLocked runs the terminal transition for the active session. On a
// store failure the slot is kept so the player can retry.
func (svc *GameService) finishLocked(ctx context.Context, status model.SessionStatus) error {
	active := svc.active
	elapsed := int(svc.now().Sub(active.StartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	found, err := svc.storeSvc.Store().FinalizeSession(ctx, active.Identity, status, elapsed)
	if err != nil {
		return shared.NewStoreError(svc.storeSvc.HandleError(err, "finalize_session"), "Failed to record the result")
	}

	entry := log.WithFields(log.Fields{
		"session_id": active.ID.String(),
		"handle":     active.Identity.Handle,
		"status":     status,
		"elapsed":    elapsed,
	})
	if found {
		entry.Info("Game finished")
	} else {
		entry.Warn("No open record left for the active session")
	}

	svc.active = nil
	return nil
}

// Ask forwards question to the oracle with the session transcript. The lock
// is released during the call; the reply is kept only if the same session is
// still active. Oracle failures degrade to the fallback reply.
func (svc *GameService) Ask(ctx context.Context, question string) (*dto.AskResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, shared.NewValidationError(errors.New("question is required"), nil)
	}

	asked := model.ChatMessage{Role: model.RoleUser, Content: question}

	svc.mu.Lock()
	if svc.active == nil {
		svc.mu.Unlock()
		return nil, shared.NewNoActiveSessionError()
	}
	sessionID := svc.active.ID
	svc.active.transcript = append(svc.active.transcript, asked)
	transcript := slices.Clone(svc.active.transcript)
	svc.mu.Unlock()

	reply, err := svc.oracle.Reply(ctx, SystemPrompt(svc.config.Word), transcript)

	svc.mu.Lock()
	current := svc.active != nil && svc.active.ID == sessionID
	var resp dto.AskResponse
	if err != nil {
		oracleFailuresTotal.Inc()
		log.WithField("session_id", sessionID.String()).Errorf("Oracle failed to answer: %v", err)
		if current {
			svc.active.transcript = dropLast(svc.active.transcript, asked)
		}
		resp = dto.AskResponse{Reply: shared.OracleUnavailableReply, Degraded: true}
	} else {
		if current {
			svc.active.transcript = append(svc.active.transcript, model.ChatMessage{Role: model.RoleAssistant, Content: reply})
		}
		resp = dto.AskResponse{Reply: reply}
	}
	svc.mu.Unlock()

	if svc.publisher != nil {
		svc.publisher.PublishReply(resp)
	}
	return &resp, nil
}

// dropLast removes the most recent occurrence of msg.
func dropLast(transcript []model.ChatMessage, msg model.ChatMessage) []model.ChatMessage {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i] == msg {
			return slices.Delete(transcript, i, i+1)
		}
	}
	return transcript
}

// Current returns a copy of the active session, if any.
func (svc *GameService) Current() (ActiveSession, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.active == nil {
		return ActiveSession{}, false
	}
	return ActiveSession{
		ID:         svc.active.ID,
		Identity:   svc.active.Identity,
		StartedAt:  svc.active.StartedAt,
		transcript: slices.Clone(svc.active.transcript),
	}, true
}

// Transcript returns the conversation held for the session.
func (s ActiveSession) Transcript() []model.ChatMessage {
	return slices.Clone(s.transcript)
}
