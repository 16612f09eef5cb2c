package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/shared"
	log "github.com/sirupsen/logrus"
)

const (
	LEADERBOARD_SVC = "leaderboard_svc"

	leaderboardCacheKey = "leaderboard:ranked"
	leaderboardCacheTTL = 30 * time.Second
)

type LeaderboardCache interface {
	Enabled() bool
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// LeaderboardService ranks won sessions by elapsed time. The full ranking is
// cached when a cache is configured and dropped on every new win.
type LeaderboardService struct {
	appContext.DefaultService

	storeSvc *StoreService
	cache    LeaderboardCache
}

var _ LeaderboardInvalidator = (*LeaderboardService)(nil)

func NewLeaderboardService(storeSvc *StoreService, cache LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{storeSvc: storeSvc, cache: cache}
}

func (svc LeaderboardService) Id() string {
	return LEADERBOARD_SVC
}

func (svc *LeaderboardService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *LeaderboardService) Start() error {
	svc.storeSvc = svc.Service(STORE_SVC).(*StoreService)
	if redisSvc, ok := svc.Service(REDIS_SVC).(*RedisService); ok && redisSvc.Enabled() {
		svc.cache = redisSvc
	}
	return nil
}

// Top returns the limit fastest wins, ranked from 1.
func (svc *LeaderboardService) Top(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	if limit < 1 || limit > shared.MaxLeaderboardSize {
		return nil, shared.NewValidationError(
			fmt.Errorf("limit must be between 1 and %d", shared.MaxLeaderboardSize),
			[]dto.ValidationError{{Field: "limit", Message: fmt.Sprintf("limit must be between 1 and %d", shared.MaxLeaderboardSize)}},
		)
	}

	ranked, err := svc.ranked(ctx)
	if err != nil {
		return nil, err
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (svc *LeaderboardService) ranked(ctx context.Context) ([]dto.LeaderboardEntry, error) {
	if svc.cacheEnabled() {
		var cached []dto.LeaderboardEntry
		found, err := svc.cache.GetJSON(ctx, leaderboardCacheKey, &cached)
		if err != nil {
			log.Warnf("Leaderboard cache read failed: %v", err)
		} else if found {
			return cached, nil
		}
	}

	result, err := svc.storeSvc.Store().Sessions(ctx)
	if err != nil {
		return nil, shared.NewStoreError(svc.storeSvc.HandleError(err, "read_sessions"), "Failed to read results")
	}
	logParseFailures(result.Failures)

	ranked := RankWins(result.Records)
	if svc.cacheEnabled() {
		if err := svc.cache.Set(ctx, leaderboardCacheKey, ranked, leaderboardCacheTTL); err != nil {
			log.Warnf("Leaderboard cache write failed: %v", err)
		}
	}
	return ranked, nil
}

func (svc *LeaderboardService) Invalidate(ctx context.Context) {
	if !svc.cacheEnabled() {
		return
	}
	if err := svc.cache.Delete(ctx, leaderboardCacheKey); err != nil {
		log.Warnf("Leaderboard cache invalidation failed: %v", err)
	}
}

func (svc *LeaderboardService) cacheEnabled() bool {
	return svc.cache != nil && svc.cache.Enabled()
}

// RankWins orders won sessions by elapsed time. Equal times keep storage
// order, so the earlier recorded win ranks first.
func RankWins(records []model.SessionRecord) []dto.LeaderboardEntry {
	wins := make([]model.SessionRecord, 0, len(records))
	for _, rec := range records {
		if rec.Status == model.SessionWon {
			wins = append(wins, rec)
		}
	}
	slices.SortStableFunc(wins, func(a, b model.SessionRecord) int {
		return a.ElapsedSeconds - b.ElapsedSeconds
	})

	entries := make([]dto.LeaderboardEntry, len(wins))
	for i, rec := range wins {
		entries[i] = dto.LeaderboardEntry{
			Rank:           i + 1,
			Handle:         rec.Handle,
			ElapsedSeconds: rec.ElapsedSeconds,
			StartedAt:      rec.StartedAt,
		}
	}
	return entries
}
