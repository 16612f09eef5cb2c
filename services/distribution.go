package services

import (
	"cmp"
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/services/repositories"
	"github.com/lac-hong-legacy/guessword_api/shared"
	log "github.com/sirupsen/logrus"
)

// Permuter draws the fallback tiers. Perm returns a permutation of [0, n).
type Permuter interface {
	Perm(n int) []int
}

type lockedPermuter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPermuter returns a Permuter seeded from crypto/rand.
func NewRandomPermuter() Permuter {
	var seed [32]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		binary.LittleEndian.PutUint64(seed[:8], uint64(time.Now().UnixNano()))
	}
	return &lockedPermuter{rng: rand.New(rand.NewChaCha8(seed))}
}

func (p *lockedPermuter) Perm(n int) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Perm(n)
}

type Archiver interface {
	Snapshot(ctx context.Context, at time.Time) error
}

type WinnerNotifier interface {
	NotifyWinners(rec model.DistributionRecord) int
}

// DistributionService picks and records prize winners and serves the
// distribution history.
type DistributionService struct {
	appContext.DefaultService

	storeSvc *StoreService
	archiver Archiver
	notifier WinnerNotifier
	permuter Permuter
	now      func() time.Time

	// one round at a time, so two rounds never draw from the same state
	mu sync.Mutex
}

const DISTRIBUTION_SVC = "distribution_svc"

type DistributionOption func(*DistributionService)

func WithArchiver(archiver Archiver) DistributionOption {
	return func(svc *DistributionService) { svc.archiver = archiver }
}

func WithWinnerNotifier(notifier WinnerNotifier) DistributionOption {
	return func(svc *DistributionService) { svc.notifier = notifier }
}

func NewDistributionService(storeSvc *StoreService, permuter Permuter, now func() time.Time, opts ...DistributionOption) *DistributionService {
	svc := &DistributionService{
		storeSvc: storeSvc,
		permuter: permuter,
		now:      now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc DistributionService) Id() string {
	return DISTRIBUTION_SVC
}

func (svc *DistributionService) Configure(ctx *appContext.Context) error {
	svc.permuter = NewRandomPermuter()
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *DistributionService) Start() error {
	svc.storeSvc = svc.Service(STORE_SVC).(*StoreService)
	if archive, ok := svc.Service(ARCHIVE_SVC).(*ArchiveService); ok {
		svc.archiver = archive
	}
	if email, ok := svc.Service(EMAIL_SVC).(*EmailService); ok {
		svc.notifier = email
	}
	return nil
}

// SelectWinners computes the winners of a round without persisting anything.
func (svc *DistributionService) SelectWinners(ctx context.Context) ([]model.Winner, error) {
	store := svc.storeSvc.Store()

	sessions, err := store.Sessions(ctx)
	if err != nil {
		return nil, shared.NewStoreError(svc.storeSvc.HandleError(err, "read_sessions"), "Failed to read results")
	}
	distributions, err := store.Distributions(ctx)
	if err != nil {
		return nil, shared.NewStoreError(svc.storeSvc.HandleError(err, "read_distributions"), "Failed to read distributions")
	}
	receipts, err := store.GiftReceipts(ctx)
	if err != nil {
		return nil, shared.NewStoreError(svc.storeSvc.HandleError(err, "read_gift_receipts"), "Failed to read gift receipts")
	}
	logParseFailures(sessions.Failures)
	logParseFailures(distributions.Failures)
	logParseFailures(receipts.Failures)

	return SelectWinners(sessions.Records, distributions.Records, receipts.Records, svc.permuter), nil
}

// RecordDistribution appends the round and one gift receipt per winner. A
// receipt failure after the round was written is logged, not returned.
func (svc *DistributionService) RecordDistribution(ctx context.Context, winners []model.Winner) (*model.DistributionRecord, error) {
	store := svc.storeSvc.Store()
	rec := model.DistributionRecord{
		DistributedAt: svc.now().UTC().Truncate(time.Microsecond),
		Winners:       slices.Clone(winners),
	}

	if err := store.AppendDistribution(ctx, rec); err != nil {
		return nil, shared.NewStoreError(svc.storeSvc.HandleError(err, "append_distribution"), "Failed to record the distribution")
	}
	distributionsTotal.Inc()

	receipts := make([]model.GiftReceipt, len(winners))
	for i, winner := range winners {
		receipts[i] = model.GiftReceipt{Handle: winner.Handle, ReceivedAt: rec.DistributedAt}
	}
	if err := store.AppendGiftReceipts(ctx, receipts); err != nil {
		receiptFailuresTotal.Inc()
		log.WithFields(log.Fields{
			"distributed_at": repositories.FormatTime(rec.DistributedAt),
			"winners":        len(winners),
			"error":          err.Error(),
		}).Error("Distribution recorded but gift receipts were not; receipt ledger is incomplete")
	}

	return &rec, nil
}

// StartDistribution runs a full round: select, require every slot filled,
// record, archive a snapshot, then email the winners.
func (svc *DistributionService) StartDistribution(ctx context.Context) (*model.DistributionRecord, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	winners, err := svc.SelectWinners(ctx)
	if err != nil {
		return nil, err
	}
	if len(winners) < shared.DistributionSlots {
		log.WithField("found", len(winners)).Warn("Not enough eligible players for a distribution")
		return nil, shared.NewInsufficientCandidatesError(len(winners))
	}

	rec, err := svc.RecordDistribution(ctx, winners)
	if err != nil {
		return nil, err
	}

	if svc.archiver != nil {
		if err := svc.archiver.Snapshot(ctx, rec.DistributedAt); err != nil {
			log.Errorf("Failed to archive record snapshot: %v", err)
		}
	}
	if svc.notifier != nil {
		sent := svc.notifier.NotifyWinners(*rec)
		log.WithField("sent", sent).Debug("Winner emails processed")
	}
	return rec, nil
}

// Last returns the most recent round, or nil when none was recorded.
func (svc *DistributionService) Last(ctx context.Context) (*model.DistributionRecord, error) {
	records, err := svc.distributions(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// History pages through rounds, newest first.
func (svc *DistributionService) History(ctx context.Context, page, perPage int) (*dto.DistributionHistoryResponse, error) {
	if page < 1 || perPage < 1 {
		var details []dto.ValidationError
		if page < 1 {
			details = append(details, dto.ValidationError{Field: "page", Message: "page must be at least 1"})
		}
		if perPage < 1 {
			details = append(details, dto.ValidationError{Field: "per_page", Message: "per_page must be at least 1"})
		}
		return nil, shared.NewValidationError(errors.New("page and per_page must be at least 1"), details)
	}

	records, err := svc.distributions(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.DistributionHistoryResponse{
		Distributions: []dto.DistributionResponse{},
		Total:         len(records),
		Page:          page,
		PerPage:       perPage,
	}
	start := (page - 1) * perPage
	if start >= len(records) || start < 0 {
		return resp, nil
	}
	end := min(start+perPage, len(records))
	for _, rec := range records[start:end] {
		resp.Distributions = append(resp.Distributions, dto.NewDistributionResponse(rec))
	}
	return resp, nil
}

// distributions returns every round sorted newest first. Equal timestamps
// keep the later-written round first.
func (svc *DistributionService) distributions(ctx context.Context) ([]model.DistributionRecord, error) {
	result, err := svc.storeSvc.Store().Distributions(ctx)
	if err != nil {
		return nil, shared.NewStoreError(svc.storeSvc.HandleError(err, "read_distributions"), "Failed to read distributions")
	}
	logParseFailures(result.Failures)

	records := slices.Clone(result.Records)
	slices.Reverse(records)
	slices.SortStableFunc(records, func(a, b model.DistributionRecord) int {
		return b.DistributedAt.Compare(a.DistributedAt)
	})
	return records, nil
}

// SelectWinners fills up to three slots from three tiers in order: the
// fastest recent wins, a random draw among recent players, then a random draw
// among players never rewarded. Handles are never repeated.
func SelectWinners(sessions []model.SessionRecord, distributions []model.DistributionRecord, receipts []model.GiftReceipt, permuter Permuter) []model.Winner {
	var watermark time.Time
	for _, d := range distributions {
		if d.DistributedAt.After(watermark) {
			watermark = d.DistributedAt
		}
	}

	recent := make([]model.SessionRecord, 0, len(sessions))
	for _, rec := range sessions {
		if !rec.StartedAt.Before(watermark) {
			recent = append(recent, rec)
		}
	}

	selected := make([]model.Winner, 0, shared.DistributionSlots)
	taken := map[string]bool{}

	// tier 1: ties on elapsed time go to the earliest start
	wins := make([]model.SessionRecord, 0, len(recent))
	for _, rec := range recent {
		if rec.Status == model.SessionWon {
			wins = append(wins, rec)
		}
	}
	slices.SortStableFunc(wins, func(a, b model.SessionRecord) int {
		if c := cmp.Compare(a.ElapsedSeconds, b.ElapsedSeconds); c != 0 {
			return c
		}
		return a.StartedAt.Compare(b.StartedAt)
	})
	for _, rec := range wins {
		if len(selected) == shared.DistributionSlots {
			return selected
		}
		if taken[rec.Handle] {
			continue
		}
		taken[rec.Handle] = true
		selected = append(selected, model.Winner{Handle: rec.Handle, Contact: rec.Contact})
	}

	// tier 2
	selected = drawFrom(candidatesByHandle(recent, taken, nil), selected, taken, permuter)
	if len(selected) == shared.DistributionSlots {
		return selected
	}

	// tier 3
	rewarded := make(map[string]bool, len(receipts))
	for _, r := range receipts {
		rewarded[r.Handle] = true
	}
	return drawFrom(candidatesByHandle(sessions, taken, rewarded), selected, taken, permuter)
}

// candidatesByHandle collapses records to one candidate per handle, in first
// appearance order, carrying the most recent contact.
func candidatesByHandle(records []model.SessionRecord, taken, excluded map[string]bool) []model.Winner {
	index := map[string]int{}
	var pool []model.Winner
	for _, rec := range records {
		if taken[rec.Handle] || excluded[rec.Handle] {
			continue
		}
		if i, ok := index[rec.Handle]; ok {
			pool[i].Contact = rec.Contact
			continue
		}
		index[rec.Handle] = len(pool)
		pool = append(pool, model.Winner{Handle: rec.Handle, Contact: rec.Contact})
	}
	return pool
}

// drawFrom samples without replacement until every slot is filled or the
// pool runs out.
func drawFrom(pool, selected []model.Winner, taken map[string]bool, permuter Permuter) []model.Winner {
	need := shared.DistributionSlots - len(selected)
	if need <= 0 || len(pool) == 0 {
		return selected
	}
	for _, i := range permuter.Perm(len(pool)) {
		if need == 0 {
			break
		}
		if i < 0 || i >= len(pool) || taken[pool[i].Handle] {
			continue
		}
		taken[pool[i].Handle] = true
		selected = append(selected, pool[i])
		need--
	}
	return selected
}
