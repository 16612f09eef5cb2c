package seeders

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/services/repositories"
)

// MainSeeder fills a record store with demo data
type MainSeeder struct {
	store repositories.RecordStore
	rng   *rand.Rand
	now   func() time.Time
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(store repositories.RecordStore, seed uint64) *MainSeeder {
	return &MainSeeder{
		store: store,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:   time.Now,
	}
}

// SeedSessions appends count finished or open games played over the last
// hours, for the given hidden word. Every third player abandons and every
// seventh is still playing.
func (s *MainSeeder) SeedSessions(ctx context.Context, count int, word string) error {
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}

	start := s.now().UTC().Add(-time.Duration(count) * 10 * time.Minute).Truncate(time.Microsecond)
	for i := 0; i < count; i++ {
		rec := model.SessionRecord{
			StartedAt: start.Add(time.Duration(i) * 10 * time.Minute),
			Handle:    fmt.Sprintf("joueur%02d", i+1),
			Contact:   fmt.Sprintf("+3361234%04d", i+1),
			Secret:    word,
			Status:    model.SessionWon,
		}
		switch {
		case i%7 == 6:
			rec.Status = model.SessionInProgress
		case i%3 == 2:
			rec.Status = model.SessionAbandoned
			rec.ElapsedSeconds = 30 + s.rng.IntN(300)
		default:
			rec.ElapsedSeconds = 20 + s.rng.IntN(400)
		}

		if err := s.store.AppendSession(ctx, rec); err != nil {
			return fmt.Errorf("seed session %d: %w", i+1, err)
		}
	}

	log.Printf("Seeded %d sessions", count)
	return nil
}
