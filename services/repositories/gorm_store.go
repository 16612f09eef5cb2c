package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lac-hong-legacy/guessword_api/model"
	"gorm.io/gorm"
)

// GormStore keeps the tables in a SQL database. Row ids give file-order
// semantics: the most recent open session is the one with the highest id.
type GormStore struct {
	BaseRepository

	// writes are serialized in-process as well, so sqlite never sees two
	// concurrent writers from this station
	mu sync.Mutex
}

var _ RecordStore = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	models := []interface{}{
		&model.SessionRecord{},
		&model.DistributionRecord{},
		&model.GiftReceipt{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("migrate record tables: %w", err)
	}
	return &GormStore{BaseRepository: NewBaseRepository(db)}, nil
}

func (s *GormStore) AppendSession(ctx context.Context, rec model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = 0
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("append %s: %w", TableSessions, err)
	}
	return nil
}

func (s *GormStore) Sessions(ctx context.Context) (ParseResult[model.SessionRecord], error) {
	records := []model.SessionRecord{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&records).Error; err != nil {
		return ParseResult[model.SessionRecord]{}, fmt.Errorf("read %s: %w", TableSessions, err)
	}
	return ParseResult[model.SessionRecord]{Records: records}, nil
}

func (s *GormStore) FinalizeSession(ctx context.Context, identity model.Identity, status model.SessionStatus, elapsedSeconds int) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("finalize with non-terminal status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.SessionRecord
		err := tx.Where("handle = ? AND contact = ? AND status = ?", identity.Handle, identity.Contact, model.SessionInProgress).
			Order("id desc").
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		result := tx.Model(&model.SessionRecord{}).
			Where("id = ? AND status = ?", rec.ID, model.SessionInProgress).
			Updates(map[string]interface{}{
				"status":          status,
				"elapsed_seconds": elapsedSeconds,
			})
		if result.Error != nil {
			return result.Error
		}
		found = result.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("finalize %s: %w", TableSessions, err)
	}
	return found, nil
}

func (s *GormStore) AppendDistribution(ctx context.Context, rec model.DistributionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = 0
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("append %s: %w", TableDistributions, err)
	}
	return nil
}

func (s *GormStore) Distributions(ctx context.Context) (ParseResult[model.DistributionRecord], error) {
	records := []model.DistributionRecord{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&records).Error; err != nil {
		return ParseResult[model.DistributionRecord]{}, fmt.Errorf("read %s: %w", TableDistributions, err)
	}
	return ParseResult[model.DistributionRecord]{Records: records}, nil
}

func (s *GormStore) AppendGiftReceipts(ctx context.Context, receipts []model.GiftReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]model.GiftReceipt, len(receipts))
	for i, rec := range receipts {
		rec.ID = 0
		rows[i] = rec
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("append %s: %w", TableGiftReceipts, err)
	}
	return nil
}

func (s *GormStore) GiftReceipts(ctx context.Context) (ParseResult[model.GiftReceipt], error) {
	records := []model.GiftReceipt{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&records).Error; err != nil {
		return ParseResult[model.GiftReceipt]{}, fmt.Errorf("read %s: %w", TableGiftReceipts, err)
	}
	return ParseResult[model.GiftReceipt]{Records: records}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
