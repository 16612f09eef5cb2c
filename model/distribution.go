package model

import "time"

// Winner occupies one prize slot of a distribution round.
type Winner struct {
	Handle  string `json:"handle"`
	Contact string `json:"contact"`
}

// DistributionRecord is one prize round. Winners keep slot order (1..3).
type DistributionRecord struct {
	ID            uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	DistributedAt time.Time `json:"distributed_at" gorm:"not null;index"`
	Winners       []Winner  `json:"winners" gorm:"serializer:json;type:text"`
}

func (DistributionRecord) TableName() string {
	return "distribution_records"
}

// GiftReceipt marks that a handle has been rewarded at least once.
type GiftReceipt struct {
	ID         uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	Handle     string    `json:"handle" gorm:"not null;index;size:255"`
	ReceivedAt time.Time `json:"received_at" gorm:"not null"`
}

func (GiftReceipt) TableName() string {
	return "gift_receipts"
}
