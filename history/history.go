// Package history persists an audit trail of distribution attempts.
// All durable token state lives on the ledger; this is bookkeeping for
// support and reconciliation, and the service runs fine without it.
package history

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Distribution - Database model for one distribution attempt
type Distribution struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Buyer            string    `gorm:"index;size:44" json:"buyer"`
	Amount           string    `gorm:"size:32" json:"amount"`
	Signature        string    `gorm:"index;size:88" json:"signature,omitempty"`
	PaymentSignature string    `gorm:"size:88" json:"payment_signature,omitempty"`
	Status           string    `gorm:"index;size:20" json:"status"`
	ErrorKind        string    `gorm:"size:40" json:"error_kind,omitempty"`
	Details          string    `gorm:"type:text" json:"details,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Distribution) TableName() string {
	return "distributions"
}

const (
	StatusSettled = "settled"
	StatusFailed  = "failed"
)

// Open connects to the history database and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&Distribution{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return db, nil
}

// Recorder writes and reads distribution records. A nil Recorder (or
// nil database) silently skips writes so the pipeline never depends on
// the database being up.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) Record(d *Distribution) error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Create(d).Error
}

// Recent returns the latest distributions for a buyer, newest first.
func (r *Recorder) Recent(buyer string, limit int) ([]Distribution, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("database not configured")
	}
	var records []Distribution
	err := r.db.Where("buyer = ?", buyer).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
