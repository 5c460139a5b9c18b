package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"pricehistory/internal/series"
)

// PriceModel is one aligned daily bar.
type PriceModel struct {
	ID     uint      `gorm:"primaryKey"`
	Symbol string    `gorm:"size:32;not null;uniqueIndex:price_sym_day,priority:1"`
	Day    time.Time `gorm:"not null;uniqueIndex:price_sym_day,priority:2"`

	AdjOpen  decimal.Decimal `gorm:"type:numeric;not null"`
	AdjHigh  decimal.Decimal `gorm:"type:numeric;not null"`
	AdjLow   decimal.Decimal `gorm:"type:numeric;not null"`
	AdjClose decimal.Decimal `gorm:"type:numeric;not null"`
}

func (PriceModel) TableName() string {
	return "adjusted_prices"
}

// Open connects to the SQLite database at dsn and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&PriceModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Repository stores aligned tables.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func toModel(r series.Row) PriceModel {
	return PriceModel{
		Symbol:   r.ID,
		Day:      r.Timestamp,
		AdjOpen:  r.AdjOpen,
		AdjHigh:  r.AdjHigh,
		AdjLow:   r.AdjLow,
		AdjClose: r.AdjClose,
	}
}

// UpsertTable writes every row of t, replacing prices already stored for
// the same symbol and day.
func (r *Repository) UpsertTable(ctx context.Context, t *series.Table) error {
	if t.Len() == 0 {
		return nil
	}
	ms := make([]PriceModel, 0, t.Len())
	for _, row := range t.Rows {
		m := toModel(row)
		m.Symbol = t.Symbol
		ms = append(ms, m)
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"adj_open", "adj_high", "adj_low", "adj_close"}),
	}).CreateInBatches(&ms, 500).Error
}

// Find returns the stored rows of symbol, oldest first.
func (r *Repository) Find(ctx context.Context, symbol string) (*series.Table, error) {
	var rows []PriceModel
	if err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("day ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	t := &series.Table{Symbol: symbol, Rows: make([]series.Row, 0, len(rows))}
	for _, m := range rows {
		t.Rows = append(t.Rows, series.Row{
			Timestamp: series.Day(m.Day),
			ID:        m.Symbol,
			AdjOpen:   m.AdjOpen,
			AdjHigh:   m.AdjHigh,
			AdjLow:    m.AdjLow,
			AdjClose:  m.AdjClose,
		})
	}
	return t, nil
}
