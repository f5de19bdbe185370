package history

import (
	"gorm.io/gorm"

	"github.com/polyai/polytrader/internal/journal"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SaveCycleLog(log *CycleLog) error {
	return r.db.Create(log).Error
}

func (r *Repository) RecentCycles(limit int) ([]CycleLog, error) {
	var cycles []CycleLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&cycles).Error
	return cycles, err
}

func (r *Repository) RecordSettlement(tradeID, question string, result journal.Result) error {
	return r.db.Create(&SettlementLog{
		TradeID:        tradeID,
		MarketQuestion: question,
		Result:         string(result),
	}).Error
}

func (r *Repository) RecentSettlements(limit int) ([]SettlementLog, error) {
	var rows []SettlementLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
