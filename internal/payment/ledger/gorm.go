package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easyvisa/visaflow/internal/application/domain"
	paymentdomain "github.com/easyvisa/visaflow/internal/payment/domain"
)

// GormLedger persists paid applications so confirmed payments survive
// restarts. Inserts ignore conflicts on the primary key, which makes
// webhook redelivery a natural no-op.
type GormLedger struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) MarkPaid(ctx context.Context, entry paymentdomain.PaidApplication) error {
	entry.AppNumber = domain.NormalizeAppNumber(entry.AppNumber)
	if entry.AppNumber == "" {
		return paymentdomain.ErrInvalidEvent
	}
	if entry.PaidAt.IsZero() {
		entry.PaidAt = time.Now().UTC()
	}
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
}

func (l *GormLedger) IsPaid(ctx context.Context, appNumber string) (bool, error) {
	appNumber = domain.NormalizeAppNumber(appNumber)
	if appNumber == "" {
		return false, nil
	}
	var count int64
	err := l.db.WithContext(ctx).
		Model(&paymentdomain.PaidApplication{}).
		Where("app_number = ?", appNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
