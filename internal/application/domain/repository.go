package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, app *Application) error
	FindByNumber(ctx context.Context, db *gorm.DB, appNumber string) (*Application, error)
	FindByNumberAndLastName(ctx context.Context, db *gorm.DB, appNumber, lastName string) (*Application, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Application, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, appNumber, status string) (int64, error)
}
