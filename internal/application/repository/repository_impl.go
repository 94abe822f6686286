package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/easyvisa/visaflow/internal/application/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, app *domain.Application) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO applications
		   (id, app_number, firstname, middlename, lastname, email, dob, nationality, passport, passport_file_name, status, submitted_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID,
		app.AppNumber,
		app.Firstname,
		app.Middlename,
		app.Lastname,
		app.Email,
		app.DOB,
		app.Nationality,
		app.Passport,
		app.PassportFileName,
		app.Status,
		app.SubmittedAt,
		app.UpdatedAt,
	).Error
}

func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, appNumber string) (*domain.Application, error) {
	var app domain.Application
	err := db.WithContext(ctx).Raw(
		`SELECT id, app_number, firstname, middlename, lastname, email, dob, nationality, passport, passport_file_name, status, submitted_at, updated_at
		 FROM applications WHERE UPPER(app_number) = UPPER(?)`,
		appNumber,
	).Scan(&app).Error
	if err != nil {
		return nil, err
	}
	if app.ID == 0 {
		return nil, nil
	}
	return &app, nil
}

func (r *repo) FindByNumberAndLastName(ctx context.Context, db *gorm.DB, appNumber, lastName string) (*domain.Application, error) {
	var app domain.Application
	err := db.WithContext(ctx).Raw(
		`SELECT id, app_number, firstname, middlename, lastname, email, dob, nationality, passport, passport_file_name, status, submitted_at, updated_at
		 FROM applications WHERE UPPER(app_number) = UPPER(?) AND LOWER(lastname) = LOWER(?)`,
		appNumber,
		lastName,
	).Scan(&app).Error
	if err != nil {
		return nil, err
	}
	if app.ID == 0 {
		return nil, nil
	}
	return &app, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Application, error) {
	var apps []domain.Application
	stmt := db.WithContext(ctx).Model(&domain.Application{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Query != "" {
		pattern := "%" + strings.ToUpper(filter.Query) + "%"
		stmt = stmt.Where(
			"UPPER(app_number) LIKE ? OR UPPER(firstname) LIKE ? OR UPPER(lastname) LIKE ? OR UPPER(email) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}
	err := stmt.
		Order("submitted_at desc, id desc").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, appNumber, status string) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE applications SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE UPPER(app_number) = UPPER(?)`,
		status,
		appNumber,
	)
	return result.RowsAffected, result.Error
}
