package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/easyvisa/visaflow/internal/application/domain"
	"github.com/easyvisa/visaflow/internal/config"
	paymentdomain "github.com/easyvisa/visaflow/internal/payment/domain"
	"github.com/easyvisa/visaflow/internal/providers/email"
	"github.com/easyvisa/visaflow/internal/providers/slack"
	"github.com/easyvisa/visaflow/pkg/db"
)

const maxListLimit = 500

type Params struct {
	fx.In

	Cfg    config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Ledger paymentdomain.Ledger
	Email  email.Provider
	Slack  slack.Provider `optional:"true"`
}

type Service struct {
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	ledger paymentdomain.Ledger
	email  email.Provider
	slack  slack.Provider
}

func New(p Params) domain.Service {
	return &Service{
		cfg:    p.Cfg,
		db:     p.DB,
		log:    p.Log.Named("application.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		ledger: p.Ledger,
		email:  p.Email,
		slack:  p.Slack,
	}
}

// Submit validates the payload, checks the payment gate, persists the
// application and sends the confirmation email. Field validation runs
// before the ledger lookup so a missing field is never reported as a
// missing payment. A notification failure after a successful persist is
// surfaced as an error but does not roll back the record.
func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.Application, error) {
	firstname := strings.TrimSpace(req.Firstname)
	if firstname == "" {
		return domain.Application{}, domain.ErrInvalidFirstName
	}

	lastname := strings.TrimSpace(req.Lastname)
	if lastname == "" {
		return domain.Application{}, domain.ErrInvalidLastName
	}

	emailAddr := strings.TrimSpace(req.Email)
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		return domain.Application{}, domain.ErrInvalidEmail
	}

	appNumber := domain.NormalizeAppNumber(req.AppNumber)
	if !domain.ValidAppNumber(appNumber) {
		return domain.Application{}, domain.ErrInvalidAppNumber
	}

	if s.cfg.RequirePayment {
		paid, err := s.ledger.IsPaid(ctx, appNumber)
		if err != nil {
			return domain.Application{}, err
		}
		if !paid {
			return domain.Application{}, domain.ErrPaymentRequired
		}
	}

	now := time.Now().UTC()
	app := domain.Application{
		ID:               s.genID.Generate(),
		AppNumber:        appNumber,
		Firstname:        firstname,
		Middlename:       strings.TrimSpace(req.Middlename),
		Lastname:         lastname,
		Email:            emailAddr,
		DOB:              strings.TrimSpace(req.DOB),
		Nationality:      strings.TrimSpace(req.Nationality),
		Passport:         strings.TrimSpace(req.Passport),
		PassportFileName: strings.TrimSpace(req.PassportFileName),
		Status:           domain.StatusPendingReview,
		SubmittedAt:      now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, &app); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Application{}, domain.ErrDuplicateApplication
		}
		return domain.Application{}, err
	}

	s.notifyStaff(ctx, app)

	if err := s.sendConfirmation(ctx, app); err != nil {
		s.log.Error("confirmation email failed",
			zap.String("app_number", app.AppNumber),
			zap.Error(err),
		)
		return app, domain.ErrNotificationFailed
	}

	s.log.Info("application submitted", zap.String("app_number", app.AppNumber))
	return app, nil
}

// notifyStaff is best effort; a failed Slack post never fails a submission.
func (s *Service) notifyStaff(ctx context.Context, app domain.Application) {
	if s.slack == nil {
		return
	}
	message := "New visa application " + app.AppNumber + " from " + app.Firstname + " " + app.Lastname
	if err := s.slack.PostMessage(ctx, message); err != nil {
		s.log.Warn("staff notification failed",
			zap.String("app_number", app.AppNumber),
			zap.Error(err),
		)
	}
}

func (s *Service) sendConfirmation(ctx context.Context, app domain.Application) error {
	return s.email.SendTemplate(ctx, []string{app.Email}, "application_confirmation", map[string]interface{}{
		"subject":    "Your Visa Application " + app.AppNumber,
		"firstname":  app.Firstname,
		"lastname":   app.Lastname,
		"app_number": app.AppNumber,
		"status":     app.Status,
	})
}

func (s *Service) Track(ctx context.Context, req domain.TrackRequest) (domain.TrackResponse, error) {
	appNumber := domain.NormalizeAppNumber(req.AppNumber)
	if appNumber == "" {
		return domain.TrackResponse{}, domain.ErrInvalidAppNumber
	}
	lastName := strings.TrimSpace(req.LastName)
	if lastName == "" {
		return domain.TrackResponse{}, domain.ErrInvalidLastName
	}

	app, err := s.repo.FindByNumberAndLastName(ctx, s.db, appNumber, lastName)
	if err != nil {
		return domain.TrackResponse{}, err
	}
	if app == nil {
		return domain.TrackResponse{}, domain.ErrNotFound
	}

	return domain.TrackResponse{
		Status: app.Status,
		Name:   strings.TrimSpace(app.Firstname + " " + app.Lastname),
	}, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Application, error) {
	status := strings.TrimSpace(filter.Status)
	if status != "" && !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	limit := filter.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, s.db, domain.ListFilter{
		Status: status,
		Query:  strings.TrimSpace(filter.Query),
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.Application, error) {
	appNumber := domain.NormalizeAppNumber(req.AppNumber)
	if appNumber == "" {
		return domain.Application{}, domain.ErrInvalidAppNumber
	}
	if !domain.ValidStatus(req.Status) {
		return domain.Application{}, domain.ErrInvalidStatus
	}

	rows, err := s.repo.UpdateStatus(ctx, s.db, appNumber, req.Status)
	if err != nil {
		return domain.Application{}, err
	}
	if rows == 0 {
		return domain.Application{}, domain.ErrNotFound
	}

	app, err := s.repo.FindByNumber(ctx, s.db, appNumber)
	if err != nil {
		return domain.Application{}, err
	}
	if app == nil {
		return domain.Application{}, domain.ErrNotFound
	}

	s.log.Info("application status updated",
		zap.String("app_number", appNumber),
		zap.String("status", req.Status),
	)
	return *app, nil
}
