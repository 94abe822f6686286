package domain

import (
	"context"
	"errors"
)

type SubmitRequest struct {
	AppNumber        string
	Firstname        string
	Middlename       string
	Lastname         string
	Email            string
	DOB              string
	Nationality      string
	Passport         string
	PassportFileName string
}

type TrackRequest struct {
	AppNumber string
	LastName  string
}

type TrackResponse struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

type UpdateStatusRequest struct {
	AppNumber string
	Status    string
}

type ListFilter struct {
	Status string
	Query  string
	Limit  int
	Offset int
}

type Service interface {
	Submit(context.Context, SubmitRequest) (Application, error)
	Track(context.Context, TrackRequest) (TrackResponse, error)
	List(context.Context, ListFilter) ([]Application, error)
	UpdateStatus(context.Context, UpdateStatusRequest) (Application, error)
}

var (
	ErrInvalidFirstName     = errors.New("invalid_firstname")
	ErrInvalidLastName      = errors.New("invalid_lastname")
	ErrInvalidEmail         = errors.New("invalid_email")
	ErrInvalidAppNumber     = errors.New("invalid_app_number")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrPaymentRequired      = errors.New("payment_required")
	ErrDuplicateApplication = errors.New("duplicate_application")
	ErrNotFound             = errors.New("not_found")
	ErrNotificationFailed   = errors.New("notification_failed")
)
