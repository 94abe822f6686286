package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Review statuses an application moves through. New submissions always
// start in StatusPendingReview; only the admin surface moves them on.
const (
	StatusPendingReview = "Pending Review"
	StatusApproved      = "Approved"
	StatusRejected      = "Rejected"
)

// ValidStatus reports whether value is one of the review statuses.
func ValidStatus(value string) bool {
	switch value {
	case StatusPendingReview, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

type Application struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	AppNumber        string       `gorm:"column:app_number;not null;uniqueIndex" json:"app_number"`
	Firstname        string       `gorm:"not null" json:"firstname"`
	Middlename       string       `json:"middlename,omitempty"`
	Lastname         string       `gorm:"not null" json:"lastname"`
	Email            string       `gorm:"not null" json:"email"`
	DOB              string       `gorm:"column:dob" json:"dob,omitempty"`
	Nationality      string       `json:"nationality,omitempty"`
	Passport         string       `json:"passport,omitempty"`
	PassportFileName string       `gorm:"column:passport_file_name" json:"passport_file_name,omitempty"`
	Status           string       `gorm:"not null;default:'Pending Review'" json:"status"`
	SubmittedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"submitted_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Application) TableName() string {
	return "applications"
}
