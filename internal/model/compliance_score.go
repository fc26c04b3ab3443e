package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ComplianceLevel enum constants
const (
	LevelExcellent = "EXCELLENT"
	LevelGood      = "GOOD"
	LevelFair      = "FAIR"
	LevelPoor      = "POOR"
	LevelNew       = "NEW"
)

// ComplianceScore holds the running filing/payment statistics for one taxpayer.
// One row per user, created with zero counters at registration. Invariant:
// TotalFilings = OnTimeFilings + LateFilings after every update.
type ComplianceScore struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID" json:"-"`

	OverallScore        int `gorm:"not null;default:0" json:"overall_score"` // 0-100
	TimelyFilingScore   int `gorm:"not null;default:0" json:"timely_filing_score"`
	AccuracyScore       int `gorm:"not null;default:0" json:"accuracy_score"`
	PaymentHistoryScore int `gorm:"not null;default:0" json:"payment_history_score"`
	EngagementScore     int `gorm:"not null;default:0" json:"engagement_score"`

	TotalFilings             int `gorm:"not null;default:0" json:"total_filings"`
	OnTimeFilings            int `gorm:"not null;default:0" json:"on_time_filings"`
	LateFilings              int `gorm:"not null;default:0" json:"late_filings"`
	TotalPayments            int `gorm:"not null;default:0" json:"total_payments"`
	OnTimePayments           int `gorm:"not null;default:0" json:"on_time_payments"`
	LatePayments             int `gorm:"not null;default:0" json:"late_payments"`
	ConsecutiveOnTimeFilings int `gorm:"not null;default:0" json:"consecutive_on_time_filings"`

	Badges    string    `gorm:"type:text;not null;default:'[]'" json:"badges"` // JSON array, insertion order preserved
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

func (s *ComplianceScore) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Badges == "" {
		s.Badges = "[]"
	}
	return nil
}

// ComplianceLevel maps an overall score to its qualitative level. A taxpayer
// with no filings yet is NEW regardless of score.
func ComplianceLevel(score, totalFilings int) string {
	if totalFilings == 0 {
		return LevelNew
	}
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 70:
		return LevelGood
	case score >= 50:
		return LevelFair
	default:
		return LevelPoor
	}
}
