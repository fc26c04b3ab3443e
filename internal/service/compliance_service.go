package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BadgeRule awards a badge once the consecutive on-time filing streak
// reaches Streak.
type BadgeRule struct {
	Streak int
	Badge  string
}

// DefaultBadgeRules is the default streak-to-badge ladder. Thresholds are
// configurable per deployment; ordering must be ascending.
var DefaultBadgeRules = []BadgeRule{
	{Streak: 3, Badge: "CONSISTENT_FILER"},
	{Streak: 6, Badge: "RELIABLE_TAXPAYER"},
	{Streak: 12, Badge: "COMPLIANCE_CHAMPION"},
}

// --- DTOs ---

type ComplianceScoreResponse struct {
	OverallScore             int      `json:"overall_score"`
	TimelyFilingScore        int      `json:"timely_filing_score"`
	AccuracyScore            int      `json:"accuracy_score"`
	PaymentHistoryScore      int      `json:"payment_history_score"`
	EngagementScore          int      `json:"engagement_score"`
	TotalFilings             int      `json:"total_filings"`
	OnTimeFilings            int      `json:"on_time_filings"`
	LateFilings              int      `json:"late_filings"`
	TotalPayments            int      `json:"total_payments"`
	OnTimePayments           int      `json:"on_time_payments"`
	LatePayments             int      `json:"late_payments"`
	ConsecutiveOnTimeFilings int      `json:"consecutive_on_time_filings"`
	ComplianceLevel          string   `json:"compliance_level"`
	Badges                   []string `json:"badges"`
	LastUpdated              string   `json:"last_updated"`
}

// --- Interface ---

// ComplianceService maintains the per-taxpayer filing and payment statistics
// and derives the composite 0-100 compliance score. Updates for the same
// taxpayer are serialized to keep the counter invariant
// (total = on-time + late) under concurrent submissions.
type ComplianceService interface {
	// EnsureScore creates the all-zero score row for a new taxpayer.
	EnsureScore(ctx context.Context, userID uuid.UUID) error
	// RecordFiling folds one submitted filing into the taxpayer's statistics.
	RecordFiling(ctx context.Context, filing *model.TaxFiling) error
	// RecordPayment folds one completed payment into the taxpayer's statistics.
	RecordPayment(ctx context.Context, userID uuid.UUID, onTime bool) error
	// GetScore returns the current snapshot; read-only.
	GetScore(ctx context.Context, userID uuid.UUID) (*ComplianceScoreResponse, error)
}

type complianceService struct {
	db         *gorm.DB
	badgeRules []BadgeRule
	locks      sync.Map // userID -> *sync.Mutex
}

func NewComplianceService(db *gorm.DB) ComplianceService {
	return &complianceService{db: db, badgeRules: DefaultBadgeRules}
}

// NewComplianceServiceWithBadges allows deployments to override the badge
// ladder.
func NewComplianceServiceWithBadges(db *gorm.DB, rules []BadgeRule) ComplianceService {
	return &complianceService{db: db, badgeRules: rules}
}

// --- Implementation ---

func (s *complianceService) EnsureScore(ctx context.Context, userID uuid.UUID) error {
	score := model.ComplianceScore{UserID: userID, Badges: "[]"}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(&score).Error
	if err != nil {
		return fmt.Errorf("failed to initialize compliance score: %w", err)
	}
	return nil
}

func (s *complianceService) RecordFiling(ctx context.Context, filing *model.TaxFiling) error {
	unlock := s.lockUser(filing.UserID)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		score, err := loadOrCreateScore(tx, filing.UserID)
		if err != nil {
			return err
		}

		score.TotalFilings++

		onTime := filing.SubmittedAt != nil &&
			!filing.SubmittedAt.After(FilingDueDate(filing.TaxYear, filing.TaxPeriod))
		if onTime {
			score.OnTimeFilings++
			score.ConsecutiveOnTimeFilings++
			s.awardBadges(score)
		} else {
			score.LateFilings++
			score.ConsecutiveOnTimeFilings = 0
		}

		score.TimelyFilingScore = ratioScore(score.OnTimeFilings, score.TotalFilings)
		score.AccuracyScore = clampScore(int(math.Round((1 - filing.RiskScore) * 100)))
		score.OverallScore = int(math.Round(float64(score.TimelyFilingScore+score.AccuracyScore) / 2))
		score.EngagementScore = engagementScore(score)

		if err := tx.Save(score).Error; err != nil {
			return fmt.Errorf("failed to update compliance score: %w", err)
		}
		return nil
	})
}

func (s *complianceService) RecordPayment(ctx context.Context, userID uuid.UUID, onTime bool) error {
	unlock := s.lockUser(userID)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		score, err := loadOrCreateScore(tx, userID)
		if err != nil {
			return err
		}

		score.TotalPayments++
		if onTime {
			score.OnTimePayments++
		} else {
			score.LatePayments++
		}

		score.PaymentHistoryScore = ratioScore(score.OnTimePayments, score.TotalPayments)
		score.EngagementScore = engagementScore(score)

		if err := tx.Save(score).Error; err != nil {
			return fmt.Errorf("failed to update compliance score: %w", err)
		}
		return nil
	})
}

func (s *complianceService) GetScore(ctx context.Context, userID uuid.UUID) (*ComplianceScoreResponse, error) {
	var score model.ComplianceScore
	err := s.db.WithContext(ctx).First(&score, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Taxpayer exists but was never scored — report the NEW baseline.
			return &ComplianceScoreResponse{
				ComplianceLevel: model.LevelNew,
				Badges:          []string{},
				LastUpdated:     time.Now().UTC().Format(time.RFC3339),
			}, nil
		}
		return nil, fmt.Errorf("failed to fetch compliance score: %w", err)
	}

	return toComplianceResponse(&score), nil
}

// --- Helpers ---

// lockUser serializes score updates per taxpayer.
func (s *complianceService) lockUser(userID uuid.UUID) func() {
	actual, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func loadOrCreateScore(tx *gorm.DB, userID uuid.UUID) (*model.ComplianceScore, error) {
	score := model.ComplianceScore{UserID: userID, Badges: "[]"}
	if err := tx.Where("user_id = ?", userID).FirstOrCreate(&score).Error; err != nil {
		return nil, fmt.Errorf("failed to load compliance score: %w", err)
	}
	return &score, nil
}

func (s *complianceService) awardBadges(score *model.ComplianceScore) {
	badges := decodeBadges(score.Badges)
	for _, rule := range s.badgeRules {
		if score.ConsecutiveOnTimeFilings >= rule.Streak && !containsBadge(badges, rule.Badge) {
			badges = append(badges, rule.Badge)
		}
	}
	encoded, _ := json.Marshal(badges)
	score.Badges = string(encoded)
}

func decodeBadges(raw string) []string {
	var badges []string
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &badges)
	}
	if badges == nil {
		badges = []string{}
	}
	return badges
}

func containsBadge(badges []string, badge string) bool {
	for _, b := range badges {
		if b == badge {
			return true
		}
	}
	return false
}

func ratioScore(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func engagementScore(score *model.ComplianceScore) int {
	engagement := 10*score.TotalFilings + 5*score.TotalPayments
	if engagement > 100 {
		engagement = 100
	}
	return engagement
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func toComplianceResponse(score *model.ComplianceScore) *ComplianceScoreResponse {
	return &ComplianceScoreResponse{
		OverallScore:             score.OverallScore,
		TimelyFilingScore:        score.TimelyFilingScore,
		AccuracyScore:            score.AccuracyScore,
		PaymentHistoryScore:      score.PaymentHistoryScore,
		EngagementScore:          score.EngagementScore,
		TotalFilings:             score.TotalFilings,
		OnTimeFilings:            score.OnTimeFilings,
		LateFilings:              score.LateFilings,
		TotalPayments:            score.TotalPayments,
		OnTimePayments:           score.OnTimePayments,
		LatePayments:             score.LatePayments,
		ConsecutiveOnTimeFilings: score.ConsecutiveOnTimeFilings,
		ComplianceLevel:          model.ComplianceLevel(score.OverallScore, score.TotalFilings),
		Badges:                   decodeBadges(score.Badges),
		LastUpdated:              score.UpdatedAt.Format(time.RFC3339),
	}
}
