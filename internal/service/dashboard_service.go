package service

import (
	"context"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DashboardResponse struct {
	TotalFilings     int64                    `json:"total_filings"`
	FilingsByStatus  map[string]int64         `json:"filings_by_status"`
	TotalTaxDue      float64                  `json:"total_tax_due"`
	TotalPaid        float64                  `json:"total_paid"`
	OutstandingTax   float64                  `json:"outstanding_tax"`
	Compliance       *ComplianceScoreResponse `json:"compliance"`
	RecentFilings    []model.TaxFiling        `json:"recent_filings"`
	UnreadNotices    int64                    `json:"unread_notifications"`
	PendingPayments  int64                    `json:"pending_payments"`
}

type DashboardService interface {
	GetDashboard(ctx context.Context, userID uuid.UUID) (*DashboardResponse, error)
}

type dashboardService struct {
	db         *gorm.DB
	compliance ComplianceService
}

func NewDashboardService(db *gorm.DB, compliance ComplianceService) DashboardService {
	return &dashboardService{db: db, compliance: compliance}
}

// GetDashboard aggregates the taxpayer's filing, payment and compliance
// position into one overview
func (s *dashboardService) GetDashboard(ctx context.Context, userID uuid.UUID) (*DashboardResponse, error) {
	response := &DashboardResponse{
		FilingsByStatus: make(map[string]int64),
	}

	// Filing counts broken down by status
	var statusCounts []struct {
		Status string
		Count  int64
	}
	s.db.WithContext(ctx).Table("tax_filings").
		Select("status, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&statusCounts)
	for _, sc := range statusCounts {
		response.FilingsByStatus[sc.Status] = sc.Count
		response.TotalFilings += sc.Count
	}

	// Liability across submitted (non-draft) filings
	var taxDue struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("tax_filings").
		Select("COALESCE(SUM(tax_due), 0) as value").
		Where("user_id = ? AND status != ?", userID, model.FilingDraft).
		Scan(&taxDue)
	response.TotalTaxDue = taxDue.Value

	// Settled amount across completed payments
	var paid struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("payments").
		Select("COALESCE(SUM(amount), 0) as value").
		Where("user_id = ? AND status = ?", userID, model.PaymentCompleted).
		Scan(&paid)
	response.TotalPaid = paid.Value

	response.OutstandingTax = response.TotalTaxDue - response.TotalPaid
	if response.OutstandingTax < 0 {
		response.OutstandingTax = 0
	}

	s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("user_id = ? AND status = ?", userID, model.PaymentPending).
		Count(&response.PendingPayments)

	s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&response.UnreadNotices)

	var recent []model.TaxFiling
	s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(5).
		Find(&recent)
	response.RecentFilings = recent

	compliance, err := s.compliance.GetScore(ctx, userID)
	if err == nil {
		response.Compliance = compliance
	}

	return response, nil
}
