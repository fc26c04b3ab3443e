package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService creates in-app notifications and pushes them to any
// open WebSocket connections of the taxpayer. Delivery failures never
// propagate to the triggering operation.
type NotificationService interface {
	SendFilingConfirmation(ctx context.Context, userID uuid.UUID, filing *model.TaxFiling)
	SendFilingReviewed(ctx context.Context, userID uuid.UUID, filing *model.TaxFiling, notes string)
	SendPaymentConfirmation(ctx context.Context, userID uuid.UUID, payment *model.Payment)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*model.Notification, error)
}

type notificationService struct {
	db  *gorm.DB
	hub *websocket.Hub
}

func NewNotificationService(db *gorm.DB, hub *websocket.Hub) NotificationService {
	return &notificationService{db: db, hub: hub}
}

func (s *notificationService) SendFilingConfirmation(ctx context.Context, userID uuid.UUID, filing *model.TaxFiling) {
	s.deliver(ctx, &model.Notification{
		UserID:   userID,
		Type:     model.NotifyFilingSubmitted,
		Title:    "Tax Filing Submitted",
		Message:  fmt.Sprintf("Your %s return for %d-%02d was submitted. Tax due: ZMW %s.", filing.TaxType, filing.TaxYear, filing.TaxPeriod, filing.TaxDue.StringFixed(2)),
		Priority: model.PriorityMedium,
	})
}

func (s *notificationService) SendFilingReviewed(ctx context.Context, userID uuid.UUID, filing *model.TaxFiling, notes string) {
	notifyType := model.NotifyFilingApproved
	title := "Tax Filing Approved"
	priority := model.PriorityMedium
	if filing.Status == model.FilingRejected {
		notifyType = model.NotifyFilingRejected
		title = "Tax Filing Rejected"
		priority = model.PriorityHigh
	}

	message := fmt.Sprintf("Your %s return for %d-%02d is now %s.", filing.TaxType, filing.TaxYear, filing.TaxPeriod, filing.Status)
	if notes != "" {
		message += " Reviewer notes: " + notes
	}

	s.deliver(ctx, &model.Notification{
		UserID:   userID,
		Type:     notifyType,
		Title:    title,
		Message:  message,
		Priority: priority,
	})
}

func (s *notificationService) SendPaymentConfirmation(ctx context.Context, userID uuid.UUID, payment *model.Payment) {
	s.deliver(ctx, &model.Notification{
		UserID:   userID,
		Type:     model.NotifyPaymentConfirmed,
		Title:    "Payment Confirmed",
		Message:  fmt.Sprintf("Your payment of ZMW %s was received. Reference: %s.", payment.Amount.StringFixed(2), payment.TransactionReference),
		Priority: model.PriorityMedium,
	})
}

// deliver persists the notification and pushes it over WebSocket.
func (s *notificationService) deliver(ctx context.Context, notification *model.Notification) {
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		log.Printf("Failed to store notification for user %s: %v", notification.UserID, err)
		return
	}

	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		log.Printf("Failed to encode notification %s: %v", notification.ID, err)
		return
	}
	s.hub.SendToUser(notification.UserID, payload)
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*model.Notification, error) {
	var notification model.Notification
	err := s.db.WithContext(ctx).First(&notification, "id = ?", notificationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: notification", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch notification: %w", err)
	}
	if notification.UserID != userID {
		return nil, ErrForbidden
	}

	if !notification.Read {
		now := time.Now().UTC()
		notification.Read = true
		notification.ReadAt = &now
		if err := s.db.WithContext(ctx).Save(&notification).Error; err != nil {
			return nil, fmt.Errorf("failed to mark notification read: %w", err)
		}
	}

	return &notification, nil
}
