package service

import (
	"context"
	"testing"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedNotification(t *testing.T, svc NotificationService, userID uuid.UUID) model.Notification {
	t.Helper()
	filing := &model.TaxFiling{
		TaxType:   model.TaxTypeIncomeTax,
		TaxYear:   2025,
		TaxPeriod: 6,
		TaxDue:    dec("600"),
	}
	svc.SendFilingConfirmation(context.Background(), userID, filing)

	list, total, err := svc.List(context.Background(), userID, false, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	return list[0]
}

func TestNotificationList_UnreadFilter(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	stored := seedNotification(t, svc, user.ID)
	_, err := svc.MarkRead(ctx, user.ID, stored.ID)
	require.NoError(t, err)

	svc.SendFilingConfirmation(ctx, user.ID, &model.TaxFiling{
		TaxType: model.TaxTypeVAT, TaxYear: 2025, TaxPeriod: 7, TaxDue: dec("800"),
	})

	unread, total, err := svc.List(ctx, user.ID, true, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, unread, 1)
	require.Equal(t, model.NotifyFilingSubmitted, unread[0].Type)
	require.False(t, unread[0].Read)
}

func TestNotificationMarkRead_OwnershipEnforced(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	owner := createTestUser(t, db, model.UserTypeIndividual)
	other := createTestUser(t, db, model.UserTypeIndividual)

	stored := seedNotification(t, svc, owner.ID)

	_, err := svc.MarkRead(context.Background(), other.ID, stored.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestNotificationMarkRead_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	stored := seedNotification(t, svc, user.ID)

	first, err := svc.MarkRead(ctx, user.ID, stored.ID)
	require.NoError(t, err)
	require.True(t, first.Read)
	require.NotNil(t, first.ReadAt)

	second, err := svc.MarkRead(ctx, user.ID, stored.ID)
	require.NoError(t, err)
	require.Equal(t, first.ReadAt.Unix(), second.ReadAt.Unix())
}

func TestNotificationMarkRead_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)

	_, err := svc.MarkRead(context.Background(), user.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
