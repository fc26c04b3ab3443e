package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/middleware"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var tpinPattern = regexp.MustCompile(`^\d{9}[A-Z]$`)

func newUserService(t *testing.T, db *gorm.DB) UserService {
	t.Helper()
	return NewUserService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		NewComplianceService(db),
		middleware.GetJWTSecret(),
	)
}

func TestRegisterIndividual(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db)
	ctx := context.Background()

	user, err := svc.RegisterIndividual(ctx, &RegisterIndividualRequest{
		Email:      "bwalya@example.com",
		Phone:      "+260977000001",
		Password:   "S3curePass!",
		FirstName:  "Bwalya",
		LastName:   "Kapeya",
		NationalID: "123456/78/9",
	})
	require.NoError(t, err)

	require.Regexp(t, tpinPattern, user.Tpin)
	require.Equal(t, model.UserTypeIndividual, user.UserType)
	require.Equal(t, model.AccountActive, user.Status)

	// Password never leaves hashed storage
	var stored model.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	require.NotEqual(t, "S3curePass!", stored.Password)

	// Zeroed compliance score created at registration
	var score model.ComplianceScore
	require.NoError(t, db.First(&score, "user_id = ?", user.ID).Error)
	require.Equal(t, 0, score.TotalFilings)

	// Registration audited
	var audits int64
	require.NoError(t, db.Model(&model.AuditLog{}).
		Where("action = ?", model.ActionRegisterTaxpayer).
		Count(&audits).Error)
	require.Equal(t, int64(1), audits)
}

func TestRegisterBusiness(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db)

	user, err := svc.RegisterBusiness(context.Background(), &RegisterBusinessRequest{
		Email:        "accounts@mulonga.co.zm",
		Phone:        "+260211000002",
		Password:     "S3curePass!",
		BusinessName: "Mulonga Trading Ltd",
	})
	require.NoError(t, err)

	require.Regexp(t, tpinPattern, user.Tpin)
	require.Equal(t, model.UserTypeBusiness, user.UserType)
	require.Equal(t, "Mulonga Trading Ltd", user.BusinessName)
}

func TestRegister_DuplicateEmailRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db)
	ctx := context.Background()

	req := &RegisterIndividualRequest{
		Email:      "dup@example.com",
		Phone:      "+260977000003",
		Password:   "S3curePass!",
		FirstName:  "First",
		LastName:   "User",
		NationalID: "111111/11/1",
	}
	_, err := svc.RegisterIndividual(ctx, req)
	require.NoError(t, err)

	req.Phone = "+260977000004"
	_, err = svc.RegisterIndividual(ctx, req)
	require.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db)
	ctx := context.Background()

	registered, err := svc.RegisterIndividual(ctx, &RegisterIndividualRequest{
		Email:      "login@example.com",
		Phone:      "+260977000005",
		Password:   "S3curePass!",
		FirstName:  "Login",
		LastName:   "Tester",
		NationalID: "222222/22/2",
	})
	require.NoError(t, err)

	// By email
	auth, err := svc.Login(ctx, &LoginRequest{Email: "login@example.com", Password: "S3curePass!"})
	require.NoError(t, err)
	require.NotEmpty(t, auth.AccessToken)
	require.NotEmpty(t, auth.RefreshToken)
	require.Equal(t, registered.ID, auth.User.ID)

	// By TPIN
	auth, err = svc.Login(ctx, &LoginRequest{Tpin: registered.Tpin, Password: "S3curePass!"})
	require.NoError(t, err)
	require.Equal(t, registered.ID, auth.User.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db)
	ctx := context.Background()

	_, err := svc.RegisterIndividual(ctx, &RegisterIndividualRequest{
		Email:      "wrongpass@example.com",
		Phone:      "+260977000006",
		Password:   "S3curePass!",
		FirstName:  "Wrong",
		LastName:   "Pass",
		NationalID: "333333/33/3",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "wrongpass@example.com", Password: "nope"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownAccount(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db)

	_, err := svc.Login(context.Background(), &LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_RotatesToken(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db)
	ctx := context.Background()

	_, err := svc.RegisterIndividual(ctx, &RegisterIndividualRequest{
		Email:      "refresh@example.com",
		Phone:      "+260977000007",
		Password:   "S3curePass!",
		FirstName:  "Re",
		LastName:   "Fresh",
		NationalID: "444444/44/4",
	})
	require.NoError(t, err)

	auth, err := svc.Login(ctx, &LoginRequest{Email: "refresh@example.com", Password: "S3curePass!"})
	require.NoError(t, err)

	renewed, err := svc.Refresh(ctx, auth.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, auth.RefreshToken, renewed.RefreshToken)

	// Old token is single-use
	_, err = svc.Refresh(ctx, auth.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout_RevokesToken(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db)
	ctx := context.Background()

	_, err := svc.RegisterIndividual(ctx, &RegisterIndividualRequest{
		Email:      "logout@example.com",
		Phone:      "+260977000008",
		Password:   "S3curePass!",
		FirstName:  "Log",
		LastName:   "Out",
		NationalID: "555555/55/5",
	})
	require.NoError(t, err)

	auth, err := svc.Login(ctx, &LoginRequest{Email: "logout@example.com", Password: "S3curePass!"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, auth.RefreshToken))

	_, err = svc.Refresh(ctx, auth.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
