package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tutorlink-api/internal/domain"
	"github.com/tutorlink-api/internal/pkg/otp"
	pkgtoken "github.com/tutorlink-api/internal/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	args := m.Called(ctx, phone)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockRefreshStore struct{ mock.Mock }

func (m *mockRefreshStore) Put(ctx context.Context, t *domain.RefreshToken) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockRefreshStore) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if t, _ := args.Get(0).(*domain.RefreshToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRefreshStore) Revoke(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}
func (m *mockRefreshStore) RevokeForRotation(ctx context.Context, tokenHash, replacedByHash string) error {
	return m.Called(ctx, tokenHash, replacedByHash).Error(0)
}
func (m *mockRefreshStore) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockResetStore struct{ mock.Mock }

func (m *mockResetStore) Put(ctx context.Context, p *domain.PasswordReset) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockResetStore) GetByHash(ctx context.Context, tokenHash string) (*domain.PasswordReset, error) {
	args := m.Called(ctx, tokenHash)
	if p, _ := args.Get(0).(*domain.PasswordReset); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockResetStore) Consume(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, phone, msg string) error {
	return m.Called(ctx, phone, msg).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

// --- builder ---

const (
	testOTPKey  = "test-otp-key"
	testHashKey = "test-hash-key"
)

func newSvc(us *mockUserStore, rs *mockRefreshStore, ps *mockResetStore, ml *mockMailer, sms *mockSMSSender, signer *mockSigner) Service {
	return NewService(ServiceDeps{
		UserRepo:        us,
		RefreshRepo:     rs,
		ResetRepo:       ps,
		Mailer:          ml,
		SMSSender:       sms,
		JWTProvider:     signer,
		OTPEngine:       otp.NewEngine(testOTPKey),
		Fingerprinter:   pkgtoken.NewFingerprinter(testHashKey),
		RefreshTokenDur: 30 * 24 * time.Hour,
		OTPTTL:          10 * time.Minute,
		ResetTokenTTL:   time.Hour,
		FrontendBaseURL: "http://localhost:5173",
	})
}

func hashPassword(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func fingerprint(raw string) string {
	return pkgtoken.NewFingerprinter(testHashKey).Fingerprint(raw)
}

func otpHash(code string) string {
	return otp.NewEngine(testOTPKey).Hash(code)
}

// --- Signup ---

func TestSignup_UnknownRole(t *testing.T) {
	svc := newSvc(nil, nil, nil, nil, nil, nil)
	_, err := svc.Signup(context.Background(), domain.SignupRequest{
		Name: "A", Email: "a@x.com", Phone: "111", Password: "pw123456", Role: "superuser",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	_, err := svc.Signup(context.Background(), domain.SignupRequest{
		Name: "A", Email: "a@x.com", Phone: "111", Password: "pw123456", Role: domain.RoleStudent,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestSignup_DuplicatePhone(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	us.On("GetByPhone", mock.Anything, "111").Return(&domain.User{UserID: "u2"}, nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	_, err := svc.Signup(context.Background(), domain.SignupRequest{
		Name: "A", Email: "a@x.com", Phone: "111", Password: "pw123456", Role: domain.RoleStudent,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestSignup_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	us.On("GetByPhone", mock.Anything, "111").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	// Email delivery is fire-and-forget; it may or may not run before the test ends.
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := newSvc(us, nil, nil, ml, nil, nil)
	u, err := svc.Signup(context.Background(), domain.SignupRequest{
		Name: "A", Email: "a@x.com", Phone: "111", Password: "pw123456", Role: domain.RoleStudent,
	})
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.NotEmpty(t, u.UserID)
	assert.False(t, u.EmailVerified)
	assert.NotEmpty(t, u.EmailOTPHash)
	assert.Greater(t, u.EmailOTPExpires, time.Now().Unix())
	assert.NotEqual(t, "pw123456", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw123456")))
	us.AssertExpectations(t)
}

// --- VerifyEmail ---

func TestVerifyEmail_UserNotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	err := svc.VerifyEmail(context.Background(), "x@x.com", "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerifyEmail_NoPendingCode(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	err := svc.VerifyEmail(context.Background(), "a@x.com", "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestVerifyEmail_ExpiredCode_FailsEvenWhenCorrect(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID:          "u1",
		EmailOTPHash:    otpHash("123456"),
		EmailOTPExpires: time.Now().Add(-time.Minute).Unix(),
	}, nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	err := svc.VerifyEmail(context.Background(), "a@x.com", "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Contains(t, err.Error(), "expired")
	us.AssertExpectations(t)
}

func TestVerifyEmail_WrongCode_ClearsPendingPair(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID:          "u1",
		EmailOTPHash:    otpHash("123456"),
		EmailOTPExpires: time.Now().Add(10 * time.Minute).Unix(),
	}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		return m["email_otp_hash"] == ""
	})).Return(nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	err := svc.VerifyEmail(context.Background(), "a@x.com", "654321")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	us.AssertExpectations(t)
}

func TestVerifyEmail_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID:          "u1",
		EmailOTPHash:    otpHash("123456"),
		EmailOTPExpires: time.Now().Add(10 * time.Minute).Unix(),
	}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		return m["email_verified"] == true && m["email_otp_hash"] == ""
	})).Return(nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	err := svc.VerifyEmail(context.Background(), "a@x.com", "123456")
	require.NoError(t, err)
	us.AssertExpectations(t)
}

// --- ResendEmailOTP ---

func TestResendEmailOTP_AlreadyVerified(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1", EmailVerified: true}, nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	err := svc.ResendEmailOTP(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResendEmailOTP_ReplacesPair(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1", Email: "a@x.com"}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		h, _ := m["email_otp_hash"].(string)
		return h != ""
	})).Return(nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := newSvc(us, nil, nil, ml, nil, nil)
	require.NoError(t, svc.ResendEmailOTP(context.Background(), "a@x.com"))
	us.AssertExpectations(t)
}

// --- Login ---

func TestLogin_UnknownIdentifier(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)
	us.On("GetByPhone", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	_, err := svc.Login(context.Background(), "ghost", "pw123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", PasswordHash: hashPassword(t, "correct-pw"), EmailVerified: true,
	}, nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	_, err := svc.Login(context.Background(), "a@x.com", "wrong-pw")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_EmailNotVerified(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", PasswordHash: hashPassword(t, "pw123456"),
	}, nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	_, err := svc.Login(context.Background(), "a@x.com", "pw123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestLogin_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	rs := &mockRefreshStore{}
	signer := &mockSigner{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", Role: domain.RoleStudent,
		PasswordHash: hashPassword(t, "pw123456"), EmailVerified: true,
	}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		_, ok := m["last_login_at"]
		return ok
	})).Return(nil)
	rs.On("Put", mock.Anything, mock.MatchedBy(func(rt *domain.RefreshToken) bool {
		return rt.UserID == "u1" && !rt.Revoked && rt.TokenHash != ""
	})).Return(nil)
	signer.On("Sign", "u1", domain.RoleStudent).Return("access-token", nil)

	svc := newSvc(us, rs, nil, nil, nil, signer)
	result, err := svc.Login(context.Background(), "a@x.com", "pw123456")
	require.NoError(t, err)

	assert.Equal(t, "access-token", result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.NotEqual(t, result.AccessToken, result.RefreshToken)
	assert.NotNil(t, result.User.LastLoginAt)
	rs.AssertExpectations(t)
}

func TestLogin_PhoneIdentifierFallback(t *testing.T) {
	us := &mockUserStore{}
	rs := &mockRefreshStore{}
	signer := &mockSigner{}
	us.On("GetByEmail", mock.Anything, "111").Return(nil, domain.ErrNotFound)
	us.On("GetByPhone", mock.Anything, "111").Return(&domain.User{
		UserID: "u1", Role: domain.RoleParent,
		PasswordHash: hashPassword(t, "pw123456"), EmailVerified: true,
	}, nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	rs.On("Put", mock.Anything, mock.Anything).Return(nil)
	signer.On("Sign", "u1", domain.RoleParent).Return("access-token", nil)

	svc := newSvc(us, rs, nil, nil, nil, signer)
	result, err := svc.Login(context.Background(), "111", "pw123456")
	require.NoError(t, err)
	assert.NotEmpty(t, result.RefreshToken)
}

// --- Refresh ---

func TestRefresh_GarbageToken(t *testing.T) {
	rs := &mockRefreshStore{}
	rs.On("GetByHash", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	svc := newSvc(nil, rs, nil, nil, nil, nil)
	_, err := svc.Refresh(context.Background(), "definitely-not-a-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRefresh_RevokedTokenRejected(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)

	rs := &mockRefreshStore{}
	rs.On("GetByHash", mock.Anything, fingerprint(raw)).Return(&domain.RefreshToken{
		TokenHash: fingerprint(raw), UserID: "u1", Revoked: true,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)

	svc := newSvc(nil, rs, nil, nil, nil, nil)
	_, err = svc.Refresh(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRefresh_ExpiredToken(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)

	rs := &mockRefreshStore{}
	rs.On("GetByHash", mock.Anything, fingerprint(raw)).Return(&domain.RefreshToken{
		TokenHash: fingerprint(raw), UserID: "u1",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}, nil)

	svc := newSvc(nil, rs, nil, nil, nil, nil)
	_, err = svc.Refresh(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestRefresh_HappyPath_RotatesToken(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)
	fp := fingerprint(raw)

	us := &mockUserStore{}
	rs := &mockRefreshStore{}
	signer := &mockSigner{}
	rs.On("GetByHash", mock.Anything, fp).Return(&domain.RefreshToken{
		TokenHash: fp, UserID: "u1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	rs.On("RevokeForRotation", mock.Anything, fp, mock.AnythingOfType("string")).Return(nil)
	rs.On("Put", mock.Anything, mock.MatchedBy(func(rt *domain.RefreshToken) bool {
		return rt.UserID == "u1" && rt.TokenHash != fp
	})).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleTutor}, nil)
	signer.On("Sign", "u1", domain.RoleTutor).Return("new-access", nil)

	svc := newSvc(us, rs, nil, nil, nil, signer)
	result, err := svc.Refresh(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "new-access", result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.NotEqual(t, raw, result.RefreshToken)
	rs.AssertExpectations(t)
}

func TestRefresh_LostRotationRace(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)
	fp := fingerprint(raw)

	rs := &mockRefreshStore{}
	rs.On("GetByHash", mock.Anything, fp).Return(&domain.RefreshToken{
		TokenHash: fp, UserID: "u1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	rs.On("RevokeForRotation", mock.Anything, fp, mock.Anything).
		Return(domain.ErrUnauthorized)

	svc := newSvc(nil, rs, nil, nil, nil, nil)
	_, err = svc.Refresh(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- Logout ---

func TestLogout_Idempotent(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)

	rs := &mockRefreshStore{}
	rs.On("Revoke", mock.Anything, fingerprint(raw)).Return(nil).Twice()

	svc := newSvc(nil, rs, nil, nil, nil, nil)
	require.NoError(t, svc.Logout(context.Background(), raw))
	require.NoError(t, svc.Logout(context.Background(), raw))
	rs.AssertExpectations(t)
}

func TestLogout_StoreErrorSwallowed(t *testing.T) {
	rs := &mockRefreshStore{}
	rs.On("Revoke", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	svc := newSvc(nil, rs, nil, nil, nil, nil)
	assert.NoError(t, svc.Logout(context.Background(), "whatever"))
}

// --- ForgotPassword ---

func TestForgotPassword_UnknownEmail_NoRecordNoError(t *testing.T) {
	us := &mockUserStore{}
	ps := &mockResetStore{}
	us.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, domain.ErrNotFound)

	svc := newSvc(us, nil, ps, nil, nil, nil)
	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@x.com"))
	ps.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestForgotPassword_CreatesPendingRecord(t *testing.T) {
	us := &mockUserStore{}
	ps := &mockResetStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1", Email: "a@x.com"}, nil)
	ps.On("Put", mock.Anything, mock.MatchedBy(func(p *domain.PasswordReset) bool {
		return p.UserID == "u1" && !p.Used && p.TokenHash != "" &&
			p.ExpiresAt > time.Now().Unix()
	})).Return(nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := newSvc(us, nil, ps, ml, nil, nil)
	require.NoError(t, svc.ForgotPassword(context.Background(), "a@x.com"))
	ps.AssertExpectations(t)
}

// --- ResetPassword ---

func TestResetPassword_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, domain.ErrNotFound)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	err := svc.ResetPassword(context.Background(), "ghost@x.com", "tok", "newpw12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResetPassword_UnknownToken(t *testing.T) {
	us := &mockUserStore{}
	ps := &mockResetStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)
	ps.On("GetByHash", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	svc := newSvc(us, nil, ps, nil, nil, nil)
	err := svc.ResetPassword(context.Background(), "a@x.com", "bad-token", "newpw12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResetPassword_UsedToken(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)

	us := &mockUserStore{}
	ps := &mockResetStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)
	ps.On("GetByHash", mock.Anything, fingerprint(raw)).Return(&domain.PasswordReset{
		TokenHash: fingerprint(raw), UserID: "u1", Used: true,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)

	svc := newSvc(us, nil, ps, nil, nil, nil)
	err = svc.ResetPassword(context.Background(), "a@x.com", raw, "newpw12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResetPassword_WrongOwner(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)

	us := &mockUserStore{}
	ps := &mockResetStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)
	ps.On("GetByHash", mock.Anything, fingerprint(raw)).Return(&domain.PasswordReset{
		TokenHash: fingerprint(raw), UserID: "someone-else",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)

	svc := newSvc(us, nil, ps, nil, nil, nil)
	err = svc.ResetPassword(context.Background(), "a@x.com", raw, "newpw12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)

	us := &mockUserStore{}
	ps := &mockResetStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)
	ps.On("GetByHash", mock.Anything, fingerprint(raw)).Return(&domain.PasswordReset{
		TokenHash: fingerprint(raw), UserID: "u1",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}, nil)

	svc := newSvc(us, nil, ps, nil, nil, nil)
	err = svc.ResetPassword(context.Background(), "a@x.com", raw, "newpw12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Contains(t, err.Error(), "expired")
}

func TestResetPassword_HappyPath_RevokesSessionsAndRehashes(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)
	fp := fingerprint(raw)

	us := &mockUserStore{}
	rs := &mockRefreshStore{}
	ps := &mockResetStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)
	ps.On("GetByHash", mock.Anything, fp).Return(&domain.PasswordReset{
		TokenHash: fp, UserID: "u1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	ps.On("Consume", mock.Anything, fp).Return(nil)
	rs.On("RevokeAllForUser", mock.Anything, "u1").Return(nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		h, _ := m["password_hash"].(string)
		return h != "" && h != "newpw12345" &&
			bcrypt.CompareHashAndPassword([]byte(h), []byte("newpw12345")) == nil
	})).Return(nil)

	svc := newSvc(us, rs, ps, nil, nil, nil)
	require.NoError(t, svc.ResetPassword(context.Background(), "a@x.com", raw, "newpw12345"))
	ps.AssertExpectations(t)
	rs.AssertExpectations(t)
	us.AssertExpectations(t)
}

func TestResetPassword_SecondConsumeFails(t *testing.T) {
	raw, err := pkgtoken.New()
	require.NoError(t, err)
	fp := fingerprint(raw)

	us := &mockUserStore{}
	ps := &mockResetStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)
	ps.On("GetByHash", mock.Anything, fp).Return(&domain.PasswordReset{
		TokenHash: fp, UserID: "u1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	// Another request consumed the token between read and flip.
	ps.On("Consume", mock.Anything, fp).
		Return(fmt.Errorf("reset token already used: %w", domain.ErrBadRequest))

	svc := newSvc(us, nil, ps, nil, nil, nil)
	err = svc.ResetPassword(context.Background(), "a@x.com", raw, "newpw12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- Phone OTP ---

func TestRequestPhoneOTP_AlreadyConfirmed(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", Phone: "111", PhoneConfirmed: true,
	}, nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	err := svc.RequestPhoneOTP(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRequestPhoneOTP_StoresPair(t *testing.T) {
	us := &mockUserStore{}
	sms := &mockSMSSender{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Phone: "111"}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		h, _ := m["phone_otp_hash"].(string)
		return h != ""
	})).Return(nil)
	sms.On("SendSMS", mock.Anything, "111", mock.Anything).Return(nil).Maybe()

	svc := newSvc(us, nil, nil, nil, sms, nil)
	require.NoError(t, svc.RequestPhoneOTP(context.Background(), "u1"))
	us.AssertExpectations(t)
}

func TestVerifyPhone_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID:          "u1",
		PhoneOTPHash:    otpHash("777777"),
		PhoneOTPExpires: time.Now().Add(10 * time.Minute).Unix(),
	}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		return m["phone_confirmed"] == true && m["phone_otp_hash"] == ""
	})).Return(nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	require.NoError(t, svc.VerifyPhone(context.Background(), "u1", "777777"))
	us.AssertExpectations(t)
}

func TestVerifyPhone_WrongCode_ClearsPair(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID:          "u1",
		PhoneOTPHash:    otpHash("777777"),
		PhoneOTPExpires: time.Now().Add(10 * time.Minute).Unix(),
	}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		return m["phone_otp_hash"] == ""
	})).Return(nil)

	svc := newSvc(us, nil, nil, nil, nil, nil)
	err := svc.VerifyPhone(context.Background(), "u1", "000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	us.AssertExpectations(t)
}
