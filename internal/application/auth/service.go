package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tutorlink-api/internal/domain"
	"github.com/tutorlink-api/internal/infrastructure/smtp"
	"github.com/tutorlink-api/internal/infrastructure/sns"
	"github.com/tutorlink-api/internal/pkg/id"
	"github.com/tutorlink-api/internal/pkg/otp"
	pkgtoken "github.com/tutorlink-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// LoginResult bundles the credential pair issued on a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

// RefreshResult bundles the rotated credential pair.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendEmailOTP(ctx context.Context, email string) error
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Refresh(ctx context.Context, rawToken string) (*RefreshResult, error)
	Logout(ctx context.Context, rawToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, rawToken, newPassword string) error
	RequestPhoneOTP(ctx context.Context, userID string) error
	VerifyPhone(ctx context.Context, userID, code string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type refreshTokenStore interface {
	Put(ctx context.Context, t *domain.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeForRotation(ctx context.Context, tokenHash, replacedByHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type passwordResetStore interface {
	Put(ctx context.Context, p *domain.PasswordReset) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.PasswordReset, error)
	Consume(ctx context.Context, tokenHash string) error
}

type accessSigner interface {
	Sign(userID, role string) (string, error)
}

type service struct {
	userRepo     userStore
	refreshRepo  refreshTokenStore
	resetRepo    passwordResetStore
	mailer       smtp.Mailer
	smsSender    sns.SMSSender
	jwtProvider  accessSigner
	otpEngine    *otp.Engine
	fingerprints *pkgtoken.Fingerprinter

	refreshTokenDur time.Duration
	otpTTL          time.Duration
	resetTokenTTL   time.Duration
	frontendBaseURL string
	devMode         bool
}

type ServiceDeps struct {
	UserRepo        userStore
	RefreshRepo     refreshTokenStore
	ResetRepo       passwordResetStore
	Mailer          smtp.Mailer
	SMSSender       sns.SMSSender
	JWTProvider     accessSigner
	OTPEngine       *otp.Engine
	Fingerprinter   *pkgtoken.Fingerprinter
	RefreshTokenDur time.Duration
	OTPTTL          time.Duration
	ResetTokenTTL   time.Duration
	FrontendBaseURL string
	DevMode         bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:        deps.UserRepo,
		refreshRepo:     deps.RefreshRepo,
		resetRepo:       deps.ResetRepo,
		mailer:          deps.Mailer,
		smsSender:       deps.SMSSender,
		jwtProvider:     deps.JWTProvider,
		otpEngine:       deps.OTPEngine,
		fingerprints:    deps.Fingerprinter,
		refreshTokenDur: deps.RefreshTokenDur,
		otpTTL:          deps.OTPTTL,
		resetTokenTTL:   deps.ResetTokenTTL,
		frontendBaseURL: deps.FrontendBaseURL,
		devMode:         deps.DevMode,
	}
}

// Signup creates an unverified account and sends the email OTP. Email
// delivery is best-effort: a send failure never fails the signup.
func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error) {
	if !domain.ValidRole(req.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, domain.ErrBadRequest)
	}
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if _, err := s.userRepo.GetByPhone(ctx, req.Phone); err == nil {
		return nil, fmt.Errorf("phone already registered: %w", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	code, err := s.otpEngine.Generate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:          id.New(),
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		PasswordHash:    string(hash),
		Role:            req.Role,
		EmailOTPHash:    s.otpEngine.Hash(code),
		EmailOTPExpires: now.Add(s.otpTTL).Unix(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		return nil, err
	}

	s.logOTPInDev("email", u.Email, code)
	go s.sendEmail(u.Email, "Verify your email", "Your verification code: "+code)
	return u, nil
}

// VerifyEmail checks the pending OTP. A code survives exactly one attempt:
// whatever the outcome, the stored pair is cleared so it cannot be replayed.
func (s *service) VerifyEmail(ctx context.Context, email, code string) error {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.EmailOTPHash == "" {
		return fmt.Errorf("no pending verification code: %w", domain.ErrBadRequest)
	}

	clear := map[string]interface{}{
		fieldEmailOTPHash:    "",
		fieldEmailOTPExpires: int64(0),
	}
	if time.Now().Unix() >= u.EmailOTPExpires {
		if uerr := s.userRepo.Update(ctx, u.UserID, clear); uerr != nil {
			slog.Warn("failed to clear expired email OTP", "user_id", u.UserID, "err", uerr)
		}
		return fmt.Errorf("verification code expired: %w", domain.ErrBadRequest)
	}
	if !s.otpEngine.Verify(code, u.EmailOTPHash) {
		if uerr := s.userRepo.Update(ctx, u.UserID, clear); uerr != nil {
			slog.Warn("failed to clear email OTP after mismatch", "user_id", u.UserID, "err", uerr)
		}
		return fmt.Errorf("invalid verification code: %w", domain.ErrBadRequest)
	}

	clear[fieldEmailVerified] = true
	return s.userRepo.Update(ctx, u.UserID, clear)
}

// ResendEmailOTP replaces the pending OTP pair, voiding the previous code.
func (s *service) ResendEmailOTP(ctx context.Context, email string) error {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.EmailVerified {
		return fmt.Errorf("email already verified: %w", domain.ErrBadRequest)
	}
	code, err := s.otpEngine.Generate()
	if err != nil {
		return err
	}
	err = s.userRepo.Update(ctx, u.UserID, map[string]interface{}{
		fieldEmailOTPHash:    s.otpEngine.Hash(code),
		fieldEmailOTPExpires: time.Now().Add(s.otpTTL).Unix(),
	})
	if err != nil {
		return err
	}
	s.logOTPInDev("email", u.Email, code)
	go s.sendEmail(u.Email, "Verify your email", "Your verification code: "+code)
	return nil
}

// Login authenticates by email or phone and issues an access/refresh pair.
func (s *service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, identifier)
	if err != nil {
		u, err = s.userRepo.GetByPhone(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.EmailVerified {
		return nil, fmt.Errorf("email not verified: %w", domain.ErrForbidden)
	}

	now := time.Now().UTC()
	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{fieldLastLoginAt: now}); err != nil {
		slog.Warn("failed to update last login time", "user_id", u.UserID, "err", err)
	}
	u.LastLoginAt = &now

	accessToken, refreshToken, err := s.issueTokenPair(ctx, u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: accessToken, RefreshToken: refreshToken, User: u}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and linked
// to its successor in one conditional write, so replaying it afterwards
// fails. Reuse of a revoked token is logged as a possible theft signal.
func (s *service) Refresh(ctx context.Context, rawToken string) (*RefreshResult, error) {
	fp := s.fingerprints.Fingerprint(rawToken)
	rec, err := s.refreshRepo.GetByHash(ctx, fp)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if rec.Revoked {
		slog.Warn("revoked refresh token presented, possible token theft", "user_id", rec.UserID)
		return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if rec.ExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}

	newRaw, err := pkgtoken.New()
	if err != nil {
		return nil, err
	}
	newFP := s.fingerprints.Fingerprint(newRaw)

	if err := s.refreshRepo.RevokeForRotation(ctx, fp, newFP); err != nil {
		return nil, err
	}
	if err := s.refreshRepo.Put(ctx, &domain.RefreshToken{
		TokenHash: newFP,
		UserID:    rec.UserID,
		ExpiresAt: time.Now().Add(s.refreshTokenDur).Unix(),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	u, err := s.userRepo.Get(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.jwtProvider.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: accessToken, RefreshToken: newRaw}, nil
}

// Logout revokes the presented refresh token. Idempotent: unknown or
// already-revoked tokens succeed silently.
func (s *service) Logout(ctx context.Context, rawToken string) error {
	fp := s.fingerprints.Fingerprint(rawToken)
	if err := s.refreshRepo.Revoke(ctx, fp); err != nil {
		slog.Warn("failed to revoke refresh token on logout", "err", err)
	}
	return nil
}

// ForgotPassword creates a reset record and emails a reset link. The
// response is uniform whether or not the account exists.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the account exists.
		return nil
	}
	raw, err := pkgtoken.New()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := s.resetRepo.Put(ctx, &domain.PasswordReset{
		TokenHash: s.fingerprints.Fingerprint(raw),
		UserID:    u.UserID,
		ExpiresAt: now.Add(s.resetTokenTTL).Unix(),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s", s.frontendBaseURL, raw, u.Email)
	go s.sendEmail(u.Email, "Reset your password", "Use this link within one hour: "+link)
	return nil
}

// ResetPassword consumes a reset token, revokes every outstanding session
// and replaces the password hash. The consume is a conditional flip so a
// token can authorize at most one reset; sessions are revoked before the
// password write so a partial failure never leaves a changed password with
// live sessions.
func (s *service) ResetPassword(ctx context.Context, email, rawToken, newPassword string) error {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("invalid reset request: %w", domain.ErrBadRequest)
	}
	fp := s.fingerprints.Fingerprint(rawToken)
	rec, err := s.resetRepo.GetByHash(ctx, fp)
	if err != nil {
		return fmt.Errorf("invalid or used reset token: %w", domain.ErrBadRequest)
	}
	if rec.UserID != u.UserID || rec.Used {
		return fmt.Errorf("invalid or used reset token: %w", domain.ErrBadRequest)
	}
	if rec.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("reset token expired: %w", domain.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.resetRepo.Consume(ctx, fp); err != nil {
		return err
	}
	if err := s.refreshRepo.RevokeAllForUser(ctx, u.UserID); err != nil {
		return err
	}
	return s.userRepo.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

// RequestPhoneOTP sends an SMS verification code to the account's phone.
func (s *service) RequestPhoneOTP(ctx context.Context, userID string) error {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.Phone == "" {
		return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
	}
	if u.PhoneConfirmed {
		return fmt.Errorf("phone already confirmed: %w", domain.ErrBadRequest)
	}
	code, err := s.otpEngine.Generate()
	if err != nil {
		return err
	}
	err = s.userRepo.Update(ctx, u.UserID, map[string]interface{}{
		fieldPhoneOTPHash:    s.otpEngine.Hash(code),
		fieldPhoneOTPExpires: time.Now().Add(s.otpTTL).Unix(),
	})
	if err != nil {
		return err
	}
	s.logOTPInDev("phone", u.Phone, code)
	go s.sendSMS(u.Phone, "Your verification code: "+code)
	return nil
}

// VerifyPhone checks the pending SMS OTP under the same single-attempt
// contract as VerifyEmail.
func (s *service) VerifyPhone(ctx context.Context, userID, code string) error {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.PhoneOTPHash == "" {
		return fmt.Errorf("no pending verification code: %w", domain.ErrBadRequest)
	}

	clear := map[string]interface{}{
		fieldPhoneOTPHash:    "",
		fieldPhoneOTPExpires: int64(0),
	}
	if time.Now().Unix() >= u.PhoneOTPExpires {
		if uerr := s.userRepo.Update(ctx, u.UserID, clear); uerr != nil {
			slog.Warn("failed to clear expired phone OTP", "user_id", u.UserID, "err", uerr)
		}
		return fmt.Errorf("verification code expired: %w", domain.ErrBadRequest)
	}
	if !s.otpEngine.Verify(code, u.PhoneOTPHash) {
		if uerr := s.userRepo.Update(ctx, u.UserID, clear); uerr != nil {
			slog.Warn("failed to clear phone OTP after mismatch", "user_id", u.UserID, "err", uerr)
		}
		return fmt.Errorf("invalid verification code: %w", domain.ErrBadRequest)
	}

	clear[fieldPhoneConfirmed] = true
	return s.userRepo.Update(ctx, u.UserID, clear)
}

func (s *service) issueTokenPair(ctx context.Context, u *domain.User) (string, string, error) {
	raw, err := pkgtoken.New()
	if err != nil {
		return "", "", err
	}
	now := time.Now().UTC()
	if err := s.refreshRepo.Put(ctx, &domain.RefreshToken{
		TokenHash: s.fingerprints.Fingerprint(raw),
		UserID:    u.UserID,
		ExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt: now,
	}); err != nil {
		return "", "", err
	}
	accessToken, err := s.jwtProvider.Sign(u.UserID, u.Role)
	if err != nil {
		return "", "", err
	}
	return accessToken, raw, nil
}

// sendEmail is fire-and-forget relative to the owning flow; failures are
// logged, never surfaced.
func (s *service) sendEmail(to, subject, body string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendEmail(to, subject, body); err != nil {
		slog.Warn("failed to send email", "to", to, "subject", subject, "err", err)
	}
}

func (s *service) sendSMS(to, message string) {
	if s.smsSender == nil {
		return
	}
	if err := s.smsSender.SendSMS(context.Background(), to, message); err != nil {
		slog.Warn("failed to send SMS", "to", to, "err", err)
	}
}

func (s *service) logOTPInDev(channel, recipient, code string) {
	if s.devMode {
		slog.Info("generated OTP", "channel", channel, "recipient", recipient, "code", code)
	}
}

// User attribute names used in partial update maps.
const (
	fieldEmailVerified   = "email_verified"
	fieldPhoneConfirmed  = "phone_confirmed"
	fieldEmailOTPHash    = "email_otp_hash"
	fieldEmailOTPExpires = "email_otp_expires"
	fieldPhoneOTPHash    = "phone_otp_hash"
	fieldPhoneOTPExpires = "phone_otp_expires"
	fieldPasswordHash    = "password_hash"
	fieldLastLoginAt     = "last_login_at"
)
