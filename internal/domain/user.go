package domain

import "time"

// Account roles. The enum is closed: signup rejects anything else.
const (
	RoleTutor     = "tutor"
	RoleInstitute = "institute"
	RoleTeacher   = "teacher"
	RoleStudent   = "student"
	RoleParent    = "parent"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleTutor, RoleInstitute, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

type User struct {
	UserID       string `json:"id" dynamodbav:"user_id"`
	Name         string `json:"name" dynamodbav:"name"`
	Email        string `json:"email" dynamodbav:"email"`
	Phone        string `json:"phone" dynamodbav:"phone"`
	PasswordHash string `json:"-" dynamodbav:"password_hash"`
	Role         string `json:"role" dynamodbav:"role"`

	EmailVerified  bool `json:"email_verified" dynamodbav:"email_verified"`
	PhoneConfirmed bool `json:"phone_confirmed" dynamodbav:"phone_confirmed"`

	// Pending OTP digests. Stored as HMAC fingerprints, never raw codes;
	// an empty hash means no OTP is outstanding.
	EmailOTPHash    string `json:"-" dynamodbav:"email_otp_hash"`
	EmailOTPExpires int64  `json:"-" dynamodbav:"email_otp_expires"`
	PhoneOTPHash    string `json:"-" dynamodbav:"phone_otp_hash"`
	PhoneOTPExpires int64  `json:"-" dynamodbav:"phone_otp_expires"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty" dynamodbav:"last_login_at"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required"`
}
