package http

import (
	"github.com/tutorlink-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/tutorlink-api/internal/infrastructure/jwt"
	s3infra "github.com/tutorlink-api/internal/infrastructure/s3"
	"github.com/tutorlink-api/internal/infrastructure/smtp"
	"github.com/tutorlink-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo           *dynamo.UserRepo
	RefreshTokenRepo   *dynamo.RefreshTokenRepo
	PasswordResetRepo  *dynamo.PasswordResetRepo
	TeacherProfileRepo *dynamo.TeacherProfileRepo
	InstitutionRepo    *dynamo.InstitutionRepo
	StudentRepo        *dynamo.StudentRepo
	ParentRepo         *dynamo.ParentRepo
	S3Store            *s3infra.Store
	Mailer             smtp.Mailer
	SMSSender          sns.SMSSender
	JWTProvider        *jwtinfra.Provider
}
