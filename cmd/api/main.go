package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tutorlink-api/internal/config"
	"github.com/tutorlink-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/tutorlink-api/internal/infrastructure/jwt"
	s3infra "github.com/tutorlink-api/internal/infrastructure/s3"
	"github.com/tutorlink-api/internal/infrastructure/smtp"
	"github.com/tutorlink-api/internal/infrastructure/sns"
	transporthttp "github.com/tutorlink-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional, graceful fallback if the secret is missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg.JWTSecret, cfg.AccessTokenTTL); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for profile assets.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional, graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:           dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		RefreshTokenRepo:   dynamo.NewRefreshTokenRepo(dynamoClient, cfg.DynamoTables.RefreshTokens),
		PasswordResetRepo:  dynamo.NewPasswordResetRepo(dynamoClient, cfg.DynamoTables.PasswordResets),
		TeacherProfileRepo: dynamo.NewTeacherProfileRepo(dynamoClient, cfg.DynamoTables.TeacherProfiles),
		InstitutionRepo:    dynamo.NewInstitutionRepo(dynamoClient, cfg.DynamoTables.Institutions),
		StudentRepo:        dynamo.NewStudentRepo(dynamoClient, cfg.DynamoTables.Students),
		ParentRepo:         dynamo.NewParentRepo(dynamoClient, cfg.DynamoTables.Parents),
		S3Store:            s3Store,
		Mailer:             mailer,
		SMSSender:          smsSender,
		JWTProvider:        jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
