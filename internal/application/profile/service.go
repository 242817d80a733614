package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/tutorlink-api/internal/domain"
)

// View is a teacher profile joined with the owner's public account fields.
type View struct {
	*domain.TeacherProfile
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email,omitempty"`
}

type Service interface {
	Upsert(ctx context.Context, userID string, req domain.UpsertTeacherProfileRequest) (*domain.TeacherProfile, error)
	Get(ctx context.Context, profileUserID, requesterID string) (*View, error)
	UploadAsset(ctx context.Context, userID, kind, filename, contentType string, body io.Reader, size int64) (*domain.Asset, error)
}

type profileStore interface {
	Put(ctx context.Context, p *domain.TeacherProfile) error
	GetByUser(ctx context.Context, userID string) (*domain.TeacherProfile, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type assetStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type service struct {
	profileRepo profileStore
	userRepo    userStore
	assets      assetStore
}

func NewService(profileRepo profileStore, userRepo userStore, assets assetStore) Service {
	return &service{profileRepo: profileRepo, userRepo: userRepo, assets: assets}
}

// Upsert creates the caller's profile on first write and patches it on
// subsequent writes. Nil request fields leave the stored value untouched.
func (s *service) Upsert(ctx context.Context, userID string, req domain.UpsertTeacherProfileRequest) (*domain.TeacherProfile, error) {
	existing, err := s.profileRepo.GetByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return s.create(ctx, userID, req)
	}

	updates := map[string]interface{}{}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.ExperienceYears != nil {
		updates["experience_years"] = *req.ExperienceYears
	}
	if req.Subjects != nil {
		updates["subjects"] = req.Subjects
	}
	if req.Classes != nil {
		updates["classes"] = req.Classes
	}
	if req.Languages != nil {
		updates["languages"] = req.Languages
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.ExpectedSalary != nil {
		updates["expected_salary"] = *req.ExpectedSalary
	}
	if req.Availability != nil {
		updates["availability"] = *req.Availability
	}
	if req.DemoVideoURL != nil {
		updates["demo_video_url"] = *req.DemoVideoURL
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if req.Tags != nil {
		updates["tags"] = req.Tags
	}
	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.profileRepo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByUser(ctx, userID)
}

func (s *service) create(ctx context.Context, userID string, req domain.UpsertTeacherProfileRequest) (*domain.TeacherProfile, error) {
	now := time.Now().UTC()
	p := &domain.TeacherProfile{
		UserID:    userID,
		Subjects:  req.Subjects,
		Classes:   req.Classes,
		Languages: req.Languages,
		Tags:      req.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.ExperienceYears != nil {
		p.ExperienceYears = *req.ExperienceYears
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.ExpectedSalary != nil {
		p.ExpectedSalary = *req.ExpectedSalary
	}
	if req.Availability != nil {
		p.Availability = *req.Availability
	}
	if req.DemoVideoURL != nil {
		p.DemoVideoURL = *req.DemoVideoURL
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}
	if err := s.profileRepo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a profile with the owner's display fields attached. Private
// profiles are visible to their owner only.
func (s *service) Get(ctx context.Context, profileUserID, requesterID string) (*View, error) {
	p, err := s.profileRepo.GetByUser(ctx, profileUserID)
	if err != nil {
		return nil, err
	}
	if !p.IsPublic && profileUserID != requesterID {
		return nil, fmt.Errorf("profile is private: %w", domain.ErrForbidden)
	}
	owner, err := s.userRepo.Get(ctx, profileUserID)
	if err != nil {
		return nil, err
	}
	view := &View{TeacherProfile: p, OwnerName: owner.Name}
	if p.IsPublic || profileUserID == requesterID {
		view.OwnerEmail = owner.Email
	}
	return view, nil
}

// UploadAsset stores a resume or photo in object storage and records the
// resulting URL on the caller's profile.
func (s *service) UploadAsset(ctx context.Context, userID, kind, filename, contentType string, body io.Reader, size int64) (*domain.Asset, error) {
	if kind != "resume" && kind != "photo" {
		return nil, fmt.Errorf("unknown asset kind %q: %w", kind, domain.ErrBadRequest)
	}
	if _, err := s.profileRepo.GetByUser(ctx, userID); err != nil {
		return nil, err
	}

	key := path.Join("profiles", userID, kind, filename)
	url, err := s.assets.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, err
	}

	asset := &domain.Asset{
		URL:      url,
		Filename: filename,
		MimeType: contentType,
		Size:     size,
	}
	if err := s.profileRepo.Update(ctx, userID, map[string]interface{}{kind: asset}); err != nil {
		return nil, err
	}
	return asset, nil
}
