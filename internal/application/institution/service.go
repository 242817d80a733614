package institution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tutorlink-api/internal/domain"
	"github.com/tutorlink-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, ownerID string, req domain.CreateInstitutionRequest) (*domain.Institution, error)
	Get(ctx context.Context, institutionID string) (*domain.Institution, error)
	GetMine(ctx context.Context, ownerID string) (*domain.Institution, error)
	Update(ctx context.Context, institutionID, callerID string, req domain.UpdateInstitutionRequest) (*domain.Institution, error)
	Delete(ctx context.Context, institutionID, callerID string) error
}

type institutionStore interface {
	Put(ctx context.Context, inst *domain.Institution) error
	Get(ctx context.Context, institutionID string) (*domain.Institution, error)
	GetByOwner(ctx context.Context, ownerID string) (*domain.Institution, error)
	Update(ctx context.Context, institutionID string, updates map[string]interface{}) error
	Delete(ctx context.Context, institutionID string) error
}

type service struct {
	repo institutionStore
}

func NewService(repo institutionStore) Service {
	return &service{repo: repo}
}

// Create registers the owner's institution. Each account owns at most one.
func (s *service) Create(ctx context.Context, ownerID string, req domain.CreateInstitutionRequest) (*domain.Institution, error) {
	if _, err := s.repo.GetByOwner(ctx, ownerID); err == nil {
		return nil, fmt.Errorf("account already owns an institution: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	inst := &domain.Institution{
		InstitutionID:   id.New(),
		OwnerID:         ownerID,
		InstitutionName: req.InstitutionName,
		InstitutionType: req.InstitutionType,
		About:           req.About,
		Email:           req.Email,
		Phone:           req.Phone,
		Website:         req.Website,
		Address:         req.Address,
		Logo:            req.Logo,
		GalleryImages:   req.GalleryImages,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Put(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *service) Get(ctx context.Context, institutionID string) (*domain.Institution, error) {
	return s.repo.Get(ctx, institutionID)
}

func (s *service) GetMine(ctx context.Context, ownerID string) (*domain.Institution, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

// Update patches the institution. Only the owner may write.
func (s *service) Update(ctx context.Context, institutionID, callerID string, req domain.UpdateInstitutionRequest) (*domain.Institution, error) {
	inst, err := s.repo.Get(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	if inst.OwnerID != callerID {
		return nil, fmt.Errorf("not the institution owner: %w", domain.ErrForbidden)
	}

	updates := map[string]interface{}{}
	if req.InstitutionName != nil {
		updates["institution_name"] = *req.InstitutionName
	}
	if req.InstitutionType != nil {
		updates["institution_type"] = *req.InstitutionType
	}
	if req.About != nil {
		updates["about"] = *req.About
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Logo != nil {
		updates["logo"] = *req.Logo
	}
	if req.GalleryImages != nil {
		updates["gallery_images"] = req.GalleryImages
	}
	if len(updates) == 0 {
		return inst, nil
	}
	if err := s.repo.Update(ctx, institutionID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, institutionID)
}

// Delete removes the institution. Only the owner may delete.
func (s *service) Delete(ctx context.Context, institutionID, callerID string) error {
	inst, err := s.repo.Get(ctx, institutionID)
	if err != nil {
		return err
	}
	if inst.OwnerID != callerID {
		return fmt.Errorf("not the institution owner: %w", domain.ErrForbidden)
	}
	return s.repo.Delete(ctx, institutionID)
}
