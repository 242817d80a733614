package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/tutorlink-api/internal/domain"
	"github.com/tutorlink-api/internal/pkg/id"
)

// StudentPage is one page of the student directory listing.
type StudentPage struct {
	Students   []domain.Student `json:"students"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type Service interface {
	CreateStudent(ctx context.Context, req domain.CreateStudentRequest) (*domain.Student, error)
	GetStudent(ctx context.Context, studentID string) (*domain.Student, error)
	ListStudents(ctx context.Context, limit int32, cursor string) (*StudentPage, error)
	CreateParent(ctx context.Context, req domain.CreateParentRequest) (*domain.Parent, error)
	GetParent(ctx context.Context, parentID string) (*domain.Parent, error)
	LinkChild(ctx context.Context, parentID, studentID string) (*domain.Parent, error)
}

type studentStore interface {
	Put(ctx context.Context, s *domain.Student) error
	Get(ctx context.Context, studentID string) (*domain.Student, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Student, string, error)
}

type parentStore interface {
	Put(ctx context.Context, p *domain.Parent) error
	Get(ctx context.Context, parentID string) (*domain.Parent, error)
	Update(ctx context.Context, parentID string, updates map[string]interface{}) error
}

type service struct {
	students studentStore
	parents  parentStore
}

func NewService(students studentStore, parents parentStore) Service {
	return &service{students: students, parents: parents}
}

const defaultPageSize = 25

func (s *service) CreateStudent(ctx context.Context, req domain.CreateStudentRequest) (*domain.Student, error) {
	now := time.Now().UTC()
	st := &domain.Student{
		StudentID: id.New(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Class:     req.Class,
		School:    req.School,
		Board:     req.Board,
		Address:   req.Address,
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.students.Put(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) GetStudent(ctx context.Context, studentID string) (*domain.Student, error) {
	return s.students.Get(ctx, studentID)
}

func (s *service) ListStudents(ctx context.Context, limit int32, cursor string) (*StudentPage, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	students, next, err := s.students.ScanPage(ctx, limit, cursor)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []domain.Student{}
	}
	return &StudentPage{Students: students, NextCursor: next}, nil
}

func (s *service) CreateParent(ctx context.Context, req domain.CreateParentRequest) (*domain.Parent, error) {
	now := time.Now().UTC()
	p := &domain.Parent{
		ParentID:  id.New(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.parents.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetParent(ctx context.Context, parentID string) (*domain.Parent, error) {
	return s.parents.Get(ctx, parentID)
}

// LinkChild attaches an existing student record to a parent. Linking the
// same child twice is a no-op.
func (s *service) LinkChild(ctx context.Context, parentID, studentID string) (*domain.Parent, error) {
	p, err := s.parents.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.students.Get(ctx, studentID); err != nil {
		return nil, fmt.Errorf("child student record: %w", err)
	}
	for _, cid := range p.ChildrenIDs {
		if cid == studentID {
			return p, nil
		}
	}
	children := append(p.ChildrenIDs, studentID)
	if err := s.parents.Update(ctx, parentID, map[string]interface{}{"children_ids": children}); err != nil {
		return nil, err
	}
	p.ChildrenIDs = children
	return p, nil
}
