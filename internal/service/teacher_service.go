package service

import (
	"context"

	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// TeacherService handles teacher account business logic.
type TeacherService struct {
	teacherRepo *repository.TeacherRepository
}

// NewTeacherService creates a new TeacherService.
func NewTeacherService(teacherRepo *repository.TeacherRepository) *TeacherService {
	return &TeacherService{teacherRepo: teacherRepo}
}

// GetByEmail retrieves a teacher by email.
func (s *TeacherService) GetByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	return s.teacherRepo.GetByEmail(ctx, email)
}

// GetByID retrieves a teacher by ID.
func (s *TeacherService) GetByID(ctx context.Context, id int) (*model.Teacher, error) {
	return s.teacherRepo.GetByID(ctx, id)
}

// Create inserts a new teacher with a hashed password.
func (s *TeacherService) Create(ctx context.Context, teacher *model.Teacher) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(teacher.PasswordHash), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	teacher.PasswordHash = string(hashed)
	return s.teacherRepo.Create(ctx, teacher)
}
