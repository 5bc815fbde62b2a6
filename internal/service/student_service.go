package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidTimeZone = errors.New("unknown time zone")
	ErrTokenNotRotated = errors.New("failed to rotate access token")
)

const maxTokenCollisions = 3

// StudentInput carries the editable fields of a student.
type StudentInput struct {
	Name     string
	Email    string
	Phone    string
	TimeZone string
}

type StudentService interface {
	CreateStudent(ctx context.Context, trainerID primitive.ObjectID, in StudentInput) (*domain.Student, error)
	ListStudents(ctx context.Context, trainerID primitive.ObjectID, onlyActive bool) ([]domain.Student, error)
	GetStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.Student, error)
	SetActive(ctx context.Context, trainerID, studentID primitive.ObjectID, active bool) (*domain.Student, error)
	RotateToken(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.Student, error)
	// PortalLink is the URL the trainer shares with the student.
	PortalLink(student *domain.Student) string
}

type studentService struct {
	studentRepo   repository.StudentRepository
	publicBaseURL string
}

func NewStudentService(studentRepo repository.StudentRepository, publicBaseURL string) StudentService {
	return &studentService{
		studentRepo:   studentRepo,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *studentService) CreateStudent(ctx context.Context, trainerID primitive.ObjectID, in StudentInput) (*domain.Student, error) {
	in.Name = strings.TrimSpace(in.Name)
	if trainerID.IsZero() || in.Name == "" {
		return nil, fmt.Errorf("%w: student name is required", ErrInvalidInput)
	}
	if in.TimeZone != "" {
		if _, err := time.LoadLocation(in.TimeZone); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, in.TimeZone)
		}
	}

	student := &domain.Student{
		TrainerID: trainerID,
		Name:      in.Name,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     strings.TrimSpace(in.Phone),
		Active:    true,
		TimeZone:  in.TimeZone,
	}
	// retry with a fresh token if the unique index reports a collision
	var err error
	for range maxTokenCollisions {
		student.AccessToken = uuid.NewString()
		_, err = s.studentRepo.Create(ctx, student)
		if !errors.Is(err, repository.ErrDuplicateKey) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"trainer": trainerID.Hex(), "student": student.ID.Hex()}).Info("student created")
	return student, nil
}

func (s *studentService) ListStudents(ctx context.Context, trainerID primitive.ObjectID, onlyActive bool) ([]domain.Student, error) {
	return s.studentRepo.GetByTrainerID(ctx, trainerID, onlyActive)
}

// GetStudent returns the student if it belongs to trainerID.
func (s *studentService) GetStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if student.TrainerID != trainerID {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

// SetActive toggles the student. An inactive student's link stops working.
func (s *studentService) SetActive(ctx context.Context, trainerID, studentID primitive.ObjectID, active bool) (*domain.Student, error) {
	if err := s.studentRepo.SetActive(ctx, studentID, trainerID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s.GetStudent(ctx, trainerID, studentID)
}

// RotateToken issues a new access token, invalidating the old link.
func (s *studentService) RotateToken(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.Student, error) {
	var err error
	for range maxTokenCollisions {
		err = s.studentRepo.SetAccessToken(ctx, studentID, trainerID, uuid.NewString())
		if !errors.Is(err, repository.ErrDuplicateKey) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrTokenNotRotated
		}
		return nil, err
	}
	log.WithField("student", studentID.Hex()).Info("student access token rotated")
	return s.GetStudent(ctx, trainerID, studentID)
}

func (s *studentService) PortalLink(student *domain.Student) string {
	return s.publicBaseURL + "/portal/" + url.PathEscape(student.AccessToken)
}
