package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// ExerciseInput carries the fields of a trainer-owned catalog exercise.
type ExerciseInput struct {
	CategoryID  primitive.ObjectID
	Name        string
	Description string
	MuscleGroup string
	VideoURL    string
}

// CatalogService reads the exercise catalog: global entries plus the ones
// owned by the requesting trainer.
type CatalogService interface {
	ListCategories(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Category, error)
	ListExercises(ctx context.Context, trainerID primitive.ObjectID, categoryID *primitive.ObjectID) ([]domain.Exercise, error)
	GetExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	CreateExercise(ctx context.Context, trainerID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

func (s *catalogService) ListCategories(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Category, error) {
	return s.catalogRepo.ListCategories(ctx, trainerID)
}

func (s *catalogService) ListExercises(ctx context.Context, trainerID primitive.ObjectID, categoryID *primitive.ObjectID) ([]domain.Exercise, error) {
	return s.catalogRepo.ListExercises(ctx, trainerID, categoryID)
}

// GetExercise returns the exercise if the trainer may use it.
func (s *catalogService) GetExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.catalogRepo.GetExercise(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if !exercise.VisibleTo(trainerID) {
		return nil, ErrExerciseNotFound
	}
	return exercise, nil
}

func (s *catalogService) CreateExercise(ctx context.Context, trainerID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: exercise name is required", ErrInvalidInput)
	}
	categories, err := s.catalogRepo.ListCategories(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(categories, func(c domain.Category) bool { return c.ID == in.CategoryID }) {
		return nil, ErrCategoryNotFound
	}

	owner := trainerID
	exercise := &domain.Exercise{
		CategoryID:  in.CategoryID,
		TrainerID:   &owner,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		MuscleGroup: strings.TrimSpace(in.MuscleGroup),
		VideoURL:    strings.TrimSpace(in.VideoURL),
	}
	if _, err := s.catalogRepo.CreateExercise(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// exercisesByID loads the given catalog entries keyed by id.
func exercisesByID(ctx context.Context, repo repository.CatalogRepository, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error) {
	out := make(map[primitive.ObjectID]domain.Exercise, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	exercises, err := repo.GetExercisesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range exercises {
		out[e.ID] = e
	}
	return out, nil
}
