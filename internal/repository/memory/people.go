package memory

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("users.insert"); err != nil {
		return primitive.NilObjectID, err
	}
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, user.Email) {
			return primitive.NilObjectID, duplicate("users.insert")
		}
	}
	user.ID = primitive.NewObjectID()
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.data.users[user.ID] = *user
	return user.ID, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.rlock(ctx)()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	defer r.s.rlock(ctx)()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	defer r.s.rlock(ctx)()
	users := []domain.User{}
	for _, u := range r.s.data.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b domain.User) int { return strings.Compare(a.Name, b.Name) })
	return users, nil
}

type studentRepo struct{ s *Store }

func (r *studentRepo) Create(ctx context.Context, student *domain.Student) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("students.insert"); err != nil {
		return primitive.NilObjectID, err
	}
	for _, st := range r.s.data.students {
		if st.AccessToken == student.AccessToken {
			return primitive.NilObjectID, duplicate("students.insert")
		}
	}
	student.ID = primitive.NewObjectID()
	now := r.s.now()
	student.CreatedAt, student.UpdatedAt = now, now
	r.s.data.students[student.ID] = *student
	return student.ID, nil
}

func (r *studentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Student, error) {
	defer r.s.rlock(ctx)()
	st, ok := r.s.data.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (r *studentRepo) GetByAccessToken(ctx context.Context, token string) (*domain.Student, error) {
	defer r.s.rlock(ctx)()
	for _, st := range r.s.data.students {
		if token != "" && st.AccessToken == token {
			return &st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *studentRepo) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID, onlyActive bool) ([]domain.Student, error) {
	defer r.s.rlock(ctx)()
	students := []domain.Student{}
	for _, st := range r.s.data.students {
		if st.TrainerID != trainerID || (onlyActive && !st.Active) {
			continue
		}
		students = append(students, st)
	}
	slices.SortFunc(students, func(a, b domain.Student) int { return strings.Compare(a.Name, b.Name) })
	return students, nil
}

func (r *studentRepo) SetActive(ctx context.Context, id, trainerID primitive.ObjectID, active bool) error {
	return r.update(ctx, "students.update", id, trainerID, func(st *domain.Student) { st.Active = active })
}

func (r *studentRepo) SetAccessToken(ctx context.Context, id, trainerID primitive.ObjectID, token string) error {
	return r.update(ctx, "students.update", id, trainerID, func(st *domain.Student) { st.AccessToken = token })
}

func (r *studentRepo) update(ctx context.Context, op string, id, trainerID primitive.ObjectID, fn func(*domain.Student)) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail(op); err != nil {
		return err
	}
	st, ok := r.s.data.students[id]
	if !ok || st.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	fn(&st)
	st.UpdatedAt = r.s.now()
	r.s.data.students[id] = st
	return nil
}

// CatalogRepo implements repository.CatalogRepository and exposes
// CreateCategory for seeding.
type CatalogRepo struct{ s *Store }

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

func visible(owner *primitive.ObjectID, trainerID primitive.ObjectID) bool {
	return owner == nil || *owner == trainerID
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, category *domain.Category) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	category.ID = primitive.NewObjectID()
	r.s.data.categories[category.ID] = *category
	return category.ID, nil
}

func (r *CatalogRepo) ListCategories(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Category, error) {
	defer r.s.rlock(ctx)()
	categories := []domain.Category{}
	for _, c := range r.s.data.categories {
		if visible(c.TrainerID, trainerID) {
			categories = append(categories, c)
		}
	}
	slices.SortFunc(categories, func(a, b domain.Category) int { return strings.Compare(a.Name, b.Name) })
	return categories, nil
}

func (r *CatalogRepo) ListExercises(ctx context.Context, trainerID primitive.ObjectID, categoryID *primitive.ObjectID) ([]domain.Exercise, error) {
	defer r.s.rlock(ctx)()
	exercises := []domain.Exercise{}
	for _, e := range r.s.data.exercises {
		if !visible(e.TrainerID, trainerID) {
			continue
		}
		if categoryID != nil && e.CategoryID != *categoryID {
			continue
		}
		exercises = append(exercises, e)
	}
	slices.SortFunc(exercises, func(a, b domain.Exercise) int { return strings.Compare(a.Name, b.Name) })
	return exercises, nil
}

func (r *CatalogRepo) GetExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	defer r.s.rlock(ctx)()
	e, ok := r.s.data.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *CatalogRepo) GetExercisesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	defer r.s.rlock(ctx)()
	exercises := []domain.Exercise{}
	for _, id := range ids {
		if e, ok := r.s.data.exercises[id]; ok {
			exercises = append(exercises, e)
		}
	}
	return exercises, nil
}

func (r *CatalogRepo) CreateExercise(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("exercises.insert"); err != nil {
		return primitive.NilObjectID, err
	}
	exercise.ID = primitive.NewObjectID()
	now := r.s.now()
	exercise.CreatedAt, exercise.UpdatedAt = now, now
	r.s.data.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}
