// Package composer holds the editable in-memory tree of a plan (sessions or
// meals and their ordered items) and reconciles it to storage in one save.
package composer

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// WorkoutRepos groups the collaborators a WorkoutComposer saves through.
type WorkoutRepos struct {
	Tx        repository.TxManager
	Plans     repository.WorkoutPlanRepository
	Sessions  repository.WorkoutSessionRepository
	Exercises repository.WorkoutExerciseRepository
}

// WorkoutSessionDraft is the in-memory form of a session and its items.
type WorkoutSessionDraft struct {
	ID        primitive.ObjectID // zero until first save
	DayOfWeek int
	Name      string
	Items     []domain.WorkoutExercise
}

func (d WorkoutSessionDraft) State() SessionState {
	return stateOf(d.ID)
}

func (d *WorkoutSessionDraft) renumber() {
	for i := range d.Items {
		d.Items[i].OrderIndex = i
	}
}

func (d WorkoutSessionDraft) clone() WorkoutSessionDraft {
	d.Items = slices.Clone(d.Items)
	return d
}

// WorkoutComposer edits one workout plan. It is not safe for concurrent use;
// each request builds its own.
type WorkoutComposer struct {
	repos     WorkoutRepos
	plan      domain.WorkoutPlan
	sessions  []*WorkoutSessionDraft // sorted by DayOfWeek
	persisted []primitive.ObjectID   // session ids currently in storage
}

// NewWorkout starts composing a plan that has not been stored yet.
func NewWorkout(repos WorkoutRepos, plan domain.WorkoutPlan) *WorkoutComposer {
	plan.ID = primitive.NilObjectID
	return &WorkoutComposer{repos: repos, plan: plan}
}

// LoadWorkout builds a composer from the stored plan tree.
func LoadWorkout(ctx context.Context, repos WorkoutRepos, planID primitive.ObjectID) (*WorkoutComposer, error) {
	plan, err := repos.Plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	sessions, err := repos.Sessions.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	items, err := repos.Exercises.GetBySessionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	c := &WorkoutComposer{repos: repos, plan: *plan, persisted: ids}
	for _, s := range sessions {
		draft := &WorkoutSessionDraft{ID: s.ID, DayOfWeek: s.DayOfWeek, Name: s.Name}
		for _, item := range items {
			if item.SessionID == s.ID {
				draft.Items = append(draft.Items, item)
			}
		}
		slices.SortStableFunc(draft.Items, func(a, b domain.WorkoutExercise) int { return a.OrderIndex - b.OrderIndex })
		draft.renumber()
		c.sessions = append(c.sessions, draft)
	}
	c.sortSessions()
	return c, nil
}

// Plan returns the plan's scalar fields. Edits to the returned value are
// written by the next Save.
func (c *WorkoutComposer) Plan() *domain.WorkoutPlan {
	return &c.plan
}

// Sessions returns a copy of the session tree, ordered by day.
func (c *WorkoutComposer) Sessions() []WorkoutSessionDraft {
	out := make([]WorkoutSessionDraft, len(c.sessions))
	for i, s := range c.sessions {
		out[i] = s.clone()
	}
	return out
}

// Session returns a copy of the session on day.
func (c *WorkoutComposer) Session(day int) (WorkoutSessionDraft, bool) {
	s := c.find(day)
	if s == nil {
		return WorkoutSessionDraft{}, false
	}
	return s.clone(), true
}

func (c *WorkoutComposer) find(day int) *WorkoutSessionDraft {
	for _, s := range c.sessions {
		if s.DayOfWeek == day {
			return s
		}
	}
	return nil
}

func (c *WorkoutComposer) mustFind(day int) (*WorkoutSessionDraft, error) {
	s := c.find(day)
	if s == nil {
		return nil, invalid(fmt.Errorf("%w: day %d", ErrSlotNotFound, day))
	}
	return s, nil
}

func (c *WorkoutComposer) sortSessions() {
	slices.SortFunc(c.sessions, func(a, b *WorkoutSessionDraft) int { return a.DayOfWeek - b.DayOfWeek })
}

func checkDay(day int) error {
	if day < 0 || day > 6 {
		return invalid(fmt.Errorf("%w: day of week must be 0-6, got %d", ErrInvalidSlot, day))
	}
	return nil
}

// AddSession adds an empty session on day (0 = Sunday). An empty name
// defaults to the weekday's name.
func (c *WorkoutComposer) AddSession(day int, name string) error {
	if err := checkDay(day); err != nil {
		return err
	}
	if c.find(day) != nil {
		return &DuplicateSlotError{Slot: time.Weekday(day).String()}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = time.Weekday(day).String()
	}
	c.sessions = append(c.sessions, &WorkoutSessionDraft{DayOfWeek: day, Name: name})
	c.sortSessions()
	return nil
}

// RemoveSession drops the session on day; Save deletes it and its items from
// storage. Unknown days are ignored.
func (c *WorkoutComposer) RemoveSession(day int) {
	c.sessions = slices.DeleteFunc(c.sessions, func(s *WorkoutSessionDraft) bool { return s.DayOfWeek == day })
}

func (c *WorkoutComposer) RenameSession(day int, name string) error {
	s, err := c.mustFind(day)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(errors.New("session name is required"))
	}
	s.Name = name
	return nil
}

// AddItem appends exerciseID to the session on day with the default
// prescription and returns the new item's index.
func (c *WorkoutComposer) AddItem(day int, exerciseID primitive.ObjectID) (int, error) {
	s, err := c.mustFind(day)
	if err != nil {
		return 0, err
	}
	if exerciseID.IsZero() {
		return 0, invalid(fmt.Errorf("%w: exercise id is required", ErrInvalidValue))
	}
	s.Items = append(s.Items, domain.NewWorkoutExercise(exerciseID))
	s.renumber()
	return len(s.Items) - 1, nil
}

// UpdateItem sets one scalar field of the item at index. Ordering is not
// touched.
func (c *WorkoutComposer) UpdateItem(day, index int, field ItemField, value any) error {
	s, err := c.mustFind(day)
	if err != nil {
		return err
	}
	if err := checkIndex(index, len(s.Items)); err != nil {
		return err
	}
	item := s.Items[index]
	switch field {
	case FieldExerciseID:
		item.ExerciseID, err = asObjectID(value)
	case FieldSets:
		item.Sets, err = asInt(value)
	case FieldRepsMin:
		item.RepsMin, err = asInt(value)
	case FieldRepsMax:
		item.RepsMax, err = asInt(value)
	case FieldRestSeconds:
		item.RestSeconds, err = asInt(value)
	case FieldNotes:
		item.Notes, err = asString(value)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if err != nil {
		return invalid(fmt.Errorf("%s: %w", field, err))
	}
	s.Items[index] = item
	return nil
}

// RemoveItem deletes the item at index and renumbers the rest.
func (c *WorkoutComposer) RemoveItem(day, index int) error {
	s, err := c.mustFind(day)
	if err != nil {
		return err
	}
	if err := checkIndex(index, len(s.Items)); err != nil {
		return err
	}
	s.Items = slices.Delete(s.Items, index, index+1)
	s.renumber()
	return nil
}

// MoveItem reorders the session's items.
func (c *WorkoutComposer) MoveItem(day, from, to int) error {
	s, err := c.mustFind(day)
	if err != nil {
		return err
	}
	items, err := moveItem(s.Items, from, to)
	if err != nil {
		return err
	}
	s.Items = items
	s.renumber()
	return nil
}

// Validate reports every problem that would make Save fail.
func (c *WorkoutComposer) Validate() error {
	var errs error
	if strings.TrimSpace(c.plan.Name) == "" {
		errs = multierr.Append(errs, ErrEmptyPlanName)
	}
	if len(c.sessions) == 0 {
		errs = multierr.Append(errs, ErrNoSessions)
	}
	if c.plan.TrainerID.IsZero() || c.plan.StudentID.IsZero() {
		errs = multierr.Append(errs, errors.New("plan needs a trainer and a student"))
	}
	for _, s := range c.sessions {
		for i, item := range s.Items {
			errs = multierr.Append(errs, validateExercise(s.Name, i, item))
		}
	}
	if errs != nil {
		return invalid(errs)
	}
	return nil
}

func validateExercise(session string, index int, item domain.WorkoutExercise) error {
	where := session + " #" + strconv.Itoa(index+1)
	switch {
	case item.ExerciseID.IsZero():
		return fmt.Errorf("%w: %s has no exercise", ErrInvalidItemValue, where)
	case item.Sets <= 0:
		return fmt.Errorf("%w: %s needs at least one set", ErrInvalidItemValue, where)
	case item.RepsMin <= 0 || item.RepsMax < item.RepsMin:
		return fmt.Errorf("%w: %s has an invalid rep range %d-%d", ErrInvalidItemValue, where, item.RepsMin, item.RepsMax)
	case item.RestSeconds < 0:
		return fmt.Errorf("%w: %s has negative rest", ErrInvalidItemValue, where)
	}
	return nil
}

// Save validates the tree and reconciles it to storage inside one
// transaction:
//  1. upsert the plan's scalar fields
//  2. delete stored sessions no longer in memory (cascading to their items)
//  3. insert new sessions, update existing ones
//  4. replace every session's items with the in-memory list, numbered 0..n-1
//
// Items keep their ids across saves so completion events stay attached.
// The composer is only updated once the transaction has committed.
func (c *WorkoutComposer) Save(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	var (
		planID     primitive.ObjectID
		sessionIDs []primitive.ObjectID
		itemIDs    [][]primitive.ObjectID
	)

	// The closure may run more than once (MongoDB retries transient
	// transaction errors), so every attempt starts from the composer state.
	err := c.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		plan := c.plan
		planID = primitive.NilObjectID
		sessionIDs = make([]primitive.ObjectID, len(c.sessions))
		itemIDs = make([][]primitive.ObjectID, len(c.sessions))

		if plan.ID.IsZero() {
			id, err := c.repos.Plans.Create(ctx, &plan)
			if err != nil {
				return persistErr("creating the plan", err)
			}
			plan.ID = id
		} else if err := c.repos.Plans.Update(ctx, &plan); err != nil {
			return persistErr("updating the plan", err)
		}

		kept := make([]primitive.ObjectID, 0, len(c.sessions))
		for _, s := range c.sessions {
			if !s.ID.IsZero() {
				kept = append(kept, s.ID)
			}
		}
		if stale := staleIDs(c.persisted, kept); len(stale) > 0 {
			if err := c.repos.Sessions.Delete(ctx, plan.ID, stale); err != nil {
				return persistErr("deleting removed sessions", err)
			}
		}

		for i, s := range c.sessions {
			row := domain.WorkoutSession{ID: s.ID, PlanID: plan.ID, DayOfWeek: s.DayOfWeek, Name: s.Name}
			if row.ID.IsZero() {
				id, err := c.repos.Sessions.Create(ctx, &row)
				if err != nil {
					return persistErr("creating session "+s.Name, err)
				}
				row.ID = id
			} else if err := c.repos.Sessions.Update(ctx, &row); err != nil {
				return persistErr("updating session "+s.Name, err)
			}
			sessionIDs[i] = row.ID

			if err := c.repos.Exercises.DeleteBySessionID(ctx, row.ID); err != nil {
				return persistErr("clearing exercises of "+s.Name, err)
			}
			if len(s.Items) == 0 {
				continue
			}
			items := make([]domain.WorkoutExercise, len(s.Items))
			itemIDs[i] = make([]primitive.ObjectID, len(s.Items))
			for j, item := range s.Items {
				if item.ID.IsZero() {
					item.ID = primitive.NewObjectID()
				}
				item.SessionID = row.ID
				item.OrderIndex = j
				items[j] = item
				itemIDs[i][j] = item.ID
			}
			if err := c.repos.Exercises.InsertMany(ctx, items); err != nil {
				return persistErr("inserting exercises of "+s.Name, err)
			}
		}
		planID = plan.ID
		return nil
	})
	if err != nil {
		return err
	}

	c.plan.ID = planID
	for i, s := range c.sessions {
		s.ID = sessionIDs[i]
		for j := range s.Items {
			s.Items[j].ID = itemIDs[i][j]
			s.Items[j].SessionID = s.ID
			s.Items[j].OrderIndex = j
		}
	}
	c.persisted = sessionIDs
	return nil
}
