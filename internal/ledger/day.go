package ledger

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayView is one student's completions for one calendar day, loaded once.
// It belongs to a single request and must not be kept or shared: new events
// are not reflected.
type DayView struct {
	Start time.Time
	End   time.Time
	done  map[primitive.ObjectID]bool
}

// Day loads the events of the student's calendar day containing ref.
func (l *Ledger) Day(ctx context.Context, student *domain.Student, ref time.Time) (*DayView, error) {
	start, end := DayBounds(ref, l.Location(student))
	events, err := l.repos.Completions.List(ctx, repository.CompletionFilter{
		StudentID: student.ID,
		From:      start,
		To:        end,
	})
	if err != nil {
		return nil, err
	}
	v := &DayView{Start: start, End: end, done: make(map[primitive.ObjectID]bool, len(events))}
	for _, e := range events {
		v.done[e.ItemID] = true
	}
	return v, nil
}

func (v *DayView) Done(itemID primitive.ObjectID) bool {
	return v.done[itemID]
}

// Count is the number of distinct items done that day.
func (v *DayView) Count() int {
	return len(v.done)
}
