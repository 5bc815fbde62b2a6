package domain

// Band is the qualitative classification of a completion rate.
type Band string

const (
	BandExcellent      Band = "excellent"
	BandGood           Band = "good"
	BandNeedsAttention Band = "needs attention"
)

// Report summarizes one student's adherence over a period.
type Report struct {
	StudentID    string `json:"studentId"`
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail,omitempty"`
	StudentPhone string `json:"studentPhone,omitempty"`

	TrainerName     string `json:"trainerName"`
	TrainerDocument string `json:"trainerDocument,omitempty"`
	TrainerCref     string `json:"trainerCref,omitempty"`

	WorkoutCompletions int     `json:"workoutCompletions"`
	DietCompletions    int     `json:"dietCompletions"`
	TotalExercises     int     `json:"totalExercises"`
	CompletedExercises int     `json:"completedExercises"`
	CompletionRate     float64 `json:"completionRate"`
	Band               Band    `json:"band"`

	PeriodStart string `json:"periodStart"` // dd/MM/yyyy
	PeriodEnd   string `json:"periodEnd"`   // dd/MM/yyyy
	GeneratedAt string `json:"generatedAt"` // dd/MM/yyyy HH:mm
}
