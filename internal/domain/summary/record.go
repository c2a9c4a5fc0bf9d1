package summary

// FailureStage tells which phase lost a day.
type FailureStage string

const (
	StagePreparation FailureStage = "PREP_FAILED"
	StageSubmission  FailureStage = "SUBMISSION_FAILED"
)

// FailedTask names one day that did not make it, and where it was lost.
type FailedTask struct {
	DayName string
	Stage   FailureStage
}

// Record aggregates a finished run for the notification sinks.
type Record struct {
	SubmittedDays  []string // display names of every requested day
	ReasonSaturday string   // set only when Saturday was requested
	ReasonSunday   string   // set only when Sunday was requested
	AllSuccess     bool
	SuccessfulDays []string
	Failed         []FailedTask
}
