package form

// Mode selects which URL list a run resolves against and whether the run
// waits for the scheduled submission instant.
type Mode int

const (
	ModeTest Mode = 0 // submit immediately against the rehearsal forms
	ModeLive Mode = 1 // wait for the weekly deadline, then submit for real
)

func (m Mode) String() string {
	if m == ModeLive {
		return "live"
	}
	return "test"
}

// PrepStatus classifies the outcome of the preparation phase for one day.
type PrepStatus string

const (
	StatusPrepared   PrepStatus = "PREPARED"
	StatusPrepFailed PrepStatus = "PREP_FAILED"
)

// FieldIDs holds the discovered entry identifiers of the three form fields.
// The values are opaque "entry.N" strings, an empty string means the field
// was not found on the page.
type FieldIDs struct {
	Name   string
	Option string
	Reason string
}

// Descriptor is the fully prepared submission for a single day. It is built
// once by the preparer and consumed exactly once by the submitter.
type Descriptor struct {
	Day         Weekday
	ResponseURL string
	Referer     string
	Payload     map[string]string
	Status      PrepStatus
}

// Outcome is the terminal result of one day's submission attempt.
type Outcome struct {
	Day     Weekday
	Success bool
}
