package models

// Column names of the roster schema, in storage order.
const (
	ColumnInstitute     = "Institute"
	ColumnPatientNumber = "Patient Number"
	ColumnBlock         = "Block"
	ColumnRandomNumber  = "Random Number"
	ColumnArm           = "Arm"
)

// Columns is the fixed five-column roster schema.
var Columns = []string{
	ColumnInstitute,
	ColumnPatientNumber,
	ColumnBlock,
	ColumnRandomNumber,
	ColumnArm,
}

// Enrollment is one patient's entry in a trial roster.
type Enrollment struct {
	Institute     string
	PatientNumber string
	Block         int
	RandomNumber  float64
	Arm           string
}

// Roster is the ordered, append-only list of enrollments for one trial.
// Insertion order drives block and arm assignment.
type Roster []Enrollment

// Len returns the number of enrolled patients.
func (r Roster) Len() int { return len(r) }

// Append returns the roster with e added at the end.
func (r Roster) Append(e Enrollment) Roster {
	return append(r, e)
}

// Clone returns a copy that does not share backing storage with r.
func (r Roster) Clone() Roster {
	if r == nil {
		return Roster{}
	}
	out := make(Roster, len(r))
	copy(out, r)
	return out
}

// Trial identifies an independent enrollment stream.
type Trial struct {
	ID   string // storage key, e.g. "trial_1"
	Name string // display name, e.g. "Trial 1 (COPD)"
}
