// Package assignment contains the pure business logic for enrolling patients.
// This is part of the Functional Core - no I/O, only pure functions over the
// roster length and an explicitly passed random source.
package assignment

import (
	"github.com/example/enroll/internal/core/random"
	"github.com/example/enroll/internal/models"
)

// DefaultBlockSize is the number of consecutive enrollments grouped in a block.
const DefaultBlockSize = 6

// Scheme holds the allocation constants an assignment depends on.
type Scheme struct {
	Arms      []string // ordered arm labels; alternation starts at Arms[0]
	BlockSize int
}

// Assignment is the computed part of a new enrollment.
type Assignment struct {
	Block        int
	Arm          string
	RandomNumber float64
}

// Assign computes the block and arm for the patient enrolled after
// rosterLength existing patients, and draws the reference random number.
//
// The arm strictly alternates by roster length. The random number is only
// recorded; it never influences the arm or block.
func Assign(rosterLength int, scheme Scheme, src random.Source) Assignment {
	if rosterLength < 0 {
		rosterLength = 0
	}

	return Assignment{
		Block:        BlockFor(rosterLength, scheme.BlockSize),
		Arm:          ArmFor(rosterLength, scheme.Arms),
		RandomNumber: src.Float64(),
	}
}

// BlockFor returns the 1-based block number for insertion index n.
func BlockFor(n, blockSize int) int {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return n/blockSize + 1
}

// ArmFor returns the arm for insertion index n.
func ArmFor(n int, arms []string) string {
	if len(arms) == 0 {
		return ""
	}
	return arms[n%len(arms)]
}

// NewRecord builds the roster entry for a patient from a computed assignment.
func NewRecord(institute, patientNumber string, a Assignment) models.Enrollment {
	return models.Enrollment{
		Institute:     institute,
		PatientNumber: patientNumber,
		Block:         a.Block,
		RandomNumber:  a.RandomNumber,
		Arm:           a.Arm,
	}
}
