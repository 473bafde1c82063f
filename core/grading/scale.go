package grading

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrOutOfRange      = errors.New("score out of range")
	ErrUnknownGrade    = errors.New("unknown grade")
	ErrDegenerateGroup = errors.New("group has zero credit units")
	ErrInvalidUnit     = errors.New("credit unit must be at least 1")
)

const (
	MinScore = 0
	MaxScore = 100
)

type Grade string

// Grades
const (
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
)

// Band is one row of the grade scale. Min and Max are inclusive.
type Band struct {
	Grade  Grade   `json:"grade"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Points float64 `json:"points"`
}

// scale is ordered from the highest band down.
// A score belongs to the first band whose Min it reaches.
var scale = []Band{
	{Grade: GradeA, Min: 90, Max: 100, Points: 4.0},
	{Grade: GradeAMinus, Min: 85, Max: 89, Points: 3.7},
	{Grade: GradeBPlus, Min: 80, Max: 84, Points: 3.3},
	{Grade: GradeB, Min: 75, Max: 79, Points: 3.0},
	{Grade: GradeBMinus, Min: 70, Max: 74, Points: 2.7},
	{Grade: GradeCPlus, Min: 65, Max: 69, Points: 2.3},
	{Grade: GradeC, Min: 60, Max: 64, Points: 2.0},
	{Grade: GradeCMinus, Min: 55, Max: 59, Points: 1.7},
	{Grade: GradeD, Min: 50, Max: 54, Points: 1.0},
	{Grade: GradeF, Min: 0, Max: 49, Points: 0.0},
}

var points = func() map[Grade]float64 {
	m := make(map[Grade]float64, len(scale))
	for _, b := range scale {
		m[b.Grade] = b.Points
	}
	return m
}()

// Scale returns a copy of the grade scale, highest band first.
func Scale() []Band {
	bands := make([]Band, len(scale))
	copy(bands, scale)
	return bands
}

// grades returns every valid grade, highest first.
func grades() []Grade {
	grades := make([]Grade, 0, len(scale))
	for _, b := range scale {
		grades = append(grades, b.Grade)
	}
	return grades
}

func (g Grade) Valid() bool {
	_, ok := points[g]
	return ok
}

func (g Grade) String() string { return string(g) }

// GradeForScore maps a percentage score to its letter grade.
// Scores outside [0, 100] are rejected, never clamped.
func GradeForScore(score float64) (Grade, error) {
	if math.IsNaN(score) || score < MinScore || score > MaxScore {
		return "", errors.Wrapf(ErrOutOfRange, "score %v", score)
	}
	for _, b := range scale {
		if score >= float64(b.Min) {
			return b.Grade, nil
		}
	}
	return "", errors.Wrapf(ErrOutOfRange, "score %v", score)
}

// PointsForGrade returns the grade point value of a letter grade.
func PointsForGrade(grade Grade) (float64, error) {
	p, ok := points[grade]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownGrade, "grade %q", string(grade))
	}
	return p, nil
}

// IsGradingError reports whether err is caused by one of the grading errors.
func IsGradingError(err error) bool {
	switch errors.Cause(err) {
	case ErrOutOfRange, ErrUnknownGrade, ErrDegenerateGroup, ErrInvalidUnit:
		return true
	}
	return false
}
