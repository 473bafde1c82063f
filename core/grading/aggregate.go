package grading

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ScoreRecord is one student's score in one course for a semester of a session.
type ScoreRecord struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	CourseCode  string  `json:"course_code"`
	CourseTitle string  `json:"course_title"`
	Score       float64 `json:"score"`
	Grade       Grade   `json:"grade"`
	Unit        int     `json:"unit"`
	Semester    string  `json:"semester"`
	Session     string  `json:"session"`
}

// NewScoreRecord builds a ScoreRecord whose grade is derived from score.
func NewScoreRecord(studentID, studentName, courseCode, courseTitle string, score float64, unit int, semester, session string) (ScoreRecord, error) {
	grade, err := GradeForScore(score)
	if err != nil {
		return ScoreRecord{}, err
	}
	if unit < 1 {
		return ScoreRecord{}, errors.Wrapf(ErrInvalidUnit, "unit %d", unit)
	}
	return ScoreRecord{
		StudentID:   studentID,
		StudentName: studentName,
		CourseCode:  courseCode,
		CourseTitle: courseTitle,
		Score:       score,
		Grade:       grade,
		Unit:        unit,
		Semester:    semester,
		Session:     session,
	}, nil
}

// Points returns the record's grade points weighted by its credit unit.
func (r ScoreRecord) Points() (float64, error) {
	p, err := PointsForGrade(r.Grade)
	if err != nil {
		return 0, err
	}
	return p * float64(r.Unit), nil
}

// SemesterKey identifies the records of one student in one semester of one session.
type SemesterKey struct {
	StudentID string
	Semester  string
	Session   string
}

type SemesterGPA struct {
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name"`
	Semester    string        `json:"semester"`
	Session     string        `json:"session"`
	Courses     []ScoreRecord `json:"courses"`
	TotalUnits  int           `json:"total_units"`
	TotalPoints float64       `json:"total_points"`
	GPA         float64       `json:"gpa"`
}

func (s SemesterGPA) Key() SemesterKey {
	return SemesterKey{StudentID: s.StudentID, Semester: s.Semester, Session: s.Session}
}

type CumulativeGPA struct {
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name"`
	Semesters   []SemesterGPA `json:"semesters"`
	TotalUnits  int           `json:"total_units"`
	TotalPoints float64       `json:"total_points"`
	CGPA        float64       `json:"cgpa"`
}

// ComputeSemesterGPAs groups records by (student, semester, session) and computes
// the credit-weighted GPA of each group. Groups are returned in the order their
// first record appears in records.
func ComputeSemesterGPAs(records []ScoreRecord) ([]SemesterGPA, error) {
	index := make(map[SemesterKey]int)
	groups := make([]SemesterGPA, 0)

	for _, r := range records {
		// zero units are left to the group check below
		if r.Unit < 0 {
			return nil, errors.Wrapf(ErrInvalidUnit, "student %s, course %s: unit %d", r.StudentID, r.CourseCode, r.Unit)
		}
		p, err := r.Points()
		if err != nil {
			return nil, errors.Wrapf(err, "student %s, course %s", r.StudentID, r.CourseCode)
		}

		key := SemesterKey{StudentID: r.StudentID, Semester: r.Semester, Session: r.Session}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SemesterGPA{
				StudentID:   r.StudentID,
				StudentName: r.StudentName,
				Semester:    r.Semester,
				Session:     r.Session,
			})
		}

		g := &groups[i]
		g.Courses = append(g.Courses, r)
		g.TotalUnits += r.Unit
		g.TotalPoints += p
	}

	for i := range groups {
		g := &groups[i]
		if g.TotalUnits <= 0 {
			return nil, errors.Wrapf(ErrDegenerateGroup, "student %s, %s %s", g.StudentID, g.Semester, g.Session)
		}
		g.GPA = g.TotalPoints / float64(g.TotalUnits)
	}
	return groups, nil
}

// ComputeCumulativeGPAs groups semester GPAs by student and rolls them up into a
// CGPA weighted by each semester's total units. Students are returned in the
// order their first semester appears in semesters.
func ComputeCumulativeGPAs(semesters []SemesterGPA) ([]CumulativeGPA, error) {
	index := make(map[string]int)
	students := make([]CumulativeGPA, 0)

	for _, s := range semesters {
		if s.TotalUnits < 0 {
			return nil, errors.Wrapf(ErrInvalidUnit, "student %s, %s %s: %d units", s.StudentID, s.Semester, s.Session, s.TotalUnits)
		}
		i, ok := index[s.StudentID]
		if !ok {
			i = len(students)
			index[s.StudentID] = i
			students = append(students, CumulativeGPA{
				StudentID:   s.StudentID,
				StudentName: s.StudentName,
			})
		}

		c := &students[i]
		c.Semesters = append(c.Semesters, s)
		c.TotalUnits += s.TotalUnits
		c.TotalPoints += s.GPA * float64(s.TotalUnits)
	}

	for i := range students {
		c := &students[i]
		if c.TotalUnits <= 0 {
			return nil, errors.Wrapf(ErrDegenerateGroup, "student %s", c.StudentID)
		}
		c.CGPA = c.TotalPoints / float64(c.TotalUnits)
	}
	return students, nil
}

// SortSemesterGPAs orders semesters by student, session then semester.
func SortSemesterGPAs(semesters []SemesterGPA) {
	sort.SliceStable(semesters, func(i, j int) bool {
		a, b := semesters[i], semesters[j]
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		if a.Session != b.Session {
			return a.Session < b.Session
		}
		return a.Semester < b.Semester
	})
}

// Round2 rounds v to 2 decimal places, for display only.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type Standing string

const (
	StandingExcellent Standing = "excellent"
	StandingGood      Standing = "good"
	StandingFair      Standing = "fair"
	StandingAtRisk    Standing = "at risk"
)

// StandingFor classifies a GPA or CGPA.
func StandingFor(gpa float64) Standing {
	switch {
	case gpa >= 3.5:
		return StandingExcellent
	case gpa >= 3.0:
		return StandingGood
	case gpa >= 2.5:
		return StandingFair
	default:
		return StandingAtRisk
	}
}
