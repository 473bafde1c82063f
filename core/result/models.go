package result

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/grading"
)

// Result is a stored score record.
// StudentID holds the student's matric number.
type Result struct {
	ID          string        `json:"id" db:"id"`
	StudentID   string        `json:"student_id" db:"student_id"`
	StudentName string        `json:"student_name" db:"student_name"`
	CourseID    string        `json:"course_id,omitempty" db:"course_id"`
	CourseCode  string        `json:"course_code" db:"course_code"`
	CourseTitle string        `json:"course_title" db:"course_title"`
	Score       float64       `json:"score" db:"score"`
	Grade       grading.Grade `json:"grade" db:"grade"`
	Unit        int           `json:"unit" db:"unit"`
	Semester    string        `json:"semester" db:"semester"`
	Session     string        `json:"session" db:"session"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"` // UTC
}

// Record returns the score record the grading engine works on.
func (r Result) Record() grading.ScoreRecord {
	return grading.ScoreRecord{
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		CourseCode:  r.CourseCode,
		CourseTitle: r.CourseTitle,
		Score:       r.Score,
		Grade:       r.Grade,
		Unit:        r.Unit,
		Semester:    r.Semester,
		Session:     r.Session,
	}
}

// Key identifies a result: a student has at most one result per course, session and semester.
type Key struct {
	StudentID  string
	CourseCode string
	Session    string
	Semester   string
}

func (r Result) Key() Key {
	return Key{StudentID: r.StudentID, CourseCode: r.CourseCode, Session: r.Session, Semester: r.Semester}
}

// NewResult contains information needed to record a Result.
// The grade is always derived from the score. The unit and title are taken from the course when it is known.
type NewResult struct {
	StudentID   string   `json:"student_id" validate:"required,notblank,max=50"`
	StudentName string   `json:"student_name" validate:"max=200"`
	CourseCode  string   `json:"course_code" validate:"required,alphanum,max=20"`
	CourseTitle string   `json:"course_title" validate:"max=200"`
	Score       *float64 `json:"score" validate:"required,min=0,max=100"`
	Unit        int      `json:"unit" validate:"omitempty,min=1,max=5"`
	Semester    string   `json:"semester" validate:"required,notblank,max=50"`
	Session     string   `json:"session" validate:"required,session"`
}

func (nr *NewResult) Clean() {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.StudentName = core.CleanString(nr.StudentName)
	nr.CourseCode = course.CleanCode(nr.CourseCode)
	nr.CourseTitle = core.CleanString(nr.CourseTitle)
	nr.Semester = core.CleanString(nr.Semester)
	nr.Session = core.CleanString(nr.Session)
}

func (nr *NewResult) Validate(validate *validator.Validate) error {
	nr.Clean()
	return validate.Struct(nr)
}

type QueryFilter struct {
	StudentID  string
	CourseCode string
	Session    string
	Semester   string
	// CourseCodes restricts results to these courses when not nil.
	CourseCodes []string
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.CourseCode = course.CleanCode(qf.CourseCode)
	qf.Session = core.CleanString(qf.Session)
	qf.Semester = core.CleanString(qf.Semester)
}

// Match reports whether r satisfies every set field of the filter.
func (qf *QueryFilter) Match(r Result) bool {
	if qf == nil {
		return true
	}
	if qf.StudentID != "" && r.StudentID != qf.StudentID {
		return false
	}
	if qf.CourseCode != "" && r.CourseCode != qf.CourseCode {
		return false
	}
	if qf.Session != "" && r.Session != qf.Session {
		return false
	}
	if qf.Semester != "" && r.Semester != qf.Semester {
		return false
	}
	if qf.CourseCodes != nil {
		for _, code := range qf.CourseCodes {
			if r.CourseCode == code {
				return true
			}
		}
		return false
	}
	return true
}

// GPAFilter narrows the aggregator output. Filtering happens after aggregation.
type GPAFilter struct {
	StudentID string
	Session   string
}

func (gf *GPAFilter) Clean() {
	gf.StudentID = core.CleanString(gf.StudentID)
	gf.Session = core.CleanString(gf.Session)
}
