package feedback

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
)

type Feedback struct {
	ID         string    `json:"id" db:"id"`
	StudentID  string    `json:"student_id,omitempty" db:"student_id"` // user ID
	CourseID   string    `json:"course_id" db:"course_id"`
	CourseCode string    `json:"course_code" db:"course_code"`
	LecturerID string    `json:"lecturer_id" db:"lecturer_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	Sentiment  Sentiment `json:"sentiment" db:"sentiment"`
	Session    string    `json:"session" db:"session"`
	Semester   string    `json:"semester" db:"semester"`
	Anonymous  bool      `json:"anonymous" db:"anonymous"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Public hides the student of an anonymous feedback.
func (fb Feedback) Public() Feedback {
	if fb.Anonymous {
		fb.StudentID = ""
	}
	return fb
}

// Key identifies a feedback: a student gives one feedback per course, lecturer, session and semester.
type Key struct {
	StudentID  string
	CourseID   string
	LecturerID string
	Session    string
	Semester   string
}

func (fb Feedback) Key() Key {
	return Key{
		StudentID:  fb.StudentID,
		CourseID:   fb.CourseID,
		LecturerID: fb.LecturerID,
		Session:    fb.Session,
		Semester:   fb.Semester,
	}
}

// NewFeedback contains information needed to submit a Feedback.
type NewFeedback struct {
	CourseCode string `json:"course_code" validate:"required,alphanum,max=20"`
	LecturerID string `json:"lecturer_id" validate:"required"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	Comment    string `json:"comment" validate:"max=2000"`
	Session    string `json:"session" validate:"required,session"`
	Semester   string `json:"semester" validate:"required,notblank,max=50"`
	Anonymous  *bool  `json:"anonymous"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.CourseCode = course.CleanCode(nf.CourseCode)
	nf.LecturerID = core.CleanString(nf.LecturerID)
	nf.Comment = core.CleanString(nf.Comment)
	nf.Session = core.CleanString(nf.Session)
	nf.Semester = core.CleanString(nf.Semester)
	return validate.Struct(nf)
}

type QueryFilter struct {
	CourseCode string
	LecturerID string
	Session    string
	Semester   string
	Sentiment  Sentiment
}

func (qf *QueryFilter) Clean() {
	qf.CourseCode = course.CleanCode(qf.CourseCode)
	qf.LecturerID = core.CleanString(qf.LecturerID)
	qf.Session = core.CleanString(qf.Session)
	qf.Semester = core.CleanString(qf.Semester)
	qf.Sentiment = Sentiment(core.CleanString(string(qf.Sentiment), true /* lower */))
}

func (qf *QueryFilter) Match(fb Feedback) bool {
	if qf == nil {
		return true
	}
	return (qf.CourseCode == "" || fb.CourseCode == qf.CourseCode) &&
		(qf.LecturerID == "" || fb.LecturerID == qf.LecturerID) &&
		(qf.Session == "" || fb.Session == qf.Session) &&
		(qf.Semester == "" || fb.Semester == qf.Semester) &&
		(qf.Sentiment == "" || fb.Sentiment == qf.Sentiment)
}

type Summary struct {
	Total         int               `json:"total"`
	AverageRating float64           `json:"average_rating"`
	Sentiments    map[Sentiment]int `json:"sentiments"`
}
