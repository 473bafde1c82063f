package result

import (
	"context"

	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/grading"
)

var ErrNoResults = core.NewNotFoundError("results")

type (
	Transcript struct {
		StudentID   string              `json:"student_id"`
		StudentName string              `json:"student_name"`
		Sessions    []TranscriptSession `json:"sessions"`
		TotalUnits  int                 `json:"total_units"`
		CGPA        float64             `json:"cgpa"`
		Standing    grading.Standing    `json:"standing"`
	}

	TranscriptSession struct {
		Session   string               `json:"session"`
		Semesters []TranscriptSemester `json:"semesters"`
	}

	TranscriptSemester struct {
		Semester   string                `json:"semester"`
		Courses    []grading.ScoreRecord `json:"courses"`
		TotalUnits int                   `json:"total_units"`
		GPA        float64               `json:"gpa"`
		Standing   grading.Standing      `json:"standing"`
	}
)

// Transcript lays out every result of a student by session then semester.
// GPAs are computed at full precision and rounded to 2 decimals for display.
func (svc *Service) Transcript(ctx context.Context, studentID string) (Transcript, error) {
	studentID = core.CleanString(studentID)
	students, err := svc.CumulativeGPAs(ctx, GPAFilter{StudentID: studentID})
	if err != nil {
		return Transcript{}, errors.Wrap(err, "computing cumulative GPAs")
	}
	if len(students) == 0 {
		return Transcript{}, ErrNoResults
	}
	cgpa := students[0]

	tr := Transcript{
		StudentID:   cgpa.StudentID,
		StudentName: cgpa.StudentName,
		TotalUnits:  cgpa.TotalUnits,
		CGPA:        grading.Round2(cgpa.CGPA),
		Standing:    grading.StandingFor(cgpa.CGPA),
	}

	// semesters are sorted by session, so a session's semesters are contiguous
	for _, s := range cgpa.Semesters {
		if n := len(tr.Sessions); n == 0 || tr.Sessions[n-1].Session != s.Session {
			tr.Sessions = append(tr.Sessions, TranscriptSession{Session: s.Session})
		}
		sess := &tr.Sessions[len(tr.Sessions)-1]
		sess.Semesters = append(sess.Semesters, TranscriptSemester{
			Semester:   s.Semester,
			Courses:    s.Courses,
			TotalUnits: s.TotalUnits,
			GPA:        grading.Round2(s.GPA),
			Standing:   grading.StandingFor(s.GPA),
		})
	}
	return tr, nil
}
