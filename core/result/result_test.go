package result_test

import (
	"context"
	"io"
	"net/mail"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/grading"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
	emailsvc "github.com/acadboard/acadboard/services/email"
	logsvc "github.com/acadboard/acadboard/services/logger"
	inmemdb "github.com/acadboard/acadboard/storage/database/inmem"
)

var testConf = &core.Config{
	AppName:          "Acadboard",
	DefaultFromEmail: mail.Address{Name: "Acadboard", Address: "noreply@acadboard.test"},
}

// setup returns a result service over the seeded in-memory database.
func setup(t *testing.T) (*result.Service, *emailsvc.ConsoleServiceMock, *validator.Validate) {
	db := inmemdb.Open()
	require.NoError(t, inmemdb.Seed(context.Background(), db))

	logger := logsvc.NewKitLogger(io.Discard)
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	mailSvc := emailsvc.NewConsoleServiceMock(testConf, logger)
	svc := result.NewService(result.ServiceDeps{
		Repo:       inmemdb.NewResultRepository(db),
		Courses:    course.NewService(inmemdb.NewCourseRepository(db), department.NewService(inmemdb.NewDepartmentRepository(db)), usrSvc),
		Students:   usrSvc,
		MailSvc:    mailSvc,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
	})
	return svc, mailSvc, validate
}

func score(s float64) *float64 { return &s }

func fieldError(t *testing.T, err error) core.FieldError {
	t.Helper()
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %T: %v", err, err)
	require.NotEmpty(t, vErr.Fields)
	return vErr.Fields[0]
}

func cgpas(t *testing.T, svc *result.Service) map[string]float64 {
	t.Helper()
	students, err := svc.CumulativeGPAs(context.Background(), result.GPAFilter{})
	require.NoError(t, err)
	res := make(map[string]float64, len(students))
	for _, c := range students {
		res[c.StudentID] = grading.Round2(c.CGPA)
	}
	return res
}

func TestNewResult_Validate(t *testing.T) {
	_, _, validate := setup(t)

	nr := result.NewResult{
		StudentID:  " STU001 ",
		CourseCode: "cs101",
		Score:      score(85),
		Semester:   " Fall",
		Session:    "2024/2025",
	}
	require.NoError(t, nr.Validate(validate))
	assert.Equal(t, "STU001", nr.StudentID)
	assert.Equal(t, "CS101", nr.CourseCode)
	assert.Equal(t, "Fall", nr.Semester)

	tests := []struct {
		name    string
		modify  func(nr *result.NewResult)
		wantFld string
		wantTag string
	}{
		{name: "missing score", modify: func(nr *result.NewResult) { nr.Score = nil }, wantFld: "score", wantTag: "required"},
		{name: "negative score", modify: func(nr *result.NewResult) { nr.Score = score(-1) }, wantFld: "score", wantTag: "min"},
		{name: "score above 100", modify: func(nr *result.NewResult) { nr.Score = score(100.5) }, wantFld: "score", wantTag: "max"},
		{name: "unit above 5", modify: func(nr *result.NewResult) { nr.Unit = 6 }, wantFld: "unit", wantTag: "max"},
		{name: "bad session", modify: func(nr *result.NewResult) { nr.Session = "2024/2026" }, wantFld: "session", wantTag: "session"},
		{name: "blank semester", modify: func(nr *result.NewResult) { nr.Semester = " " }, wantFld: "semester", wantTag: "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nr := nr
			tt.modify(&nr)
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(nr.Validate(validate), &vErrs))
			assert.Equal(t, tt.wantFld, vErrs[0].Field())
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func TestService_Record(t *testing.T) {
	svc, mailSvc, _ := setup(t)
	ctx := context.Background()

	nr := result.NewResult{StudentID: "STU001", CourseCode: "PHY101", Score: score(65), Unit: 1, Semester: "Fall", Session: "2024/2025"}
	res, created, err := svc.Record(ctx, nr)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "John Doe", res.StudentName)
	assert.Equal(t, "Physics Mechanics", res.CourseTitle)
	assert.Equal(t, 4, res.Unit, "the course unit wins")
	assert.Equal(t, grading.GradeCPlus, res.Grade)
	assert.NotEmpty(t, res.CourseID)

	sent := mailSvc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []mail.Address{{Name: "John Doe", Address: "student@school.edu"}}, sent[0].To)
	assert.Contains(t, sent[0].TextContent, "Score: 65, grade: C+")

	// same student, course, semester and session: overwritten
	nr.Score = score(70)
	updated, created, err := svc.Record(ctx, nr)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, res.ID, updated.ID)
	assert.Equal(t, grading.GradeBMinus, updated.Grade)
	assert.Len(t, mailSvc.Sent(), 2)

	results, err := svc.Query(ctx, &result.QueryFilter{StudentID: "STU001"})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	t.Run("validated", func(t *testing.T) {
		_, _, err := svc.Record(ctx, result.NewResult{StudentID: "STU001", CourseCode: "CS101", Semester: "Fall", Session: "2024/2025"})
		var vErrs validator.ValidationErrors
		require.True(t, errors.As(err, &vErrs), "got %T: %v", err, err)
		assert.Equal(t, "score", vErrs[0].Field())
		assert.Equal(t, "required", vErrs[0].Tag())

		_, _, err = svc.Record(ctx, result.NewResult{StudentID: " STU001 ", CourseCode: "cs101", Score: score(101), Semester: "Fall", Session: "2024/2025"})
		require.True(t, errors.As(err, &vErrs), "got %T: %v", err, err)
		assert.Equal(t, "max", vErrs[0].Tag())
	})

	t.Run("unregistered course", func(t *testing.T) {
		nr := result.NewResult{StudentID: "STU001", CourseCode: "BIO101", Score: score(55), Semester: "Fall", Session: "2024/2025"}
		_, _, err := svc.Record(ctx, nr)
		assert.Equal(t, "unit", fieldError(t, err).Field)

		nr.Unit = 2
		res, _, err := svc.Record(ctx, nr)
		require.NoError(t, err)
		assert.Equal(t, "BIO101", res.CourseTitle)
		assert.Empty(t, res.CourseID)
		assert.Equal(t, grading.GradeCMinus, res.Grade)
	})

	t.Run("unregistered student", func(t *testing.T) {
		mailSvc.Reset()
		nr := result.NewResult{StudentID: "STU999", CourseCode: "CS101", Score: score(40), Semester: "Fall", Session: "2024/2025"}
		_, _, err := svc.Record(ctx, nr)
		assert.Equal(t, "student_name", fieldError(t, err).Field)

		nr.StudentName = "Ann Lee"
		res, _, err := svc.Record(ctx, nr)
		require.NoError(t, err)
		assert.Equal(t, grading.GradeF, res.Grade)
		assert.Empty(t, mailSvc.Sent())
	})

	require.NoError(t, svc.Delete(ctx, res.ID))
	_, err = svc.GetByID(ctx, res.ID)
	assert.Equal(t, result.ErrNotFound, err)
}

func TestService_ImportCSV(t *testing.T) {
	svc, mailSvc, _ := setup(t)
	ctx := context.Background()

	file := strings.Join([]string{
		"\ufeffStudent_ID, student_name,course_code,course_title,score,unit,semester,session",
		"STU001,,CS201,,91,,Spring,2025/2026",
		"STU002,,MATH101,,95,,Fall,2024/2025",
		"STU003,Ann Lee,BIO101,Biology,55,2,Fall,2024/2025",
		"STU001,,CS101,,abc,,Fall,2024/2025",
		"STU001,,CS101,,101,,Fall,2024/2025",
		"STU004,,CS101,,50,,Fall,2024/2025",
		"STU001,,CS101,,80,,Fall,2024/2026",
		"STU001,,CS101,,80,0,Fall,2024/2025",
	}, "\n")

	report, err := svc.ImportCSV(ctx, strings.NewReader(file), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 8, report.Total())

	rows := make([]int, 0, len(report.Skipped))
	for _, row := range report.Skipped {
		rows = append(rows, row.Row)
	}
	assert.Equal(t, []int{5, 6, 7, 8, 9}, rows)
	assert.Equal(t, "score: score must be a number", report.Skipped[0].Error)
	assert.True(t, strings.HasPrefix(report.Skipped[1].Error, "score: "), report.Skipped[1].Error)
	assert.True(t, strings.HasPrefix(report.Skipped[2].Error, "student_name: "), report.Skipped[2].Error)
	assert.True(t, strings.HasPrefix(report.Skipped[3].Error, "session: "), report.Skipped[3].Error)
	assert.Equal(t, "unit: unit must be 1 or greater", report.Skipped[4].Error)

	assert.Empty(t, mailSvc.Sent(), "imports do not notify students")
	assert.Equal(t, map[string]float64{"STU001": 3.61, "STU002": 3.83, "STU003": 1.7}, cgpas(t, svc))
}

func TestService_ImportCSV_courseCodes(t *testing.T) {
	svc, _, _ := setup(t)

	file := "student_id,student_name,course_code,course_title,score,unit,semester,session\n" +
		"STU001,,cs101,,90,,Fall,2024/2025\n" +
		"STU001,,MATH101,,90,,Fall,2024/2025\n"
	report, err := svc.ImportCSV(context.Background(), strings.NewReader(file), []string{"CS101", "CS201"})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, []result.RowError{{Row: 3, Error: "course_code: you cannot record results for this course"}}, report.Skipped)
}

func TestService_ImportCSV_badFile(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, strings.NewReader(""), nil)
	assert.Equal(t, core.FieldError{Field: "file", Error: result.ErrEmptyFile.Error()}, fieldError(t, err))

	_, err = svc.ImportCSV(ctx, strings.NewReader("student_id,score\nSTU001,80\n"), nil)
	assert.Equal(t, core.FieldError{
		Field: "file",
		Error: "missing columns: student_name, course_code, course_title, unit, semester, session",
	}, fieldError(t, err))
}

func TestService_GPAs(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, _, err := svc.Record(ctx, result.NewResult{StudentID: "STU001", CourseCode: "CS201", Score: score(91), Semester: "Spring", Session: "2025/2026"})
	require.NoError(t, err)

	semesters, err := svc.SemesterGPAs(ctx, result.GPAFilter{StudentID: "STU001"})
	require.NoError(t, err)
	require.Len(t, semesters, 2)
	assert.Equal(t, "2024/2025", semesters[0].Session)
	assert.Equal(t, 3.35, grading.Round2(semesters[0].GPA))
	assert.Equal(t, "2025/2026", semesters[1].Session)
	assert.Equal(t, 4.0, semesters[1].GPA)
	assert.Equal(t, 16.0, semesters[1].TotalPoints)

	semesters, err = svc.SemesterGPAs(ctx, result.GPAFilter{Session: "2024/2025"})
	require.NoError(t, err)
	assert.Len(t, semesters, 2)

	// the session filter does not narrow a CGPA
	students, err := svc.CumulativeGPAs(ctx, result.GPAFilter{StudentID: "STU001", Session: "2024/2025"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 3.61, grading.Round2(students[0].CGPA))
	assert.Equal(t, 10, students[0].TotalUnits)

	students, err = svc.CumulativeGPAs(ctx, result.GPAFilter{StudentID: "STU404"})
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestService_Transcript(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, _, err := svc.Record(ctx, result.NewResult{StudentID: "STU001", CourseCode: "CS201", Score: score(91), Semester: "Spring", Session: "2025/2026"})
	require.NoError(t, err)

	tr, err := svc.Transcript(ctx, " STU001")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", tr.StudentName)
	assert.Equal(t, 3.61, tr.CGPA)
	assert.Equal(t, grading.StandingExcellent, tr.Standing)
	assert.Equal(t, 10, tr.TotalUnits)
	require.Len(t, tr.Sessions, 2)
	require.Len(t, tr.Sessions[0].Semesters, 1)
	fall := tr.Sessions[0].Semesters[0]
	assert.Equal(t, "Fall", fall.Semester)
	assert.Len(t, fall.Courses, 2)
	assert.Equal(t, 3.35, fall.GPA)
	assert.Equal(t, grading.StandingGood, fall.Standing)
	assert.Equal(t, 4.0, tr.Sessions[1].Semesters[0].GPA)

	_, err = svc.Transcript(ctx, "STU404")
	assert.Equal(t, result.ErrNoResults, err)
}
