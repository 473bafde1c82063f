package result

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/grading"
)

// CSVHeader lists the columns of a results file. Column order does not matter.
var CSVHeader = []string{
	"student_id", "student_name", "course_code", "course_title", "score", "unit", "semester", "session",
}

var ErrEmptyFile = errors.New("file is empty")

type (
	// RowError reports why a row was skipped. Row is the line number in the file, the header being line 1.
	RowError struct {
		Row   int    `json:"row"`
		Error string `json:"error"`
	}

	ImportReport struct {
		Imported int        `json:"imported"`
		Updated  int        `json:"updated"`
		Skipped  []RowError `json:"skipped"`
	}
)

func (rep ImportReport) Total() int {
	return rep.Imported + rep.Updated + len(rep.Skipped)
}

// ImportCSV records every row of a results file.
// Each row is validated on its own: bad rows are skipped and reported, good rows are recorded.
// When courseCodes is not nil, rows of other courses are skipped.
// An error is only returned when the file itself cannot be read.
func (svc *Service) ImportCSV(ctx context.Context, r io.Reader, courseCodes []string) (ImportReport, error) {
	report := ImportReport{Skipped: []RowError{}}

	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true

	header, err := rdr.Read()
	if err == io.EOF {
		return report, core.NewValidationError(ErrEmptyFile, core.FieldError{Field: "file", Error: ErrEmptyFile.Error()})
	}
	if err != nil {
		return report, errors.Wrap(err, "reading header")
	}
	cols, err := columnIndexes(header)
	if err != nil {
		return report, core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
	}

	for {
		row, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				report.Skipped = append(report.Skipped, RowError{Row: perr.Line, Error: perr.Err.Error()})
				continue
			}
			return report, errors.Wrap(err, "reading row")
		}
		line, _ := rdr.FieldPos(0)

		created, err := svc.importRow(ctx, row, cols, courseCodes)
		if err != nil {
			if isRowError(err) {
				report.Skipped = append(report.Skipped, RowError{Row: line, Error: svc.rowErrorText(err)})
				continue
			}
			return report, errors.Wrapf(err, "importing row %d", line)
		}
		if created {
			report.Imported++
		} else {
			report.Updated++
		}
	}

	svc.logger.Info(
		fmt.Sprintf("results imported: %d created, %d updated, %d skipped", report.Imported, report.Updated, len(report.Skipped)),
	)
	return report, nil
}

func (svc *Service) importRow(ctx context.Context, row []string, cols map[string]int, courseCodes []string) (bool, error) {
	get := func(col string) string {
		if i := cols[col]; i < len(row) {
			return row[i]
		}
		return ""
	}

	nr := NewResult{
		StudentID:   get("student_id"),
		StudentName: get("student_name"),
		CourseCode:  get("course_code"),
		CourseTitle: get("course_title"),
		Semester:    get("semester"),
		Session:     get("session"),
	}

	if s := core.CleanString(get("score")); s != "" {
		score, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false, core.NewValidationError(nil, core.FieldError{Field: "score", Error: "score must be a number"})
		}
		nr.Score = &score
	}
	if s := core.CleanString(get("unit")); s != "" {
		unit, err := strconv.Atoi(s)
		if err != nil {
			return false, core.NewValidationError(nil, core.FieldError{Field: "unit", Error: "unit must be a whole number"})
		}
		if unit == 0 {
			// 0 would otherwise read as a missing unit
			return false, core.NewValidationError(nil, core.FieldError{Field: "unit", Error: "unit must be 1 or greater"})
		}
		nr.Unit = unit
	}

	if err := nr.Validate(svc.validate); err != nil {
		return false, err
	}
	if courseCodes != nil && !(&QueryFilter{CourseCodes: courseCodes}).Match(Result{CourseCode: nr.CourseCode}) {
		return false, core.NewValidationError(nil, core.FieldError{Field: "course_code", Error: errCourseNotAllowed})
	}
	res, _, err := svc.build(ctx, nr)
	if err != nil {
		return false, err
	}
	_, created, err := svc.save(ctx, res)
	return created, err
}

func columnIndexes(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.ToLower(core.CleanString(strings.TrimPrefix(col, "\ufeff")))
		if _, ok := cols[col]; !ok {
			cols[col] = i
		}
	}
	var missing []string
	for _, col := range CSVHeader {
		if _, ok := cols[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// isRowError reports whether err is caused by the content of a row rather than by the storage.
func isRowError(err error) bool {
	switch errors.Cause(err).(type) {
	case *core.ValidationError, validator.ValidationErrors:
		return true
	}
	return grading.IsGradingError(err)
}

func (svc *Service) rowErrorText(err error) string {
	switch e := core.TranslateErrors(errors.Cause(err), svc.translator).(type) {
	case *core.ValidationError:
		if len(e.Fields) == 0 {
			return e.Error()
		}
		msgs := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			msgs = append(msgs, f.Field+": "+f.Error)
		}
		return strings.Join(msgs, "; ")
	default:
		return errors.Cause(err).Error()
	}
}
