package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/grading"
	"github.com/acadboard/acadboard/core/result"
)

// importResults imports a results CSV, then prints the import report and every student's CGPA.
func (cli *commandLine) importResults(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening results file")
	}
	defer file.Close()

	ctx := context.Background()
	report, err := cli.resultSvc.ImportCSV(ctx, file, nil)
	if err != nil {
		return errors.Wrap(err, "importing results")
	}
	cli.logger.Info("results imported", map[string]interface{}{
		"file":     path,
		"imported": report.Imported,
		"updated":  report.Updated,
		"skipped":  len(report.Skipped),
	})

	fmt.Fprintf(cli.out, "imported: %d, updated: %d, skipped: %d\n", report.Imported, report.Updated, len(report.Skipped))
	for _, row := range report.Skipped {
		fmt.Fprintf(cli.out, "  row %d: %s\n", row.Row, row.Error)
	}
	fmt.Fprintln(cli.out)

	students, err := cli.resultSvc.CumulativeGPAs(ctx, result.GPAFilter{})
	if err != nil {
		return errors.Wrap(err, "computing cumulative GPAs")
	}
	return cli.printCumulative(students)
}

// gpaReport prints the semester GPAs matching studentID and session, then the matching students' CGPAs.
func (cli *commandLine) gpaReport(studentID, session string) error {
	ctx := context.Background()
	filter := result.GPAFilter{StudentID: studentID, Session: session}
	filter.Clean()

	semesters, err := cli.resultSvc.SemesterGPAs(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "computing semester GPAs")
	}
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT\tNAME\tSESSION\tSEMESTER\tCOURSES\tUNITS\tGPA\tSTANDING")
	for _, s := range semesters {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\t%s\n",
			s.StudentID, s.StudentName, s.Session, s.Semester, len(s.Courses), s.TotalUnits,
			grading.Round2(s.GPA), grading.StandingFor(s.GPA))
	}
	if err = w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(cli.out)

	students, err := cli.resultSvc.CumulativeGPAs(ctx, result.GPAFilter{StudentID: filter.StudentID})
	if err != nil {
		return errors.Wrap(err, "computing cumulative GPAs")
	}
	return cli.printCumulative(students)
}

func (cli *commandLine) printCumulative(students []grading.CumulativeGPA) error {
	if len(students) == 0 {
		fmt.Fprintln(cli.out, "no results")
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT\tNAME\tSEMESTERS\tUNITS\tCGPA\tSTANDING")
	for _, c := range students {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%s\n",
			c.StudentID, c.StudentName, len(c.Semesters), c.TotalUnits,
			grading.Round2(c.CGPA), grading.StandingFor(c.CGPA))
	}
	return w.Flush()
}
