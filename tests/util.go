package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/grading"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, matric, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{}
	}
	usr := user.User{
		Name:         name,
		Username:     uname,
		Email:        email,
		MatricNumber: matric,
		Roles:        roles,
		IsActive:     isActive,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateDepartment(t *testing.T, repo department.Repository, name, code string) department.Department {
	dept, err := repo.CreateDepartment(context.Background(), department.Department{
		Name:      name,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateDepartment() failed: %v", err)
	}
	return dept
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	title, code string,
	unit int,
	deptID string,
	lecturerIDs ...string,
) course.Course {
	if lecturerIDs == nil {
		lecturerIDs = []string{}
	}
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:        title,
		Code:         code,
		Unit:         unit,
		DepartmentID: deptID,
		LecturerIDs:  lecturerIDs,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

// CreateResult stores a graded result. The course ID is left empty: results may reference unregistered courses.
func CreateResult(
	t *testing.T,
	repo result.Repository,
	studentID, studentName, courseCode string,
	score float64,
	unit int,
	semester, session string,
) result.Result {
	grade, err := grading.GradeForScore(score)
	if err != nil {
		t.Fatalf("CreateResult() failed: %v", err)
	}
	now := time.Now().UTC()
	res, _, err := repo.SaveResult(context.Background(), result.Result{
		StudentID:   studentID,
		StudentName: studentName,
		CourseCode:  courseCode,
		CourseTitle: courseCode,
		Score:       score,
		Grade:       grade,
		Unit:        unit,
		Semester:    semester,
		Session:     session,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateResult() failed: %v", err)
	}
	return res
}
