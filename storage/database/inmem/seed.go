package inmemdb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/grading"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

type seedUser struct {
	name, username, email, matric, password, dept string
	role                                          string
}

var (
	seedDepartments = []department.Department{
		{Name: "Computer Science", Code: "CS"},
		{Name: "Mathematics", Code: "MATH"},
		{Name: "Physics", Code: "PHY"},
		{Name: "Engineering", Code: "ENG"},
	}

	seedUsers = []seedUser{
		{name: "Admin User", username: "admin", email: "admin@school.edu", password: "admin123", role: user.RoleAdmin},
		{name: "Dr. Smith", username: "lecturer", email: "lecturer@school.edu", password: "lecturer123", dept: "CS", role: user.RoleLecturer},
		{name: "John Doe", username: "student", email: "student@school.edu", matric: "STU001", password: "student123", dept: "CS", role: user.RoleStudent},
		{name: "Jane Wilson", username: "jwilson", email: "jane.wilson@school.edu", matric: "STU002", password: "student123", dept: "MATH", role: user.RoleStudent},
	}

	// lecturer is assigned to the CS courses
	seedCourses = []struct {
		course.Course
		dept     string
		lecturer bool
	}{
		{Course: course.Course{Title: "Introduction to Programming", Code: "CS101", Unit: 3}, dept: "CS", lecturer: true},
		{Course: course.Course{Title: "Data Structures and Algorithms", Code: "CS201", Unit: 4}, dept: "CS", lecturer: true},
		{Course: course.Course{Title: "Calculus I", Code: "MATH101", Unit: 3}, dept: "MATH"},
		{Course: course.Course{Title: "Physics Mechanics", Code: "PHY101", Unit: 4}, dept: "PHY"},
	}

	seedResults = []struct {
		student, course string
		score           float64
	}{
		{student: "STU001", course: "CS101", score: 85},
		{student: "STU001", course: "MATH101", score: 78},
		{student: "STU002", course: "MATH101", score: 92},
		{student: "STU002", course: "CS201", score: 88},
	}
)

const (
	seedSemester = "Fall"
	seedSession  = "2024/2025"
)

// Seed fills db with the demo accounts, departments, courses and results.
// Passwords are hashed as is: demo accounts skip the password policy.
// Grades are derived from the scores.
func Seed(ctx context.Context, db *DB) error {
	now := time.Now().UTC()

	deptRepo := NewDepartmentRepository(db)
	depts := make(map[string]department.Department, len(seedDepartments))
	for _, d := range seedDepartments {
		d.CreatedAt = now
		dept, err := deptRepo.CreateDepartment(ctx, d)
		if err != nil {
			return errors.Wrapf(err, "seeding department %s", d.Code)
		}
		depts[dept.Code] = dept
	}

	userRepo := NewUserRepository(db)
	students := make(map[string]user.User)
	var lecturerID string
	for _, su := range seedUsers {
		usr := user.User{
			Name:         su.name,
			Username:     su.username,
			Email:        su.email,
			MatricNumber: su.matric,
			DepartmentID: depts[su.dept].ID,
			IsActive:     true,
			Roles:        []string{su.role},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := usr.SetPassword(su.password); err != nil {
			return errors.Wrapf(err, "hashing password of %s", su.username)
		}
		usr, err := userRepo.CreateUser(ctx, usr)
		if err != nil {
			return errors.Wrapf(err, "seeding user %s", su.username)
		}
		switch su.role {
		case user.RoleLecturer:
			lecturerID = usr.ID
		case user.RoleStudent:
			students[usr.MatricNumber] = usr
		}
	}

	courseRepo := NewCourseRepository(db)
	courses := make(map[string]course.Course, len(seedCourses))
	for _, sc := range seedCourses {
		crs := sc.Course
		crs.DepartmentID = depts[sc.dept].ID
		crs.LecturerIDs = []string{}
		if sc.lecturer {
			crs.LecturerIDs = []string{lecturerID}
		}
		crs.CreatedAt = now
		crs, err := courseRepo.CreateCourse(ctx, crs)
		if err != nil {
			return errors.Wrapf(err, "seeding course %s", sc.Code)
		}
		courses[crs.Code] = crs
	}

	resultRepo := NewResultRepository(db)
	for _, sr := range seedResults {
		grade, err := grading.GradeForScore(sr.score)
		if err != nil {
			return errors.Wrapf(err, "grading %s/%s", sr.student, sr.course)
		}
		crs := courses[sr.course]
		res := result.Result{
			StudentID:   sr.student,
			StudentName: students[sr.student].Name,
			CourseID:    crs.ID,
			CourseCode:  crs.Code,
			CourseTitle: crs.Title,
			Score:       sr.score,
			Grade:       grade,
			Unit:        crs.Unit,
			Semester:    seedSemester,
			Session:     seedSession,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, _, err := resultRepo.SaveResult(ctx, res); err != nil {
			return errors.Wrapf(err, "seeding result %s/%s", sr.student, sr.course)
		}
	}
	return nil
}
