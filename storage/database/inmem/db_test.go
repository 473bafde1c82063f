package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/feedback"
	"github.com/acadboard/acadboard/core/grading"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

func Test_userRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(Open())

	now := time.Now().UTC()
	bob, err := repo.CreateUser(ctx, user.User{
		Name: "Bob", Username: "bob", Email: "bob@test.cd", Roles: []string{user.RoleLecturer}, IsActive: true, CreatedAt: now,
	})
	require.NoError(t, err)
	amy, err := repo.CreateUser(ctx, user.User{
		Name: "Amy", Username: "amy", Email: "amy@test.cd", MatricNumber: "STU9",
		Roles: []string{user.RoleStudent}, IsActive: false, CreatedAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, bob.ID)
	assert.NotEqual(t, bob.ID, amy.ID)

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "bob", "x@test.cd", ""))
		assert.Equal(t, user.ErrEmailExists, repo.CheckUsernameUniqueness(ctx, "x", "amy@test.cd", ""))
		assert.Equal(t, user.ErrMatricNumberExists, repo.CheckUsernameUniqueness(ctx, "x", "x@test.cd", "STU9"))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "bob", "bob@test.cd", "", bob))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "", "", ""))
	})

	t.Run("query", func(t *testing.T) {
		all, err := repo.QueryUsers(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID, amy.ID}, userIDs(all))

		students, err := repo.QueryUsers(ctx, &user.QueryFilter{Roles: []string{user.RoleStudent}}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{amy.ID}, userIDs(students))

		search, err := repo.QueryUsers(ctx, &user.QueryFilter{Search: "stu9"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{amy.ID}, userIDs(search))

		active := true
		actives, err := repo.QueryUsers(ctx, &user.QueryFilter{IsActive: &active}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID}, userIDs(actives))

		ordered, err := repo.QueryUsers(ctx, nil, core.ParseOrderings("name"))
		require.NoError(t, err)
		assert.Equal(t, []string{amy.ID, bob.ID}, userIDs(ordered))

		ordered, err = repo.QueryUsers(ctx, nil, core.ParseOrderings("-created_at"))
		require.NoError(t, err)
		assert.Equal(t, []string{amy.ID, bob.ID}, userIDs(ordered))

		// unknown fields are ignored
		ordered, err = repo.QueryUsers(ctx, nil, core.ParseOrderings("password_hash"))
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID, amy.ID}, userIDs(ordered))
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "amy@test.cd"})
		require.NoError(t, err)
		assert.Equal(t, amy.ID, got.ID)

		got, err = repo.GetUser(ctx, user.GetFilter{MatricNumber: "STU9"})
		require.NoError(t, err)
		assert.Equal(t, amy.ID, got.ID)

		_, err = repo.GetUser(ctx, user.GetFilter{ID: "nope"})
		assert.True(t, core.IsNotFound(err))
		_, err = repo.GetUser(ctx, user.GetFilter{})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("returned roles are copies", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.GetFilter{ID: bob.ID})
		require.NoError(t, err)
		got.Roles[0] = user.RoleAdmin
		again, err := repo.GetUser(ctx, user.GetFilter{ID: bob.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{user.RoleLecturer}, again.Roles)
	})

	t.Run("update keeps created_at", func(t *testing.T) {
		upd := bob
		upd.Name = "Robert"
		upd.CreatedAt = time.Time{}
		got, err := repo.UpdateUser(ctx, upd)
		require.NoError(t, err)
		assert.Equal(t, "Robert", got.Name)
		assert.Equal(t, bob.CreatedAt, got.CreatedAt)

		_, err = repo.UpdateUser(ctx, user.User{ID: "nope"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteUsersByID(ctx, bob.ID, "nope"))
		all, err := repo.QueryUsers(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{amy.ID}, userIDs(all))
	})
}

func Test_departmentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDepartmentRepository(Open())

	cs, err := repo.CreateDepartment(ctx, department.Department{Name: "Computer Science", Code: "CS"})
	require.NoError(t, err)
	_, err = repo.CreateDepartment(ctx, department.Department{Name: "Mathematics", Code: "MATH"})
	require.NoError(t, err)

	assert.Equal(t, department.ErrCodeExists, repo.CheckCodeUniqueness(ctx, "CS"))
	assert.NoError(t, repo.CheckCodeUniqueness(ctx, "CS", cs))

	found, err := repo.QueryDepartments(ctx, "comp")
	require.NoError(t, err)
	assert.Equal(t, []department.Department{cs}, found)

	cs.Name = "Computing"
	cs, err = repo.UpdateDepartment(ctx, cs)
	require.NoError(t, err)
	got, err := repo.GetDepartment(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Computing", got.Name)

	require.NoError(t, repo.DeleteDepartment(ctx, cs.ID))
	assert.Equal(t, department.ErrNotFound, repo.DeleteDepartment(ctx, cs.ID))
	all, err := repo.QueryDepartments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func Test_courseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(Open())

	cs101, err := repo.CreateCourse(ctx, course.Course{
		Title: "Introduction to Programming", Code: "CS101", Unit: 3, DepartmentID: "d1", LecturerIDs: []string{"l1"},
	})
	require.NoError(t, err)
	math101, err := repo.CreateCourse(ctx, course.Course{
		Title: "Calculus I", Code: "MATH101", Unit: 3, DepartmentID: "d2", LecturerIDs: []string{},
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter *course.QueryFilter
		want   []course.Course
	}{
		{name: "all", want: []course.Course{cs101, math101}},
		{name: "search", filter: &course.QueryFilter{Search: "calc"}, want: []course.Course{math101}},
		{name: "department", filter: &course.QueryFilter{DepartmentID: "d1"}, want: []course.Course{cs101}},
		{name: "lecturer", filter: &course.QueryFilter{LecturerID: "l1"}, want: []course.Course{cs101}},
		{name: "none", filter: &course.QueryFilter{LecturerID: "l2"}, want: []course.Course{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryCourses(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := repo.GetCourse(ctx, course.GetFilter{Code: "MATH101"})
	require.NoError(t, err)
	assert.Equal(t, math101, got)
	_, err = repo.GetCourse(ctx, course.GetFilter{Code: "PHY101"})
	assert.Equal(t, course.ErrNotFound, err)

	cs101.LecturerIDs = []string{"l1", "l2"}
	_, err = repo.UpdateCourse(ctx, cs101)
	require.NoError(t, err)
	got, err = repo.GetCourse(ctx, course.GetFilter{ID: cs101.ID})
	require.NoError(t, err)
	assert.True(t, got.TaughtBy("l2"))

	assert.Equal(t, course.ErrCodeExists, repo.CheckCodeUniqueness(ctx, "CS101"))
	require.NoError(t, repo.DeleteCourse(ctx, cs101.ID))
	assert.NoError(t, repo.CheckCodeUniqueness(ctx, "CS101"))
}

func Test_resultRepository_SaveResult(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository(Open())

	res := result.Result{
		StudentID: "STU001", StudentName: "John Doe", CourseCode: "CS101", Score: 85, Grade: grading.GradeAMinus,
		Unit: 3, Semester: "Fall", Session: "2024/2025", CreatedAt: time.Now().UTC(),
	}
	first, created, err := repo.SaveResult(ctx, res)
	require.NoError(t, err)
	assert.True(t, created)

	other := res
	other.CourseCode = "MATH101"
	_, created, err = repo.SaveResult(ctx, other)
	require.NoError(t, err)
	assert.True(t, created)

	res.Score = 95
	res.Grade = grading.GradeA
	res.CreatedAt = time.Now().UTC().Add(time.Hour)
	second, created, err := repo.SaveResult(ctx, res)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	all, err := repo.QueryResults(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "CS101", all[0].CourseCode, "an update keeps the insertion position")
	assert.Equal(t, 95.0, all[0].Score)

	filtered, err := repo.QueryResults(ctx, &result.QueryFilter{CourseCodes: []string{"MATH101"}})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	require.NoError(t, repo.DeleteResult(ctx, first.ID))
	assert.Equal(t, result.ErrNotFound, repo.DeleteResult(ctx, first.ID))
	_, created, err = repo.SaveResult(ctx, res)
	require.NoError(t, err)
	assert.True(t, created, "a deleted key can be recorded again")
}

func Test_feedbackRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepository(Open())

	fb := feedback.Feedback{
		StudentID: "u1", CourseID: "c1", CourseCode: "CS101", LecturerID: "l1", Rating: 5,
		Sentiment: feedback.SentimentPositive, Session: "2024/2025", Semester: "Fall",
	}
	first, created, err := repo.SaveFeedback(ctx, fb)
	require.NoError(t, err)
	assert.True(t, created)

	fb2 := fb
	fb2.StudentID = "u2"
	fb2.Rating = 1
	fb2.Sentiment = feedback.SentimentNegative
	second, created, err := repo.SaveFeedback(ctx, fb2)
	require.NoError(t, err)
	assert.True(t, created)

	fb.Rating = 4
	updated, created, err := repo.SaveFeedback(ctx, fb)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, updated.ID)

	list, err := repo.QueryFeedback(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 4, list[1].Rating)

	neg, err := repo.QueryFeedback(ctx, &feedback.QueryFilter{Sentiment: feedback.SentimentNegative})
	require.NoError(t, err)
	assert.Len(t, neg, 1)

	require.NoError(t, repo.DeleteFeedback(ctx, second.ID))
	_, err = repo.GetFeedback(ctx, second.ID)
	assert.Equal(t, feedback.ErrNotFound, err)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	db := Open()
	require.NoError(t, Seed(ctx, db))

	usr, err := NewUserRepository(db).GetUser(ctx, user.GetFilter{UsernameOrEmail: "student@school.edu"})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", usr.Name)
	assert.Equal(t, "STU001", usr.MatricNumber)
	assert.NoError(t, usr.CheckPassword("student123"))

	crs, err := NewCourseRepository(db).GetCourse(ctx, course.GetFilter{Code: "CS101"})
	require.NoError(t, err)
	lecturer, err := NewUserRepository(db).GetUser(ctx, user.GetFilter{Username: "lecturer"})
	require.NoError(t, err)
	assert.True(t, crs.TaughtBy(lecturer.ID))

	results, err := NewResultRepository(db).QueryResults(ctx, &result.QueryFilter{StudentID: "STU001"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		want, err := grading.GradeForScore(res.Score)
		require.NoError(t, err)
		assert.Equal(t, want, res.Grade)
	}
}

func userIDs(users []user.User) []string {
	ids := make([]string, 0, len(users))
	for _, usr := range users {
		ids = append(ids, usr.ID)
	}
	return ids
}
