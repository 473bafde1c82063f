package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/user"
	inmemdb "github.com/acadboard/acadboard/storage/database/inmem"
	testutil "github.com/acadboard/acadboard/tests"
)

func setup(t *testing.T) (*user.Service, user.Repository, *validator.Validate) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return user.NewService(repo), repo, validate
}

// fieldErrors maps the fields of err to their validation tag, or to their message for a core.ValidationError.
func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	res := make(map[string]string)
	if vErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range vErrs {
			res[fe.Field()] = fe.Tag()
		}
		return res
	}
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %T: %v", err, err)
	for _, fld := range vErr.Fields {
		res[fld.Field] = fld.Error
	}
	return res
}

func TestUser_roles(t *testing.T) {
	usr := user.User{Roles: []string{user.RoleLecturer, user.RoleAdmin}}
	assert.True(t, usr.IsAdmin())
	assert.True(t, usr.IsLecturer())
	assert.False(t, usr.IsStudent())
	assert.Equal(t, 30, user.MaxRolePriority(usr.Roles))
	assert.Equal(t, 0, user.RolePriority("dean"))
}

func TestUser_password(t *testing.T) {
	var usr user.User
	require.NoError(t, usr.SetPassword("Str0ng!Pass"))
	assert.NoError(t, usr.CheckPassword("Str0ng!Pass"))
	assert.Error(t, usr.CheckPassword("str0ng!pass"))
}

func TestNewUser_Validate(t *testing.T) {
	svc, repo, validate := setup(t)
	testutil.CreateUser(t, repo, "John Doe", "student", "student@school.edu", "STU001", "", []string{user.RoleStudent}, true)

	valid := func() user.NewUser {
		return user.NewUser{
			Name:            "Jane Wilson",
			Username:        "JWilson ",
			Email:           "Jane.Wilson@school.edu",
			MatricNumber:    "STU002",
			Password:        "Str0ng!Pass",
			PasswordConfirm: "Str0ng!Pass",
			Roles:           []string{user.RoleStudent},
		}
	}

	tests := []struct {
		name   string
		modify func(nu *user.NewUser)
		want   map[string]string // field: tag or message
	}{
		{name: "valid", modify: func(nu *user.NewUser) {}},
		{name: "username or email", modify: func(nu *user.NewUser) { nu.Username, nu.Email = "", "" }, want: map[string]string{
			"username": "username_or_email", "email": "username_or_email",
		}},
		{name: "student without matric", modify: func(nu *user.NewUser) { nu.MatricNumber = "" }, want: map[string]string{
			"matric_number": "matric_required",
		}},
		{name: "invalid role", modify: func(nu *user.NewUser) { nu.Roles = []string{"dean"} }, want: map[string]string{
			"roles": "allroles",
		}},
		{name: "short password", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "S0!a", "S0!a" }, want: map[string]string{
			"password": "pwdminlen",
		}},
		{name: "numeric password", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "12345678", "12345678" }, want: map[string]string{
			"password": "pwdnotallnum",
		}},
		{name: "simple password", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "password1", "password1" }, want: map[string]string{
			"password": "pwdcplx",
		}},
		{name: "password with space", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Str0ng! Pass", "Str0ng! Pass" }, want: map[string]string{
			"password": "pwdnospace",
		}},
		{name: "password like username", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Jwilson2!", "Jwilson2!" }, want: map[string]string{
			"password": "pwdtoosim",
		}},
		{name: "password mismatch", modify: func(nu *user.NewUser) { nu.PasswordConfirm = "Str0ng!Pas" }, want: map[string]string{
			"password_confirm": "eqfield",
		}},
		{name: "username taken", modify: func(nu *user.NewUser) { nu.Username = "Student" }, want: map[string]string{
			"username": user.ErrUsernameExists.Error(),
		}},
		{name: "matric taken", modify: func(nu *user.NewUser) { nu.MatricNumber = "STU001" }, want: map[string]string{
			"matric_number": user.ErrMatricNumberExists.Error(),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.modify(&nu)
			err := nu.Validate(context.Background(), validate, svc)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, "jwilson", nu.Username)
				assert.Equal(t, "jane.wilson@school.edu", nu.Email)
				return
			}
			assert.Equal(t, tt.want, fieldErrors(t, err))
		})
	}
}

func TestService_Create(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Name:         "Jane Wilson",
		Username:     "jwilson",
		Email:        "jane.wilson@school.edu",
		MatricNumber: "STU002",
		Password:     "Str0ng!Pass",
		Roles:        []string{user.RoleStudent},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("Str0ng!Pass"))

	got, err := svc.GetByUsernameOrEmail(ctx, " Jane.Wilson@School.edu")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	got, err = svc.GetByMatricNumber(ctx, "STU002 ")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = svc.GetByMatricNumber(ctx, "STU404")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_Update(t *testing.T) {
	svc, repo, validate := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "John Doe", "jdoe", "jdoe@school.edu", "", "Str0ng!Pass", []string{user.RoleLecturer}, true)

	inactive := false
	deptID := " dept-1 "
	uu := user.UpdateUser{Name: "Dr. John Doe", IsActive: &inactive, DepartmentID: &deptID}
	require.NoError(t, uu.Validate(ctx, usr, validate, svc))
	assert.Equal(t, "jdoe", uu.Username)
	assert.Equal(t, []string{user.RoleLecturer}, uu.Roles)

	updated, err := svc.Update(ctx, usr.ID, uu)
	require.NoError(t, err)
	assert.Equal(t, "Dr. John Doe", updated.Name)
	assert.Equal(t, "dept-1", updated.DepartmentID)
	assert.False(t, updated.IsActive)
	assert.NoError(t, updated.CheckPassword("Str0ng!Pass"))

	// students need a matric number
	uu = user.UpdateUser{Roles: []string{user.RoleStudent}}
	assert.Equal(t, map[string]string{"matric_number": "matric_required"}, fieldErrors(t, uu.Validate(ctx, usr, validate, svc)))

	_, err = svc.Update(ctx, "lol", user.UpdateUser{})
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	testutil.CreateUser(t, repo, "Admin", "admin", "admin@school.edu", "", "", []string{user.RoleAdmin}, true)
	lecturer := testutil.CreateUser(t, repo, "Dr. Smith", "lecturer", "lecturer@school.edu", "", "", []string{user.RoleLecturer}, true)
	student := testutil.CreateUser(t, repo, "John Doe", "student", "student@school.edu", "STU001", "", []string{user.RoleStudent}, false)

	active := true
	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all", want: []string{"admin", "lecturer", "student"}},
		{name: "by role", filter: &user.QueryFilter{Roles: []string{user.RoleLecturer, user.RoleStudent}}, want: []string{"lecturer", "student"}},
		{name: "active", filter: &user.QueryFilter{IsActive: &active}, want: []string{"admin", "lecturer"}},
		{name: "search matric", filter: &user.QueryFilter{Search: "stu0"}, want: []string{"student"}},
		{name: "ordered", ordering: core.ParseOrderings("-username"), want: []string{"student", "lecturer", "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := svc.Query(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			unames := make([]string, 0, len(users))
			for _, usr := range users {
				unames = append(unames, usr.Username)
			}
			assert.Equal(t, tt.want, unames)
		})
	}

	require.NoError(t, svc.Delete(ctx, lecturer.ID, student.ID))
	users, err := svc.Query(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
