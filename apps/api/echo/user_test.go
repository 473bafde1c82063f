package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadboard/acadboard/core/user"
	testutil "github.com/acadboard/acadboard/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	pwd := "Pass@123"
	usr := testutil.CreateUser(t, usrRepo, "John Doe", "jdoe", "jdoe@school.edu", "STU900", pwd, []string{user.RoleStudent}, true)
	testutil.CreateUser(t, usrRepo, "Gone", "gone", "gone@school.edu", "", pwd, nil, false)

	tests := []httpTest{
		{
			name: "missing credentials", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", body: []byte(`{"username": "nobody", "password": "Pass@123"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: []byte(`{"username": "jdoe", "password": "lol"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", body: []byte(`{"username": "gone", "password": "Pass@123"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "with username", body: []byte(`{"username": "JDoe ", "password": "Pass@123"}`), wantCode: http.StatusOK},
		{name: "with email", body: []byte(`{"username": "jdoe@school.edu", "password": "Pass@123"}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

				claims := new(Claims)
				_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
					return []byte(testConf.SecretKey), nil
				})
				require.NoError(t, err)
				assert.Equal(t, usr.ID, claims.Subject)
				assert.Equal(t, "STU900", claims.MatricNumber)
				assert.True(t, claims.IsStudent)
				assert.False(t, claims.IsAdmin)

				refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				require.NoError(t, err)
				assert.False(t, refreshed.LastLogin.IsZero())
			}
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Lecturer", "lect", "lect@school.edu", "", "", []string{user.RoleLecturer}, true)

	expired, err := GenerateToken(GetUserClaims(usr, testConf, time.Now().Add(-48*time.Hour).Unix()), testConf)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/users/token-refresh", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "refresh expired", method: http.MethodPost, path: "/api/users/token-refresh", token: expired,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "refreshed", method: http.MethodPost, path: "/api/users/token-refresh", token: getToken(t, usr), wantCode: http.StatusOK},
	}
	runHTTPTests(t, app, tests)
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	path := func(search, ordering string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/api/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@school.edu", "", "", []string{user.RoleAdmin}, true, now.Add(1*time.Hour))
	lecturer := testutil.CreateUser(t, usrRepo, "Dr. Smith", "lecturer", "lecturer@school.edu", "", "", []string{user.RoleLecturer}, true, now)
	student := testutil.CreateUser(t, usrRepo, "John Doe", "student", "student@school.edu", "STU001", "", []string{user.RoleStudent}, true, now.Add(2*time.Hour))
	naughty := testutil.CreateUser(t, usrRepo, "Jane Wilson", "jwilson", "jane@school.edu", "STU002", "", []string{user.RoleStudent}, false, now.Add(-time.Hour))

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "invalid token", path: "/api/users", token: "lol", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{name: "admin required", path: "/api/users", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "get all", path: "/api/users", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin, lecturer, student, naughty)},
		{name: "search (unknown)", path: path("lol", "", nil), token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{name: "search=STU", path: path("stu", "", nil), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, student, naughty)},
		{name: "role=lecturer", path: path("", "", nil, user.RoleLecturer), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, lecturer)},
		{
			name: "role=admin,lecturer", path: path("", "", nil, user.RoleAdmin, user.RoleLecturer), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, admin, lecturer),
		},
		{name: "is_active=false", path: path("", "", bPtr(false)), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, naughty)},
		{
			name: "is_active=lol", path: "/api/users?is_active=lol", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"is_active": errInvalidBool}),
		},
		{
			name: "created_from=lol", path: "/api/users?created_from=lol", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"created_from": errInvalidTime}),
		},
		{
			name: "order by created_at", path: path("", "created_at", nil), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, naughty, lecturer, admin, student),
		},
		{
			name: "order by -is_active,name", path: path("", "-is_active,name", nil), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, admin, lecturer, student, naughty),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@school.edu", "", "", []string{user.RoleAdmin}, true)
	lecturer := testutil.CreateUser(t, usrRepo, "Dr. Smith", "lecturer", "lecturer@school.edu", "", "", []string{user.RoleLecturer}, true)
	testutil.CreateUser(t, usrRepo, "John Doe", "student", "student@school.edu", "STU001", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)
	body := func(name, uname, email, matric, pwd string, roles ...string) []byte {
		return marchallObj(t, map[string]interface{}{
			"name": name, "username": uname, "email": email, "matric_number": matric,
			"password": pwd, "password_confirm": pwd, "roles": roles,
		})
	}

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin required", token: getToken(t, lecturer), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "duplicate matric number", token: adminToken, body: body("Jane", "jane", "", "STU001", "Pa$$w0rd!", user.RoleStudent),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"matric_number": user.ErrMatricNumberExists.Error()}),
		},
		{
			name: "student without matric number", token: adminToken, body: body("Jane", "jane", "", "", "Pa$$w0rd!", user.RoleStudent),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"matric_number": "students must have a matric number"}),
		},
		{
			name: "weak password", token: adminToken, body: body("Jane", "jane", "", "STU002", "password", user.RoleStudent),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
			}),
		},
		{name: "created", token: adminToken, body: body("Jane Wilson", "JWilson", "", "STU002", "Pa$$w0rd!", user.RoleStudent), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/users/register", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{MatricNumber: "STU002"})
				require.NoError(t, err)
				assert.Equal(t, "jwilson", usr.Username)
				assert.True(t, usr.IsActive)
				assert.NoError(t, usr.CheckPassword("Pa$$w0rd!"))
			}
		})
	}
}

func Test_userApi_update(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@school.edu", "", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "John Doe", "student", "student@school.edu", "STU001", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "Jane Wilson", "jwilson", "jane@school.edu", "STU002", "", []string{user.RoleStudent}, true)

	studentToken := getToken(t, student)
	path := "/api/users/" + student.ID

	tests := []httpTest{
		{name: "other user", method: http.MethodPut, path: "/api/users/" + other.ID, token: studentToken, body: []byte(`{"name": "X"}`), wantCode: http.StatusNotFound},
		{
			name: "student cannot change roles", method: http.MethodPut, path: path, token: studentToken,
			body: []byte(`{"roles": ["admin"]}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "student changes name", method: http.MethodPut, path: path, token: studentToken, body: []byte(`{"name": "Johnny Doe"}`), wantCode: http.StatusOK},
		{name: "admin deactivates", method: http.MethodPut, path: path, token: getToken(t, admin), body: []byte(`{"is_active": false}`), wantCode: http.StatusOK},
		{
			name: "deactivated token", method: http.MethodGet, path: path, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	runHTTPTests(t, app, tests)

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: student.ID})
	require.NoError(t, err)
	assert.Equal(t, "Johnny Doe", usr.Name)
	assert.False(t, usr.IsActive)
	assert.Equal(t, []string{user.RoleStudent}, usr.Roles)
}

func Test_userApi_destroy(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@school.edu", "", "", []string{user.RoleAdmin}, true)
	usr1 := testutil.CreateUser(t, usrRepo, "One", "one", "one@school.edu", "", "", nil, true)
	usr2 := testutil.CreateUser(t, usrRepo, "Two", "two", "two@school.edu", "", "", nil, true)
	usr3 := testutil.CreateUser(t, usrRepo, "Three", "three", "three@school.edu", "", "", nil, true)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "not self", method: http.MethodDelete, path: "/api/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "admin required", method: http.MethodDelete, path: "/api/users/" + usr1.ID, token: getToken(t, usr1), wantCode: http.StatusForbidden},
		{name: "delete one", method: http.MethodDelete, path: "/api/users/" + usr1.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "deleted", method: http.MethodGet, path: "/api/users/" + usr1.ID, token: adminToken, wantCode: http.StatusNotFound},
		{
			name: "many: not self", method: http.MethodDelete, path: "/api/users?id=" + usr2.ID + "&id=" + admin.ID,
			token: adminToken, wantCode: http.StatusForbidden,
		},
		{name: "many", method: http.MethodDelete, path: "/api/users?id=" + usr2.ID + "&id=" + usr3.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "remaining", path: "/api/users", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin)},
	}
	runHTTPTests(t, app, tests)
}

func Test_userApi_queryRoles(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@school.edu", "", "", []string{user.RoleAdmin}, true)

	runHTTPTests(t, app, []httpTest{
		{name: "roles", path: "/api/users/roles", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
	})
}
