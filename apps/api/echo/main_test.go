package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/dashboard"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/feedback"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
	emailsvc "github.com/acadboard/acadboard/services/email"
	logsvc "github.com/acadboard/acadboard/services/logger"
	inmemdb "github.com/acadboard/acadboard/storage/database/inmem"
)

var (
	testConf = &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Acadboard",
		SecretKey:        "t3st-s3cr3t",
		DefaultFromEmail: mail.Address{Name: "Acadboard", Address: "noreply@acadboard.test"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			DisableReqLogs:            true,
		},
	}

	db         *inmemdb.DB
	usrRepo    user.Repository
	deptRepo   department.Repository
	courseRepo course.Repository
	resultRepo result.Repository
	fbRepo     feedback.Repository
	mailSvc    *emailsvc.ConsoleServiceMock

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) *Server {
	// set up DB & repos
	db = inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	deptRepo = inmemdb.NewDepartmentRepository(db)
	courseRepo = inmemdb.NewCourseRepository(db)
	resultRepo = inmemdb.NewResultRepository(db)
	fbRepo = inmemdb.NewFeedbackRepository(db)

	// set up services
	logger := logsvc.NewKitLogger(io.Discard)
	mailSvc = emailsvc.NewConsoleServiceMock(testConf, logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(usrRepo)
	deptSvc := department.NewService(deptRepo)
	courseSvc := course.NewService(courseRepo, deptSvc, usrSvc)
	resultSvc := result.NewService(result.ServiceDeps{
		Repo:       resultRepo,
		Courses:    courseSvc,
		Students:   usrSvc,
		MailSvc:    mailSvc,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
	})

	// set up server
	return NewServer(ServerDeps{
		Conf:         testConf,
		Logger:       logger,
		UserSvc:      usrSvc,
		DeptSvc:      deptSvc,
		CourseSvc:    courseSvc,
		ResultSvc:    resultSvc,
		FeedbackSvc:  feedback.NewService(fbRepo, courseSvc, resultSvc),
		DashboardSvc: dashboard.NewService(usrSvc, deptSvc, courseSvc, resultSvc),
		Validate:     validate,
		Translator:   translator,
	})
}

// seedUsers loads the demo tables and returns the demo accounts by username.
func seedUsers(t *testing.T) map[string]user.User {
	require.NoError(t, inmemdb.Seed(context.Background(), db))
	users, err := usrRepo.QueryUsers(context.Background(), nil, nil)
	require.NoError(t, err)
	res := make(map[string]user.User, len(users))
	for _, usr := range users {
		res[usr.Username] = usr
	}
	return res
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest builds a multipart request carrying content as the "file" field.
func newUploadRequest(t *testing.T, path, token, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr, testConf), testConf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestServer_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Acadboard API!", rec.Body.String())
}

func TestServer_signalShutdown(t *testing.T) {
	app := setup(t)

	app.signalShutdown()
	app.signalShutdown() // does not block

	select {
	case <-app.ShutdownSignal():
	case <-time.After(time.Second):
		t.Fatal("no shutdown signal")
	}
}
