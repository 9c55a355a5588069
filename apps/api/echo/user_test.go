package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/alama/apps/api/echo"
	"github.com/trezcool/alama/core/user"
	testutil "github.com/trezcool/alama/tests"
)

const pwd = "Gr8-Tutor#2024"

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", pwd, []string{user.RoleTeacher}, true)
	testutil.CreateUser(t, app.usrRepo, "Gone", "gone", "gone@test.cd", pwd, []string{user.RoleTeacher}, false)

	tests := []httpTest{
		{
			name:     "missing password",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "teacher"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "this field is required"}),
		},
		{
			name:     "unknown user",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "nobody", Password: pwd}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "teacher", Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name:     "deactivated account",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "gone", Password: pwd}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/users/login"
			checkCodeAndData(t, tt, app.do(tt))
		})
	}

	t.Run("success by email", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login",
			marchallObj(t, echoapi.LoginRequest{Username: " Teacher@Test.cd ", Password: pwd}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)

		got, err := app.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.False(t, got.LastLogin.IsZero())
	})
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	student := testutil.CreateStudent(t, app.usrRepo, "amani", "s-001", pwd)

	rec := app.do(httpTest{method: http.MethodGet, path: "/v1/users/me"})
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	rec = app.do(httpTest{method: http.MethodGet, path: "/v1/users/me", token: getToken(t, app.conf, student)})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, student)}, rec)

	rec = app.do(httpTest{method: http.MethodPost, path: "/v1/users/token-refresh", token: getToken(t, app.conf, student)})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp echoapi.LoginResponse
	unmarshal(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	adminToken := getToken(t, app.conf, admin)

	newUser := func(uname string, roles ...string) user.NewUser {
		return user.NewUser{
			Name:            "New " + uname,
			Username:        uname,
			Email:           uname + "@test.cd",
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		}
	}

	tests := []httpTest{
		{
			name:     "not an admin",
			body:     marchallObj(t, newUser("newteacher", user.RoleTeacher)),
			token:    getToken(t, app.conf, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "role above own",
			body:     marchallObj(t, newUser("newowner", user.RoleAdminOwner)),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{
			name:     "username taken",
			body:     marchallObj(t, newUser("teacher", user.RoleTeacher)),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name:     "student without student ID",
			body:     marchallObj(t, newUser("newstudent", user.RoleStudent)),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "student accounts require a student ID"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/users/register"
			checkCodeAndData(t, tt, app.do(tt))
		})
	}

	t.Run("success", func(t *testing.T) {
		nu := newUser("newstudent", user.RoleStudent)
		nu.StudentID = "S-042"
		rec := app.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/users/register",
			body:   marchallObj(t, nu),
			token:  adminToken,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		unmarshal(t, rec, &usr)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "s-042", usr.StudentID)
		assert.True(t, usr.IsActive)
		assert.True(t, usr.IsStudent())
	})
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	adminToken := getToken(t, app.conf, admin)

	tests := []httpTest{
		{
			name:     "all",
			path:     "/v1/users",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, admin, teacher),
		},
		{
			name:     "by role",
			path:     "/v1/users?role=teacher:",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, teacher),
		},
		{
			name:     "by search",
			path:     "/v1/users?search=ADM",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, admin),
		},
		{
			name:     "no match",
			path:     "/v1/users?search=nobody",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: []byte("[]"),
		},
		{
			name:     "not an admin",
			path:     "/v1/users",
			token:    getToken(t, app.conf, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodGet
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}
