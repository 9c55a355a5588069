package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/alama/core/grading"
	"github.com/trezcool/alama/core/result"
	"github.com/trezcool/alama/core/user"
	emailsvc "github.com/trezcool/alama/services/email"
	inmemdb "github.com/trezcool/alama/storage/database/inmem"
	testutil "github.com/trezcool/alama/tests"
)

var (
	usrRepo user.Repository
	resRepo result.Repository
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	color.NoColor = true

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	resRepo = inmemdb.NewResultRepository(db)

	conf := testutil.NewConfig()
	conf.Grading.OptionalSubjects = map[string]string{"form-4": "agri"}

	// start CLI
	out := new(bytes.Buffer)
	return &commandLine{
		usrRepo: usrRepo,
		resSvc:  result.NewService(resRepo, emailsvc.NewConsoleServiceMock(conf), conf),
		out:     out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    []string
	extra      interface{}
}

func checkRun(t *testing.T, cli *commandLine, out *bytes.Buffer, tt cliTest) {
	out.Reset()
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		require.NoError(t, err)
	}
	for _, want := range tt.wantOut {
		assert.Contains(t, out.String(), want)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)
	t.Cleanup(func() { gooseRunFunc = nil })

	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "subject", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkRun(t, cli, out, tt)
		})
	}
}

func mockPassword(t *testing.T, pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
	t.Cleanup(func() { readPasswordFunc = nil })
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, out := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pwd string
			if extra, ok := tt.extra.(extra); ok {
				pwd = extra.pwd
			}
			mockPassword(t, pwd)

			checkRun(t, cli, out, tt)
			if tt.wantErr == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				require.NoError(t, err)
				assert.NoError(t, refreshedUsr.CheckPassword(pwd))
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	t.Run("missing username and email", func(t *testing.T) {
		mockPassword(t, "pwd")
		err := cli.run([]string{"admin", "adduser", "-name", "Nobody"})
		assert.Error(t, err)
	})

	t.Run("missing password", func(t *testing.T) {
		mockPassword(t, "")
		err := cli.run([]string{"admin", "adduser", "-name", "Admin", "-username", "admin"})
		assert.Error(t, err)
	})

	t.Run("new admin", func(t *testing.T) {
		mockPassword(t, "s3cret")
		checkRun(t, cli, out, cliTest{args: []string{"adduser", "-name", "Admin", "-username", "Admin", "-email", "admin@test.cd", "-admin"}})

		usr, err := usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "admin"})
		require.NoError(t, err)
		assert.Equal(t, "Admin", usr.Name)
		assert.Equal(t, "admin@test.cd", usr.Email)
		assert.True(t, usr.IsAdmin())
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("s3cret"))
	})

	t.Run("existing user becomes a student", func(t *testing.T) {
		existing := testutil.CreateUser(t, usrRepo, "Amani", "amani", "amani@test.cd", "old", nil, false)
		mockPassword(t, "n3w")
		checkRun(t, cli, out, cliTest{args: []string{"adduser", "-email", "Amani@test.cd", "-student", "S-001"}})

		usr, err := usrRepo.GetUser(ctx, user.GetFilter{ID: existing.ID})
		require.NoError(t, err)
		assert.Equal(t, "Amani", usr.Name)
		assert.Equal(t, "s-001", usr.StudentID)
		assert.True(t, usr.IsStudent())
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("n3w"))
	})
}

func Test_commandLine_grading(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "grade", args: []string{"grade", "-written", "60", "-objective", "25"}, wantOut: []string{"85", "5.0", "A+"}},
		{name: "grade: boundary", args: []string{"grade", "-written", "40", "-objective", "0"}, wantOut: []string{"2.0", "C"}},
		{name: "grade: out of range", args: []string{"grade", "-written", "71"}, wantErrStr: "written score 71 violates maximum 70 (range 0-70)"},
		{name: "grade: bad flag", args: []string{"grade", "-written", "lol"}, wantErr: errHelp},
		{name: "gpa", args: []string{"gpa", "-grades", "5.0, 4.0,3.5,4.0:optional"}, wantOut: []string{"GPA: 4.83 - A"}},
		{name: "gpa: failed", args: []string{"gpa", "-grades", "5,0,5:optional"}, wantOut: []string{"GPA: 0.00 - F"}},
		{name: "gpa: empty", args: []string{"gpa"}, wantOut: []string{"GPA: 0.00 - N/A"}},
		{name: "gpa: not a number", args: []string{"gpa", "-grades", "A"}, wantErrStr: `invalid grade point "A"`},
		{name: "gpa: off the scale", args: []string{"gpa", "-grades", "2.5"}, wantErrStr: (&grading.InvalidGradePointError{Value: 2.5}).Error()},
		{name: "gpa: two optional", args: []string{"gpa", "-grades", "3:optional,4:optional"}, wantErr: grading.ErrMultipleOptional},
		{name: "transcript: no id", args: []string{"transcript"}, wantErr: errHelp},
		{name: "transcript: unknown", args: []string{"transcript", "-id", "lol"}, wantErr: result.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkRun(t, cli, out, tt)
		})
	}

	t.Run("transcript", func(t *testing.T) {
		r := testutil.CreateResult(t, resRepo, "s-001", "form-4", result.ExamFinal, 2024, testutil.Marks(
			"math", 60, 25,
			"english", 50, 22,
			"physics", 45, 20,
			"agri", 50, 22,
		))
		checkRun(t, cli, out, cliTest{
			args:    []string{"transcript", "-id", r.ID},
			wantOut: []string{"Student s-001 (s-001) - form-4, final 2024", "agri", "optional", "4.83 A", "Verification code: "},
		})
	})
}
