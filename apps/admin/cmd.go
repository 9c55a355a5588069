package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/alama/core/result"
	"github.com/trezcool/alama/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
	resSvc  result.Service
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) on the database")
	fmt.Fprintln(cli.out, "  adduser -name NAME -username USERNAME -email EMAIL [-admin] [-teacher] [-student STUDENT_ID] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  grade -written N -objective N - evaluate one subject mark")
	fmt.Fprintln(cli.out, "  gpa -grades GP[:optional],GP,... - aggregate grade points into a GPA")
	fmt.Fprintln(cli.out, "  transcript -id RESULT_ID - print the transcript of a stored result")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	migrateCmd := flag.NewFlagSet("migrate", flag.ContinueOnError)

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant every admin role.")
	addUserTeacher := addUserCmd.Bool("teacher", false, "Grant the teacher role.")
	addUserStudent := addUserCmd.String("student", "", "Registry ID of a student account.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	gradeCmd := flag.NewFlagSet("grade", flag.ContinueOnError)
	gradeWritten := gradeCmd.Int("written", 0, "Written score (0-70).")
	gradeObjective := gradeCmd.Int("objective", 0, "Objective score (0-30).")

	gpaCmd := flag.NewFlagSet("gpa", flag.ContinueOnError)
	gpaGrades := gpaCmd.String("grades", "", `Comma separated grade points; suffix the optional subject with ":optional".`)

	transcriptCmd := flag.NewFlagSet("transcript", flag.ContinueOnError)
	transcriptID := transcriptCmd.String("id", "", "The result ID.")

	for _, fs := range []*flag.FlagSet{migrateCmd, addUserCmd, resetPasswordCmd, gradeCmd, gpaCmd, transcriptCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if err := migrateCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if migrateCmd.NArg() == 0 {
			migrateCmd.Usage()
			return errHelp
		}
		return cli.migrate(migrateCmd.Args())

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		var roles []string
		switch {
		case *addUserAdmin:
			roles = user.AdminRoles
		case *addUserTeacher:
			roles = user.TeacherRoles
		case *addUserStudent != "":
			roles = user.StudentRoles
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, *addUserStudent, pwd, roles)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "grade":
		if err := gradeCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.grade(*gradeWritten, *gradeObjective)

	case "gpa":
		if err := gpaCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.gpa(*gpaGrades)

	case "transcript":
		if err := transcriptCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *transcriptID == "" {
			transcriptCmd.Usage()
			return errHelp
		}
		return cli.transcript(*transcriptID)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
