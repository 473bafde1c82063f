package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp          = errors.New("help provided")
	errPostgresOnly  = errors.New("migrate requires the postgres storage engine")
	errEmptyPassword = errors.New("password cannot be empty")
)

type commandLine struct {
	db        *sql.DB // nil unless the postgres engine is used
	usrRepo   user.Repository
	resultSvc result.ServiceInterface
	logger    core.Logger
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] [-role ROLE] [-matric MATRIC] [-admin] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  importresults -file PATH - import a results CSV, then print every student's CGPA")
	fmt.Fprintln(cli.out, "  gpareport [-student ID] [-session SESSION] - print semester GPAs and CGPAs")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose migration command (postgres only)")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name. Defaults to the username.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "One of student, lecturer or admin.")
	addUserMatric := addUserCmd.String("matric", "", "The student's matric number.")
	addUserIsAdmin := addUserCmd.Bool("admin", false, "Grant every role to the user.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	importResultsCmd := flag.NewFlagSet("importresults", flag.ExitOnError)
	importResultsFile := importResultsCmd.String("file", "", "Path to a results CSV file.")

	gpaReportCmd := flag.NewFlagSet("gpareport", flag.ExitOnError)
	gpaReportStudent := gpaReportCmd.String("student", "", "Only report this student.")
	gpaReportSession := gpaReportCmd.String("session", "", "Only report the semesters of this session, e.g. 2024/2025.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.addUser(newUserArgs{
			name:    *addUserName,
			uname:   *addUserUname,
			email:   *addUserEmail,
			role:    *addUserRole,
			matric:  *addUserMatric,
			pwd:     pwd,
			isAdmin: *addUserIsAdmin,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "importresults":
		if err := importResultsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importResultsFile == "" {
			importResultsCmd.Usage()
			return errHelp
		}
		return cli.importResults(*importResultsFile)

	case "gpareport":
		if err := gpaReportCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.gpaReport(*gpaReportStudent, *gpaReportSession)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
