package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/tchaleu/saetrack/core/reminder"
	"github.com/tchaleu/saetrack/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sqlx.DB
	usrRepo   user.Repository
	tracker   *reminder.Tracker
	scheduler *reminder.Scheduler
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  senddue -days N - send reminders for attributions due in N days")
	fmt.Println("  setdelays -delays N,N,... - replace the reminder delay thresholds")
	fmt.Println("  adduser -name NAME -username USERNAME -email EMAIL [-admin] [-supervisor] - add or update a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	sendDueCmd := flag.NewFlagSet("senddue", flag.ExitOnError)
	sendDueDays := sendDueCmd.Int("days", 0, "Number of days before the due date (1-30).")

	setDelaysCmd := flag.NewFlagSet("setdelays", flag.ExitOnError)
	setDelaysList := setDelaysCmd.String("delays", "", "Comma-separated delay thresholds in days, eg. 10,7,3,1.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's display name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant the admin role.")
	addUserSupervisor := addUserCmd.Bool("supervisor", false, "Grant the supervisor role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "senddue":
		if err := sendDueCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *sendDueDays < 1 || *sendDueDays > reminder.MaxDelayDays {
			sendDueCmd.Usage()
			return errHelp
		}
		return cli.sendDue(*sendDueDays)
	case "setdelays":
		if err := setDelaysCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setDelaysList == "" {
			setDelaysCmd.Usage()
			return errHelp
		}
		delays, err := parseDelays(*setDelaysList)
		if err != nil {
			return err
		}
		return cli.setDelays(delays)
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin, *addUserSupervisor)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	return string(pwd), err
}

func parseDelays(list string) ([]int, error) {
	parts := strings.Split(list, ",")
	delays := make([]int, 0, len(parts))
	for _, part := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("delay must be a number (got %q)", part)
		}
		delays = append(delays, d)
	}
	return delays, nil
}
