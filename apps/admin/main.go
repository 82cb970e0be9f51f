package main

import (
	"log"
	"os"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/reminder"
	emailsvc "github.com/tchaleu/saetrack/services/email"
	logsvc "github.com/tchaleu/saetrack/services/logger"
	"github.com/tchaleu/saetrack/storage/database"
	sqlxrepos "github.com/tchaleu/saetrack/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	}

	saeRepo := sqlxrepos.NewSaeRepository(db)
	usrRepo := sqlxrepos.NewUserRepository(db)
	tracker := reminder.NewTracker(sqlxrepos.NewReminderRepository(db), appLogger)
	scheduler := reminder.NewScheduler(saeRepo, tracker, mailSvc, appLogger, conf)

	core.ParseEmailTemplates(conf, appLogger)

	// start CLI
	cli := commandLine{
		db:        db,
		usrRepo:   usrRepo,
		tracker:   tracker,
		scheduler: scheduler,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
