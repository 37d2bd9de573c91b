package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/user"
	emailsvc "github.com/mkundi/kampasi/services/email"
	logsvc "github.com/mkundi/kampasi/services/logger"
	"github.com/mkundi/kampasi/storage/database"
	sqlxrepos "github.com/mkundi/kampasi/storage/database/sqlx"
)

func main() {
	defer os.Exit(0)

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile))

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleService(), logger)

	// start CLI
	cli := commandLine{
		db:      db.DB,
		logger:  logger,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
