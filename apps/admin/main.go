package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/result"
	emailsvc "github.com/trezcool/alama/services/email"
	logsvc "github.com/trezcool/alama/services/logger"
	"github.com/trezcool/alama/storage/database"
	sqlxrepos "github.com/trezcool/alama/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	core.ParseEmailTemplates(conf, logger)

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
		resSvc:  result.NewService(sqlxrepos.NewResultRepository(db), emailsvc.NewConsoleService(conf), conf),
		out:     os.Stdout,
	}
	code := 0
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		code = 1
	}
	closeDB(db, logger)
	os.Exit(code)
}

func closeDB(db *sql.DB, logger core.Logger) {
	if err := db.Close(); err != nil {
		logger.Error(fmt.Sprintf("closing database: %v", err), err)
	}
}
