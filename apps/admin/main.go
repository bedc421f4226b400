package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/masomo/assets"
	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
	emailsvc "github.com/trezcool/masomo/services/email"
	logsvc "github.com/trezcool/masomo/services/logger"
	"github.com/trezcool/masomo/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	ctx := context.Background()
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = db.Ping(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(database.NewRepository[user.User](db, user.Collection), mailSvc, conf),
	}
	err = cli.run(os.Args)
	if err != nil && !errors.Is(err, errHelp) {
		logger.Error(fmt.Sprintf("error: %v", err), err)
	}
	if cerr := db.Close(ctx); cerr != nil {
		logger.Error(fmt.Sprintf("closing database: %v", cerr), cerr)
	}
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
