package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/dashboard"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/nps"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
	appfs "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/fs"
	emailsvc "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/services/email"
	logsvc "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/services/logger"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/storage/database"
	sqlxrepos "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(appfs.EmailTemplates(), conf, logger)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	status.InitValidators(validate, translator)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	clientSvc := client.NewService(sqlxrepos.NewClientRepository(db))
	techSvc := tech.NewService(sqlxrepos.NewTechRepository(db))
	biSvc := bi.NewService(sqlxrepos.NewBIRepository(db))
	processSvc := process.NewService(sqlxrepos.NewProcessRepository(db))

	// start CLI
	cli := commandLine{
		db:         db,
		validate:   validate,
		usrSvc:     usrSvc,
		clientSvc:  clientSvc,
		techSvc:    techSvc,
		biSvc:      biSvc,
		processSvc: processSvc,
		dashboardSvc: dashboard.NewService(dashboard.Deps{
			ClientSvc:  clientSvc,
			TechSvc:    techSvc,
			BISvc:      biSvc,
			ProcessSvc: processSvc,
			NPSSvc:     nps.NewService(sqlxrepos.NewNPSRepository(db)),
			UserSvc:    usrSvc,
			MailSvc:    mailSvc,
			Logger:     logger,
			Location:   conf.Dashboard.Location,
		}),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
