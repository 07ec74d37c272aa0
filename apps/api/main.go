package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/apps/api/echo"
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
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/storage/cache"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/storage/database"
	sqlxrepos "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up the health cache
	var healthCache dashboard.HealthCache
	if conf.Redis.Enabled {
		hc := cache.NewHealthCache(cache.NewRedisClient(conf), conf.Redis.TTL)
		if err = hc.Ping(context.Background()); err != nil {
			// scores are still computed without the cache
			logger.Error(fmt.Sprintf("connecting to redis: %v", err), err)
		} else {
			healthCache = hc
			defer func() { _ = hc.Close() }()
		}
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	clientSvc := client.NewService(sqlxrepos.NewClientRepository(db))
	techSvc := tech.NewService(sqlxrepos.NewTechRepository(db))
	biSvc := bi.NewService(sqlxrepos.NewBIRepository(db))
	processSvc := process.NewService(sqlxrepos.NewProcessRepository(db))
	npsSvc := nps.NewService(sqlxrepos.NewNPSRepository(db))
	dashboardSvc := dashboard.NewService(dashboard.Deps{
		ClientSvc:  clientSvc,
		TechSvc:    techSvc,
		BISvc:      biSvc,
		ProcessSvc: processSvc,
		NPSSvc:     npsSvc,
		UserSvc:    usrSvc,
		MailSvc:    mailSvc,
		Cache:      healthCache,
		Logger:     logger,
		Location:   conf.Dashboard.Location,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	status.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.EmailTemplates(), conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			Validate:     validate,
			Translator:   translator,
			DB:           db,
			UserSvc:      usrSvc,
			ClientSvc:    clientSvc,
			TechSvc:      techSvc,
			BISvc:        biSvc,
			ProcessSvc:   processSvc,
			NPSSvc:       npsSvc,
			DashboardSvc: dashboardSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
