package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/masomo/apps/api/echo"
	"github.com/trezcool/masomo/assets"
	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/assignment"
	"github.com/trezcool/masomo/core/attendance"
	"github.com/trezcool/masomo/core/cantine"
	"github.com/trezcool/masomo/core/course"
	"github.com/trezcool/masomo/core/event"
	"github.com/trezcool/masomo/core/grade"
	"github.com/trezcool/masomo/core/message"
	"github.com/trezcool/masomo/core/parent"
	"github.com/trezcool/masomo/core/payment"
	"github.com/trezcool/masomo/core/student"
	"github.com/trezcool/masomo/core/teacher"
	"github.com/trezcool/masomo/core/user"
	emailsvc "github.com/trezcool/masomo/services/email"
	filesvc "github.com/trezcool/masomo/services/files"
	logsvc "github.com/trezcool/masomo/services/logger"
	"github.com/trezcool/masomo/storage/database"
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
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	ctx := context.Background()
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() {
		if err = db.Close(context.Background()); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()
	if err = db.Setup(ctx); err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	fileSvc, err := filesvc.New(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	usrSvc := user.NewService(database.NewRepository[user.User](db, user.Collection), mailSvc, conf)
	studentSvc := student.NewService(database.NewRepository[student.Student](db, student.Collection), usrSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)

	user.LoadCommonPasswords(assets.FS, assets.CommonPasswordsFile, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(db.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			DB:            db,
			Validate:      validate,
			Translator:    translator,
			Files:         fileSvc,
			UserSvc:       usrSvc,
			StudentSvc:    studentSvc,
			TeacherSvc:    teacher.NewService(database.NewRepository[teacher.Teacher](db, teacher.Collection), usrSvc),
			ParentSvc:     parent.NewService(database.NewRepository[parent.Parent](db, parent.Collection), usrSvc),
			CourseSvc:     course.NewService(database.NewRepository[course.Course](db, course.Collection), usrSvc),
			GradeSvc:      grade.NewService(database.NewRepository[grade.Grade](db, grade.Collection)),
			AssignmentSvc: assignment.NewService(database.NewRepository[assignment.Assignment](db, assignment.Collection)),
			AttendanceSvc: attendance.NewService(database.NewRepository[attendance.Attendance](db, attendance.Collection)),
			PaymentSvc: payment.NewService(
				database.NewRepository[payment.Payment](db, payment.Collection), studentSvc, mailSvc, logger,
			),
			MessageSvc: message.NewService(database.NewRepository[message.Message](db, message.Collection), usrSvc, mailSvc),
			EventSvc:   event.NewService(database.NewRepository[event.Event](db, event.Collection)),
			CantineSvc: cantine.NewService(database.NewRepository[cantine.Order](db, cantine.Collection)),
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
