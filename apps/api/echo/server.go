package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/assignment"
	"github.com/trezcool/masomo/core/attendance"
	"github.com/trezcool/masomo/core/auth"
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
)

type (
	// Pinger reports whether the store is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		DB         Pinger
		Validate   *validator.Validate
		Translator ut.Translator
		APIKeys    auth.APIKeys
		Files      core.FileStorage

		UserSvc       user.Service
		StudentSvc    student.Service
		TeacherSvc    teacher.Service
		ParentSvc     parent.Service
		CourseSvc     course.Service
		GradeSvc      grade.Service
		AssignmentSvc assignment.Service
		AttendanceSvc attendance.Service
		PaymentSvc    payment.Service
		MessageSvc    message.Service
		EventSvc      event.Service
		CantineSvc    cantine.Service

		DisableReqLogs bool
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

// NewServer builds the API server; it panics when a dependency is missing.
func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.DB, "DB"),
		vala.IsNotNil(deps.Validate, "Validate"),
		vala.IsNotNil(deps.Translator, "Translator"),
		vala.IsNotNil(deps.Files, "Files"),
		vala.IsNotNil(deps.UserSvc, "UserSvc"),
		vala.IsNotNil(deps.StudentSvc, "StudentSvc"),
		vala.IsNotNil(deps.TeacherSvc, "TeacherSvc"),
		vala.IsNotNil(deps.ParentSvc, "ParentSvc"),
		vala.IsNotNil(deps.CourseSvc, "CourseSvc"),
		vala.IsNotNil(deps.GradeSvc, "GradeSvc"),
		vala.IsNotNil(deps.AssignmentSvc, "AssignmentSvc"),
		vala.IsNotNil(deps.AttendanceSvc, "AttendanceSvc"),
		vala.IsNotNil(deps.PaymentSvc, "PaymentSvc"),
		vala.IsNotNil(deps.MessageSvc, "MessageSvc"),
		vala.IsNotNil(deps.EventSvc, "EventSvc"),
		vala.IsNotNil(deps.CantineSvc, "CantineSvc"),
	).CheckAndPanic()

	if deps.APIKeys == nil {
		deps.APIKeys = auth.NewAPIKeys(deps.Conf.APIKeys)
	}

	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		metrics:    newMetrics(deps.Conf.AppName),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.Conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.SignalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: core.NewID}))
	if !s.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.Conf.Server.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, apiKeyHeader},
	}))
	s.app.Use(s.metrics.middleware())

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)
	s.app.GET("/metrics", s.metrics.handler())

	if s.Conf.Files.Backend == core.FilesLocal {
		dir := s.Conf.Files.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(s.Conf.WorkDir, dir)
		}
		s.app.Static("/uploads", dir)
	}

	v0 := s.app.Group("/api/v0")
	authed := principalMiddleware(s.Conf, s.APIKeys, s.UserSvc)

	registerAuthAPI(v0, authed, s)
	registerUserAPI(v0, authed, s)
	registerStudentAPI(v0, authed, s)
	registerTeacherAPI(v0, authed, s)
	registerParentAPI(v0, authed, s)
	registerCourseAPI(v0, authed, s)
	registerGradeAPI(v0, authed, s)
	registerAssignmentAPI(v0, authed, s)
	registerAttendanceAPI(v0, authed, s)
	registerPaymentAPI(v0, authed, s)
	registerMessageAPI(v0, authed, s)
	registerEventAPI(v0, authed, s)
	registerCantineAPI(v0, authed, s)
	registerFileAPI(v0, authed, s)
}

func (s *Server) Start() {
	s.Logger.Info("API listening on " + s.Conf.Server.Address)
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors receives the error that stopped the server, if any.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives OS interrupts and internal shutdown requests.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the server owner to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  statusSuccess,
		"message": "Welcome to the " + s.Conf.AppName + " API",
		"version": s.Conf.Build,
	})
}

func (s *Server) health(ctx echo.Context) error {
	if err := s.DB.Ping(ctx.Request().Context()); err != nil {
		s.Logger.Error("health: database unreachable", err)
		return ctx.JSON(http.StatusServiceUnavailable, errorResponse{
			Status:  statusError,
			Message: "database unreachable",
			Code:    "database_down",
		})
	}
	return respond(ctx, http.StatusOK, "health", echo.Map{"database": "up", "env": s.Conf.Env})
}
