// Package httpapi exposes the JSON API consumed by the web frontend:
// the account lifecycle endpoints and the classifier endpoints.
package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dberezins/threatlens/internal/common"
	"github.com/dberezins/threatlens/internal/logging"
	"github.com/dberezins/threatlens/internal/server/auth"
	"github.com/dberezins/threatlens/internal/server/classify"
	"github.com/dberezins/threatlens/internal/server/models"
)

var validate = validator.New()

// AuthFlows is the slice of the auth service the API needs.
type AuthFlows interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (string, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Profile(ctx context.Context, accountID string) (*models.Account, error)
	UpdateProfile(ctx context.Context, accountID, name, email string) error
}

// ScanFlows is the slice of the scan service the API needs.
type ScanFlows interface {
	ScanQuery(ctx context.Context, accountID, query string) (*models.Scan, error)
	ScanURL(ctx context.Context, accountID, url string) (*models.Scan, error)
	ScanFile(ctx context.Context, accountID, filename string, data []byte) (*models.Scan, error)
	History(ctx context.Context, accountID string) ([]*models.Scan, error)
}

type Server struct {
	app      *fiber.App
	auth     AuthFlows
	scans    ScanFlows
	sessions *auth.Sessions
	logger   logging.Logger
}

func NewServer(authSvc AuthFlows, scanSvc ScanFlows,
	sessions *auth.Sessions, logger logging.Logger) *Server {

	s := &Server{
		auth:     authSvc,
		scans:    scanSvc,
		sessions: sessions,
		logger:   logger.With("module", "httpapi"),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024, // file scans accept samples up to 32 MiB
	})
	s.routes()

	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Post("/register", s.handleRegister)
	api.Post("/login", s.handleLogin)
	api.Post("/verify-email", s.handleVerifyEmail)
	api.Post("/resend-verification", s.handleResendCode)
	api.Post("/forgot-password", s.handleForgotPassword)
	api.Post("/reset-password", s.handleResetPassword)

	protected := api.Group("", s.requireSession)
	protected.Get("/profile", s.handleGetProfile)
	protected.Put("/profile", s.handleUpdateProfile)
	protected.Get("/scans", s.handleScanHistory)
	protected.Post("/predict/sql", s.handlePredictSQL)
	protected.Post("/predict/phishing", s.handlePredictPhishing)
	protected.Post("/predict/file", s.handlePredictFile)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

func (s *Server) Shutdown() error { return s.app.Shutdown() }

// fail maps a service error to the response the frontend expects.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, common.ErrMissingFields):
		return message(c, fiber.StatusBadRequest, "All input is required")
	case errors.Is(err, common.ErrDuplicateIdentity):
		return message(c, fiber.StatusConflict, "User already exists. Please login.")
	case errors.Is(err, common.ErrInvalidCredentials):
		return message(c, fiber.StatusBadRequest, "Invalid Credentials")
	case errors.Is(err, common.ErrInvalidOrExpiredCode):
		return message(c, fiber.StatusBadRequest, "Invalid or expired verification code")
	case errors.Is(err, common.ErrInvalidOrExpiredToken):
		return message(c, fiber.StatusBadRequest, "Invalid or expired reset token")
	case errors.Is(err, common.ErrNotFound):
		return message(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, classify.ErrAnalysisFailed):
		return message(c, fiber.StatusInternalServerError, "Analysis failed")
	default:
		return message(c, fiber.StatusInternalServerError, "Something went wrong")
	}
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}
