package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dberezins/threatlens/internal/server/models"
)

type registerReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	if err := validate.Struct(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	if err := s.auth.Register(c.Context(), req.Name, req.Email, req.Password); err != nil {
		return fail(c, err)
	}

	return message(c, fiber.StatusCreated, "Registered. Please check your email for a verification code.")
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	if err := validate.Struct(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	token, err := s.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"token": token})
}

type verifyEmailReq struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

func (s *Server) handleVerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailReq
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	if err := validate.Struct(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	if err := s.auth.VerifyEmail(c.Context(), req.Email, req.Code); err != nil {
		return fail(c, err)
	}

	return message(c, fiber.StatusOK, "Email verified successfully")
}

type emailReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) handleResendCode(c *fiber.Ctx) error {
	var req emailReq
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	if err := validate.Struct(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	if err := s.auth.ResendCode(c.Context(), req.Email); err != nil {
		return fail(c, err)
	}

	// same acknowledgment whether or not the account exists
	return message(c, fiber.StatusOK, "Verification code sent")
}

func (s *Server) handleForgotPassword(c *fiber.Ctx) error {
	var req emailReq
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	if err := validate.Struct(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	if err := s.auth.ForgotPassword(c.Context(), req.Email); err != nil {
		return fail(c, err)
	}

	// same acknowledgment whether or not the account exists
	return message(c, fiber.StatusOK, "If that email is registered, a reset link has been sent")
}

type resetPasswordReq struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleResetPassword(c *fiber.Ctx) error {
	var req resetPasswordReq
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	if err := validate.Struct(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	if err := s.auth.ResetPassword(c.Context(), req.Token, req.Password); err != nil {
		return fail(c, err)
	}

	return message(c, fiber.StatusOK, "Password reset successful")
}

type profileResp struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Verified    bool       `json:"verified"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func toProfileResp(a *models.Account) profileResp {
	return profileResp{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Verified:    a.Verified,
		CreatedAt:   a.CreatedAt,
		LastLoginAt: a.LastLoginAt,
	}
}

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	account, err := s.auth.Profile(c.Context(), accountID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toProfileResp(account))
}

type updateProfileReq struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var req updateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	if err := validate.Struct(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	if err := s.auth.UpdateProfile(c.Context(), accountID(c), req.Name, req.Email); err != nil {
		return fail(c, err)
	}

	return message(c, fiber.StatusOK, "Profile updated")
}
