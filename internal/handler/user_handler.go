package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/physical-edu/physical-backend/internal/middleware"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/response"
	"github.com/physical-edu/physical-backend/internal/service"
	"github.com/physical-edu/physical-backend/internal/validator"
	"github.com/rs/zerolog"
)

// UserHandler handles account and teacher approval endpoints.
type UserHandler struct {
	userService *service.UserService
	log         zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log.With().Str("component", "user_handler").Logger(),
	}
}

// Signup godoc
// POST /api/users/signup
// Registers a student account, optionally requesting the teacher role.
func (h *UserHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.userService.Signup(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusCreated, "Signup successful", result)
}

// Signin godoc
// POST /api/users/signin
// Exchanges credentials for a one-hour access token.
func (h *UserHandler) Signin(c *gin.Context) {
	var req model.SigninRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.userService.Signin(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Login successful", result)
}

// ChangePassword godoc
// POST /api/users/changePassword
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), &req); err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Password updated successfully", nil)
}

// ChangeEmail godoc
// POST /api/users/changeEmail
// The caller must own the old email or be an admin.
func (h *UserHandler) ChangeEmail(c *gin.Context) {
	var req model.ChangeEmailRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.ChangeEmail(c.Request.Context(), middleware.GetUser(c), &req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Email updated successfully", user)
}

// RecoverPassword godoc
// POST /api/users/recoverPassword
// Mails a password reset link.
func (h *UserHandler) RecoverPassword(c *gin.Context) {
	var req model.RecoverPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.userService.RecoverPassword(c.Request.Context(), req.Email); err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Password recovery email sent", nil)
}

// ResetPassword godoc
// POST /api/users/resetPassword
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), &req); err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Password reset successfully", nil)
}

// Me godoc
// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	response.Success(c, http.StatusOK, middleware.GetUser(c))
}

// TeacherRequests godoc
// GET /api/users/admin/teacher-requests
func (h *UserHandler) TeacherRequests(c *gin.Context) {
	users, err := h.userService.TeacherRequests(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	response.Success(c, http.StatusOK, users)
}

// ApproveTeacher godoc
// PUT /api/users/admin/approve-teacher/:userId
func (h *UserHandler) ApproveTeacher(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	user, err := h.userService.ApproveTeacher(c.Request.Context(), middleware.GetUser(c), userID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Teacher approved", user)
}
