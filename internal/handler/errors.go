package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/response"
	"github.com/physical-edu/physical-backend/internal/service"
	"github.com/physical-edu/physical-backend/internal/storage"
	"github.com/physical-edu/physical-backend/internal/validator"
	"github.com/rs/zerolog"
)

// failFromError maps a service error to its HTTP status and error code.
// Unknown errors are logged and reported as 500.
func failFromError(c *gin.Context, log zerolog.Logger, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		response.FailDetailed(c, http.StatusBadRequest, response.ErrValidation, ve.Message, validator.TranslateErrors(err))
		return
	}

	switch {
	// ─── Accounts ──────────────────────────────────────────────────────
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound)
	case errors.Is(err, service.ErrUserExists):
		response.Fail(c, http.StatusBadRequest, response.ErrUserExists)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, service.ErrResetTokenInvalid):
		response.Fail(c, http.StatusBadRequest, response.ErrResetTokenInvalid)
	case errors.Is(err, service.ErrPermissionDenied):
		response.Fail(c, http.StatusForbidden, response.ErrPermissionDenied)

	// ─── Questions ─────────────────────────────────────────────────────
	case errors.Is(err, service.ErrNotApprover):
		response.Fail(c, http.StatusForbidden, response.ErrNotAdmin)
	case errors.Is(err, service.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
	case errors.Is(err, service.ErrNoMoreQuestions):
		response.FailMessage(c, http.StatusNotFound, response.ErrNoQuestions, "No more questions available.")
	case errors.Is(err, service.ErrHintOutOfRange):
		response.FailMessage(c, http.StatusBadRequest, response.ErrHintOutOfRange, "No more hints available.")
	case errors.Is(err, service.ErrAnswerRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrAnswerRequired)

	// ─── Subjects ──────────────────────────────────────────────────────
	case errors.Is(err, service.ErrSubjectNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSubjectNotFound)

	// ─── Media ─────────────────────────────────────────────────────────
	case errors.Is(err, storage.ErrInvalidImageType):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidImageType)
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.FailMessage(c, http.StatusBadRequest, response.ErrUnsupportedFile, err.Error())
	case errors.Is(err, service.ErrFileTooLarge):
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
	case errors.Is(err, service.ErrUploadFailed):
		response.Fail(c, http.StatusInternalServerError, response.ErrUploadFailed)

	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// parseID reads a UUID path parameter, answering 400 when it is malformed.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
