package service

import "errors"

// ─── Accounts ──────────────────────────────────────────────────────────
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
	ErrPermissionDenied   = errors.New("permission denied")
)

// ─── Questions ─────────────────────────────────────────────────────────
var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoQuestions      = errors.New("no questions found")
	ErrNoMoreQuestions  = errors.New("no more questions available")
	ErrNotApprover      = errors.New("approver must be an admin or teacher")
	ErrHintOutOfRange   = errors.New("no more hints available")
	ErrAnswerRequired   = errors.New("answer must be a non-empty string")
)

// ─── Subjects ──────────────────────────────────────────────────────────
var ErrSubjectNotFound = errors.New("subject not found")

// ─── Media ─────────────────────────────────────────────────────────────
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUploadFailed        = errors.New("image upload failed")
)
