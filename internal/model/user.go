package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a platform account. Every account starts as a student; RequestedRole
// is set only while a teacher promotion is pending and is absent otherwise.
type User struct {
	ID            uuid.UUID  `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	RequestedRole *Role      `json:"requested_role,omitempty"`
	ApprovedBy    *uuid.UUID `json:"approved_by,omitempty"`
	CreatedAt     time.Time  `json:"created_date"`
}

// UserRecord is a User together with its credential hash. It is what the
// email-keyed cache entries hold, since the password flows need the hash.
type UserRecord struct {
	User
	PasswordHash string `json:"password_hash"`
}

// Record wraps u with its hash for caching.
func (u *User) Record() UserRecord {
	return UserRecord{User: *u, PasswordHash: u.PasswordHash}
}

// ToUser restores the hash into the embedded user.
func (r UserRecord) ToUser() *User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	return &u
}

// HasPendingTeacherRequest reports whether the user asked to become a teacher.
func (u *User) HasPendingTeacherRequest() bool {
	return u.RequestedRole != nil && *u.RequestedRole == RoleTeacher
}

// SignupRequest is the payload for account registration.
type SignupRequest struct {
	FirstName     string `json:"first_name" binding:"required,max=100"`
	LastName      string `json:"last_name" binding:"required,max=100"`
	Email         string `json:"email" binding:"required,email,max=255"`
	Password      string `json:"password" binding:"required,min=6,max=128"`
	RequestedRole string `json:"requested_role" binding:"omitempty,max=20"`
}

// SigninRequest is the payload for sign-in.
type SigninRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// ChangePasswordRequest is the payload for changing a password with the old one.
type ChangePasswordRequest struct {
	Email       string `json:"email" binding:"required,email,max=255"`
	OldPassword string `json:"oldPassword" binding:"required,max=128"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=128"`
}

// ChangeEmailRequest is the payload for changing the account email.
type ChangeEmailRequest struct {
	OldEmail string `json:"oldEmail" binding:"required,email,max=255"`
	NewEmail string `json:"newEmail" binding:"required,email,max=255"`
}

// RecoverPasswordRequest starts the password recovery flow.
type RecoverPasswordRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// ResetPasswordRequest completes the password recovery flow.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=128"`
}
