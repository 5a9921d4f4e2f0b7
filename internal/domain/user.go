package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleRecruiter Role = "RECRUITER"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole accepts any casing; the empty string and unknown names are rejected.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleStudent, RoleRecruiter, RoleAdmin:
		return r, true
	}
	return "", false
}

type User struct {
	UserID            string    `json:"id" dynamodbav:"user_id"`
	Username          string    `json:"username" dynamodbav:"username"`
	Email             string    `json:"email" dynamodbav:"email"`
	PasswordHash      string    `json:"-" dynamodbav:"password_hash"`
	Role              Role      `json:"role" dynamodbav:"role"`
	Enabled           bool      `json:"enabled" dynamodbav:"enabled"`
	ProfilePictureKey string    `json:"-" dynamodbav:"profile_picture_key,omitempty"`
	ResumeKey         string    `json:"-" dynamodbav:"resume_key,omitempty"`
	CreatedAt         time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time `json:"updated" dynamodbav:"updated_at"`
}

// BlobKeys lists the object-store keys owned by the user.
func (u *User) BlobKeys() []string {
	var keys []string
	if u.ProfilePictureKey != "" {
		keys = append(keys, u.ProfilePictureKey)
	}
	if u.ResumeKey != "" {
		keys = append(keys, u.ResumeKey)
	}
	return keys
}

// Identity is the authenticated caller, resolved from the bearer token by the
// transport layer and passed explicitly into services.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// UserMutation is a credential change applied in the same storage transaction
// that consumes an OTP. Nil fields are left untouched.
type UserMutation struct {
	UserID        string
	PasswordHash  *string
	Email         *string
	PreviousEmail string // released when Email is set
	Enabled       *bool
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Role     Role   `json:"role"`
	Username string `json:"username"`
}
