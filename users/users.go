package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID            string    `json:"id,omitempty"`              // Unique identifier for the user
	FullName      string    `json:"full_name,omitempty"`       // Display name
	Username      string    `json:"username,omitempty"`        // Unique username, stored lower-cased
	Email         string    `json:"email,omitempty"`           // Unique email address
	AvatarURL     string    `json:"avatar_url,omitempty"`      // Hosted avatar image URL
	CoverImageURL string    `json:"cover_image_url,omitempty"` // Hosted cover image URL
	PasswordHash  string    `json:"-"`                         // Hashed version of the user's password - never serialize
	RefreshToken  string    `json:"-"`                         // Current refresh token on file - never serialize
	CreatedAt     time.Time `json:"created_at,omitempty"`      // Date and time when the user registered
}

// Sanitized returns a copy of the user safe to hand back to callers:
// the password hash and the stored refresh token are stripped.
func (u *User) Sanitized() *User {
	sanitized := *u
	sanitized.PasswordHash = ""
	sanitized.RefreshToken = ""
	return &sanitized
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
