package auth

// RegisterRequest is the inbound registration payload.
type RegisterRequest struct {
	FullName      string `json:"fullName"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	CoverImageURL string `json:"coverImageUrl,omitempty"`
}

// TokenPair is the access/refresh pair produced by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
