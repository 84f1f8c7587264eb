package service

// TokenPair bundles the freshly issued credentials. Only the access token
// is serialized into the response body; the refresh token travels in the
// HTTP-only cookie set by the handler.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
}

// UserViewModel represents lightweight profile data returned to clients.
// It never carries the password hash.
type UserViewModel struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
