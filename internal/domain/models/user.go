package models

// User is the identity record returned by the auth and user endpoints.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserInput is the create/update payload for the admin user screens.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

// AuthResult is the login/confirm response.
type AuthResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// Notification is a push payload.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
