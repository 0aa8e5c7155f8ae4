package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	Username       string `json:"username"`
	ProfilePicture int    `json:"profile_picture,omitempty"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ProfilePicture int    `json:"profile_picture,omitempty"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateTableRequest is the request body for creating a table
type CreateTableRequest struct {
	Game       string `json:"game"`
	Visibility string `json:"visibility,omitempty"`
}

// JoinPublicRequest is the request body for public matchmaking
type JoinPublicRequest struct {
	Game string `json:"game"`
}
