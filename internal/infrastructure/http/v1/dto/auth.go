package dto

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the cashier profile.
type LoginResponse struct {
	Token string    `json:"token"`
	User  UserBrief `json:"user"`
}

// UserBrief is the public view of a user.
type UserBrief struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}
