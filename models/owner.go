package models

type AccessVerificationRequest struct {
	Email string `json:"email"`
}

type AccessVerificationResponse struct {
	HasAccess    bool   `json:"hasAccess"`
	IsFirstLogin bool   `json:"isFirstLogin"`
	UserID       string `json:"userId,omitempty"`
	Message      string `json:"message,omitempty"`
}

type CreatePasswordRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OwnerUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	RestaurantID   string `json:"restaurantId"`
	RestaurantName string `json:"restaurantName"`
}

type LoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    OwnerUser `json:"user"`
	Message string    `json:"message,omitempty"`
}

// APIResponse is the error/status envelope used by the REST API.
type APIResponse struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}
