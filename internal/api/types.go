package api

import "time"

// RegisterRequest represents the request payload for user registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents the response payload after registration or login
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
}

// RoleResponse is one entry of the role listing
type RoleResponse struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// RolesResponse lists the roles and voices an interview can be started with
type RolesResponse struct {
	Roles  []RoleResponse `json:"roles"`
	Voices []string       `json:"voices"`
}

// ResumeAnalyzeRequest represents the request payload for resume analysis
type ResumeAnalyzeRequest struct {
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description" validate:"required"`
	Resume         string `json:"resume" validate:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
