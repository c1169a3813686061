package handler

import (
	"encoding/json"
	"time"
)

// errorResponse documents the error envelope rendered by the central error handler.
type errorResponse struct {
	Error  string            `json:"error"`
	Status int               `json:"status"`
	Path   string            `json:"path"`
	Method string            `json:"method"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- Auth and users ---

type loginRequest struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      userResponse `json:"user"`
}

type registerUserRequest struct {
	Username string `json:"username" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,len=6"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,len=6"`
	NewPassword     string `json:"new_password"     validate:"required,len=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,len=6"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Clients ---

type createClientRequest struct {
	Name  string `json:"name" validate:"required,min=5,max=100"`
	TaxID string `json:"cpf"  validate:"required,cpf"`
}

type clientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"cpf"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type clientPageResponse struct {
	Items      []clientResponse `json:"items"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// --- Spots ---

type createSpotRequest struct {
	Code        string `json:"code"        validate:"required,len=4"`
	Status      string `json:"status"      validate:"omitempty,oneof=FREE OCCUPIED"`
	Description string `json:"description" validate:"max=255"`
}

type spotResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

type spotQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=FREE OCCUPIED free occupied"`
}

// --- Parking ---

type checkInRequest struct {
	Plate     string `json:"plate"      validate:"required,plate"`
	Make      string `json:"make"       validate:"required,max=50"`
	Model     string `json:"model"      validate:"required,max=50"`
	Color     string `json:"color"      validate:"required,max=30"`
	ClientCPF string `json:"client_cpf" validate:"required,cpf"`
}

type pageQuery struct {
	Page int `query:"page" validate:"omitempty,min=1"`
	Size int `query:"size" validate:"omitempty,min=1,max=100"`
}

// sessionResponse renders money as JSON numbers with two decimals.
type sessionResponse struct {
	Receipt   string      `json:"receipt"`
	Plate     string      `json:"plate"`
	Make      string      `json:"make"`
	Model     string      `json:"model"`
	Color     string      `json:"color"`
	ClientCPF string      `json:"client_cpf"`
	SpotCode  string      `json:"spot_code"`
	EntryTime time.Time   `json:"entry_time"`
	ExitTime  *time.Time  `json:"exit_time,omitempty"`
	Fee       json.Number `json:"fee,omitempty"        swaggertype:"number"`
	Discount  json.Number `json:"discount,omitempty"   swaggertype:"number"`
	AmountDue json.Number `json:"amount_due,omitempty" swaggertype:"number"`
}

type sessionPageResponse struct {
	Items      []sessionResponse `json:"items"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
	Total      int64             `json:"total"`
	TotalPages int               `json:"total_pages"`
}
