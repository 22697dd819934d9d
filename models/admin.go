package models

// AdminLoginRequest is the body of POST /api/admin/login.
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
