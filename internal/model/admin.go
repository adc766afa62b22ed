package model

import "time"

// Admin is an address allowed into the results dashboard.
type Admin struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminLoginRequest is the payload for admin sign-in. Membership of the
// email in the admins table is the whole check.
type AdminLoginRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// AdminLoginResponse is returned after successful admin login.
type AdminLoginResponse struct {
	Token string `json:"token"`
	Admin Admin  `json:"admin"`
}
