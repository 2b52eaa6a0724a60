package models

// Roles a session user can hold.
const (
	RoleABHA      = "abha"
	RoleClinician = "clinician"
)

// User is the identity held by a session.
type User struct {
	AbhaID  string `json:"abhaId"`
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Age     int    `json:"age,omitempty"`
	Address string `json:"address,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
}

type LoginRequest struct {
	AbhaID string `json:"abhaId"`
}

type ClinicianLoginRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
	User      User   `json:"user"`
}
