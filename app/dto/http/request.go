package http

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ValidateEmailRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	UserID      uint64 `json:"user_id"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	ExistingPassword string `json:"existing_password"`
	NewPassword      string `json:"new_password"`
}

type UpdateClaimsRequest struct {
	UserID       uint64 `json:"user_id"`
	IsAdmin      bool   `json:"is_admin"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

type UpsertProfileRequest struct {
	FullName     string `json:"full_name"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Gender       string `json:"gender"`
	Age          int    `json:"age"`
	Occupation   string `json:"occupation"`
	MobileNumber int64  `json:"mobile_number"`
}
