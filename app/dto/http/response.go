package http

type RegisterResponse struct {
	UserID  uint64 `json:"user_id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type LoginResponse struct {
	UserID       uint64 `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type ValidateEmailResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ClaimsResponse struct {
	UserID         uint64 `json:"user_id"`
	IsAdmin        bool   `json:"is_admin"`
	IsSuperAdmin   bool   `json:"is_super_admin"`
	LastModifiedBy uint64 `json:"last_modified_by"`
	LastModifiedAt string `json:"last_modified_at"`
}

type ProfileResponse struct {
	UserID       uint64 `json:"user_id"`
	FullName     string `json:"full_name"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Gender       string `json:"gender"`
	Age          int    `json:"age"`
	Occupation   string `json:"occupation"`
	MobileNumber int64  `json:"mobile_number"`
	PictureURL   string `json:"picture_url,omitempty"`
}

type PublicProfileResponse struct {
	UserID     uint64 `json:"user_id"`
	FullName   string `json:"full_name"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PictureURL string `json:"picture_url,omitempty"`
}

type UploadPictureResponse struct {
	PictureURL string `json:"picture_url"`
	Message    string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
