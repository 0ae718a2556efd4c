package dto

import "retire-rag/internal/models"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type ProfilesResponse struct {
	Profiles []*models.UserProfile `json:"profiles"`
	Count    int                   `json:"count"`
}

type IndexStatusResponse struct {
	State  string `json:"state"`
	Chunks int    `json:"chunks"`
	Status string `json:"status"`
}
