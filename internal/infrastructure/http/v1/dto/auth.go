package dto

import "stockflow/internal/domain/auth"

// MeResponse describes the authenticated user.
type MeResponse struct {
	Username string  `json:"username"`
	Role     string  `json:"role"`
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
}

func FromMe(me *auth.Me) MeResponse {
	resp := MeResponse{Username: me.Username, Role: string(me.Role)}
	if me.DisplayName != "" {
		resp.FullName = &me.DisplayName
	}
	if me.Email != "" {
		resp.Email = &me.Email
	}
	return resp
}

// VerifyResponse is returned to the reverse proxy auth check.
type VerifyResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
