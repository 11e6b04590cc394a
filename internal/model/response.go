package model

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LogoutResponse reports whether the presented tokens were added to the denylist.
// Revoked is false when revocation is disabled.
type LogoutResponse struct {
	Status  string `json:"status"`
	Revoked bool   `json:"revoked"`
}
