package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"

	oauthNonceCookie    = "oauth_nonce"
	oauthProviderCookie = "oauth_provider"
)
