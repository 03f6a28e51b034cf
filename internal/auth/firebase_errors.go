package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"clapper/internal/services"
)

// ProviderError is a non-2xx answer from the identity provider.
type ProviderError struct {
	Status int
	Code   string
	Detail string
	err    error
}

func (e *ProviderError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("identity provider: %s (%s, status %d)", e.Code, e.Detail, e.Status)
	}
	return fmt.Sprintf("identity provider: %s (status %d)", e.Code, e.Status)
}

func (e *ProviderError) Unwrap() error { return e.err }

type providerErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// providerError classifies a failed response. Messages carry the code first,
// optionally followed by " : detail".
func providerError(status int, raw []byte) error {
	var body providerErrorBody
	_ = json.Unmarshal(raw, &body)
	code, detail := splitProviderMessage(body.Error.Message)
	if code == "" {
		code = "UNKNOWN"
	}
	marker, message := classifyProviderCode(code)
	pe := &ProviderError{Status: status, Code: code, Detail: detail}
	pe.err = services.UserFacing(marker, message, nil)
	return pe
}

func splitProviderMessage(message string) (string, string) {
	code, detail, _ := strings.Cut(strings.TrimSpace(message), ":")
	return strings.TrimSpace(code), strings.TrimSpace(detail)
}

func classifyProviderCode(code string) (error, string) {
	switch code {
	case "EMAIL_EXISTS":
		return services.ErrConflict, "An account with this email already exists."
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return services.ErrUnauthorized, "Invalid email or password."
	case "USER_DISABLED":
		return services.ErrUnauthorized, "This account has been disabled."
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return services.ErrTransient, "Too many attempts. Please try again later."
	case "WEAK_PASSWORD":
		return services.ErrValidation, "Password should be at least 6 characters"
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return services.ErrValidation, "Please enter a valid email address."
	case "MISSING_PASSWORD":
		return services.ErrValidation, "Please enter your password."
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "USER_NOT_FOUND", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return services.ErrUnauthorized, "Your session has expired. Please sign in again."
	case "INVALID_IDP_RESPONSE":
		return services.ErrUnauthorized, "Google sign-in failed. Please try again."
	case "OPERATION_NOT_ALLOWED":
		return services.ErrConfiguration, "This sign-in method is not enabled."
	default:
		if strings.HasPrefix(code, "API_KEY") || strings.HasPrefix(code, "INVALID_API_KEY") {
			return services.ErrConfiguration, "Sign-in is not configured correctly."
		}
		return services.ErrTransient, "Something went wrong. Please try again."
	}
}
