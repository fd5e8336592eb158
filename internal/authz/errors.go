package authz

import "net/http"

// Code identifies why an evaluation denied. Codes are stable machine
// identifiers; clients branch on them and render the user message.
type Code string

const (
	CodeInvalidTokenFormat   Code = "INVALID_TOKEN_FORMAT"
	CodeInvalidToken         Code = "INVALID_TOKEN"
	CodeCrossPoolAccess      Code = "CROSS_POOL_ACCESS"
	CodeSessionExpired       Code = "SESSION_EXPIRED"
	CodeInsufficientTier     Code = "INSUFFICIENT_TIER"
	CodeTierCheckUnavailable Code = "TIER_CHECK_UNAVAILABLE"
	CodeProfileNotFound      Code = "PROFILE_NOT_FOUND"
	CodePermissionDenied     Code = "PERMISSION_DENIED"
	CodeScopeRestricted      Code = "SCOPE_RESTRICTED"
	CodeForbidden            Code = "FORBIDDEN"
)

var httpStatusByCode = map[Code]int{
	CodeInvalidTokenFormat:   http.StatusUnauthorized,
	CodeInvalidToken:         http.StatusUnauthorized,
	CodeCrossPoolAccess:      http.StatusUnauthorized,
	CodeSessionExpired:       http.StatusUnauthorized,
	CodeInsufficientTier:     http.StatusForbidden,
	CodePermissionDenied:     http.StatusForbidden,
	CodeScopeRestricted:      http.StatusForbidden,
	CodeForbidden:            http.StatusForbidden,
	CodeProfileNotFound:      http.StatusNotFound,
	CodeTierCheckUnavailable: http.StatusInternalServerError,
}

// HTTPStatus maps the code to the status downstream handlers return.
func (c Code) HTTPStatus() int {
	if status, ok := httpStatusByCode[c]; ok {
		return status
	}
	return http.StatusForbidden
}

// Render-safe copy. Never include claim contents or store details here:
// several of these strings are shown directly to end users.
var userMessageByCode = map[Code]string{
	CodeInvalidTokenFormat:   "Your session credential is malformed. Please sign in again.",
	CodeInvalidToken:         "Your session is no longer valid. Please sign in again.",
	CodeCrossPoolAccess:      "This account cannot access this area.",
	CodeSessionExpired:       "Your session has expired. Please sign in again.",
	CodeInsufficientTier:     "This feature requires a dealer subscription.",
	CodeTierCheckUnavailable: "We could not verify your account right now. Please try again.",
	CodeProfileNotFound:      "Account not found.",
	CodePermissionDenied:     "Your account does not have permission to do this.",
	CodeScopeRestricted:      "This resource is outside your assigned access scope.",
	CodeForbidden:            "You do not have access to this resource.",
}

// UserMessage returns the plain-language message safe to render for a code.
func (c Code) UserMessage() string {
	if msg, ok := userMessageByCode[c]; ok {
		return msg
	}
	return "Access denied."
}
