package common

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"jobtracker/internal/models"

	"github.com/google/uuid"
)

type contextKey string

const (
	IdentityKey  contextKey = "identity"
	RequestIDKey contextKey = "request_id"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message     string              `json:"message"`
	FieldErrors map[string][]string `json:"field_errors,omitempty"`
}

func NewErrorResponse(message string, fieldErrors map[string][]string) *ErrorResponse {
	return &ErrorResponse{Message: message, FieldErrors: fieldErrors}
}

// WithIdentity attaches the authenticated caller to ctx.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentityFromContext returns nil for anonymous requests.
func GetIdentityFromContext(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(IdentityKey).(*models.Identity)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// ValidateUUID parses a path or query identifier.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	if len(idStr) != 36 {
		return uuid.Nil, fmt.Errorf("%s must be exactly 36 characters (including hyphens)", fieldName)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID", fieldName)
	}
	return id, nil
}

// NormalizeEmail lowercases and trims an address before lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const maxSearchTermLength = 100

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SanitizeSearchQuery trims a search term and caps it at 100 characters.
func SanitizeSearchQuery(query string) string {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) > maxSearchTermLength {
		query = string([]rune(query)[:maxSearchTermLength])
	}
	return strings.TrimSpace(query)
}

// EscapeLikePattern escapes LIKE wildcards so term matches literally. The
// escape character is backslash, the Postgres default.
func EscapeLikePattern(term string) string {
	return likeEscaper.Replace(term)
}

// ValidatePaginationParams clamps page and page size to usable values.
func ValidatePaginationParams(page, pageSize, defaultSize, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}
