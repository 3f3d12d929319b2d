package middleware

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateConversationID validates a conversation ID path parameter.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}

// ValidateImportPayload validates a chat-log import body.
func ValidateImportPayload(data []byte) error {
	if len(data) == 0 {
		return errors.New("import payload cannot be empty")
	}
	if len(data) > 10*1024*1024 { // 10MB limit
		return errors.New("import payload exceeds maximum size")
	}
	if !utf8.Valid(data) {
		return errors.New("import payload must be valid UTF-8")
	}
	return nil
}

// SecurityHeaders sets baseline security response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
