package builder

import (
	"errors"

	"github.com/openfuse/console/internal/client"
)

type Tone string

const (
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
	ToneInfo    Tone = "info"
)

// Notice is the single user-facing outcome message of the latest action.
// A new notice replaces the previous one; the workflow never shows two.
type Notice struct {
	Tone    Tone   `json:"tone"`
	Message string `json:"message"`
}

// apiErrorMessage prefers the server-provided message of a structured API
// error; any other failure gets the context-specific fallback so the user
// always sees which action failed.
func apiErrorMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
