package shortener

import (
	"encoding/json"
	"strings"
)

const StatusSuccess = "success"

// ShortenResponse is the API reply. message is a string or a list of strings depending on the error.
type ShortenResponse struct {
	Status       string          `json:"status"`
	ShortenedURL string          `json:"shortenedUrl"`
	Message      json.RawMessage `json:"message,omitempty"`
}

// ErrorMessage flattens the message field
func (r ShortenResponse) ErrorMessage() string {
	if len(r.Message) == 0 {
		return "unknown error"
	}

	var single string
	if err := json.Unmarshal(r.Message, &single); err == nil {
		return single
	}

	var list []string
	if err := json.Unmarshal(r.Message, &list); err == nil {
		return strings.Join(list, "; ")
	}

	return string(r.Message)
}
