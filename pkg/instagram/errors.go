package instagram

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPost is returned for posts with no or too many images.
	ErrInvalidPost = errors.New("instagram: a post needs 1 to 10 images")
	// ErrMissingContainerID is returned when a container call succeeds without an id.
	ErrMissingContainerID = errors.New("instagram: container id missing from response")
	// ErrMediaProcessing is returned when a container reports status ERROR.
	ErrMediaProcessing = errors.New("instagram: media processing failed")
)

// APIError is the Graph API error object.
type APIError struct {
	Message     string `json:"message"`
	Type        string `json:"type"`
	Code        int    `json:"code"`
	Subcode     int    `json:"error_subcode"`
	IsTransient bool   `json:"is_transient"`
	UserTitle   string `json:"error_user_title"`
	UserMessage string `json:"error_user_msg"`
	FBTraceID   string `json:"fbtrace_id"`
	HTTPStatus  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("instagram api error %d: %s", e.Code, e.Message)
}

// Transient reports whether Graph flags the error as worth retrying: an
// explicit is_transient flag, code 2 (service temporarily unavailable) or a
// message mentioning "unexpected" or "retry".
func (e *APIError) Transient() bool {
	if e.IsTransient || e.Code == 2 {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "unexpected") || strings.Contains(msg, "retry")
}

// StepError locates a failure within a publish run. Image is 1-based and
// zero for steps not tied to one image.
type StepError struct {
	Step  Step
	Image int
	Err   error
}

func (e *StepError) Error() string {
	if e.Image > 0 {
		return fmt.Sprintf("%s (image %d): %v", e.Step, e.Image, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
