package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeDelivery represents outbound message delivery errors
	ErrorTypeDelivery ErrorType = "delivery"
	// ErrorTypeQuota represents daily quota exhaustion
	ErrorTypeQuota ErrorType = "quota"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents an error raised by one pipeline stage,
// scoped to the site or recipient it concerns.
type PipelineError struct {
	Type    ErrorType
	Site    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Site, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Site, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *PipelineError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeDelivery:
		return true
	default:
		return false
	}
}

// New creates a new PipelineError
func New(errType ErrorType, site, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Site:    site,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(site, message string, err error) *PipelineError {
	return New(ErrorTypeNetwork, site, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(site, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, site, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(site string, duration time.Duration) *PipelineError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, site, message, nil)
}

// NewDelivery creates a new delivery error
func NewDelivery(recipient, message string, err error) *PipelineError {
	return New(ErrorTypeDelivery, recipient, message, err)
}

// NewQuota creates a quota-exhaustion marker. Quota exhaustion is a
// defined outcome of a dispatch attempt, not a failure; callers report
// it distinctly.
func NewQuota(sentToday, dailyLimit int) *PipelineError {
	message := fmt.Sprintf("daily limit reached: %d/%d", sentToday, dailyLimit)
	return New(ErrorTypeQuota, "", message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsQuota reports whether err is a quota-exhaustion marker.
func IsQuota(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeQuota
	}
	return false
}
