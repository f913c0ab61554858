package kumo

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection reset, unreachable host, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates a rejected login (no cookie or an "invalid" cookie)
	ErrTypeAuth
	// ErrTypeHTTP indicates a non-OK HTTP status from the router
	ErrTypeHTTP
	// ErrTypeParse indicates a response body that could not be decoded
	ErrTypeParse
	// ErrTypeFormat indicates a parameter event whose id or index breaks the router's naming layout
	ErrTypeFormat
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the router refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeExpectationFailed indicates HTTP 417 from the router. The router answers
	// this way while it is up but not ready for the request, so it counts as reachable.
	ErrTypeExpectationFailed
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeFormat:
		return "Format Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeExpectationFailed:
		return "Expectation Failed"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred while talking to the router
type DeviceError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	DeviceAddress  string              // Router address (for context)
	Retryable      bool                // Whether the next poll interval may succeed
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes an error and returns a more specific error type
func ClassifyNetworkError(err error, address string) *DeviceError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &DeviceError{
			Type:           ErrTypeTimeout,
			Message:        "Request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			DeviceAddress:  address,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
			DeviceAddress:  address,
			Retryable:      false,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &DeviceError{
				Type:           ErrTypeConnectionRefused,
				Message:        "Router refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				DeviceAddress:  address,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &DeviceError{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				DeviceAddress:  address,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &DeviceError{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				DeviceAddress:  address,
				Retryable:      true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err, address)
	}

	return &DeviceError{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		DeviceAddress:  address,
		Retryable:      true,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *DeviceError {
	classified := ClassifyNetworkError(err, "")
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &DeviceError{
		Type:      ErrTypeNetwork,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Retryable:  false,
	}
}

// NewHTTPError creates an HTTP-level error. A 417 becomes ErrTypeExpectationFailed.
func NewHTTPError(statusCode int, message string) *DeviceError {
	if statusCode == http.StatusExpectationFailed {
		return &DeviceError{
			Type:       ErrTypeExpectationFailed,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
		}
	}
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeParse,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// NewFormatError creates an error for a parameter event that does not fit the id layout
func NewFormatError(message string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeFormat,
		Message:   message,
		Retryable: false,
	}
}

func asDeviceError(err error) (*DeviceError, bool) {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a network-layer failure. This includes
// timeouts, refused connections, DNS failures and the 417 signature.
func IsNetworkError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		switch devErr.Type {
		case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeExpectationFailed:
			return true
		}
	}
	return false
}

// IsExpectationFailed checks if an error is the router's HTTP 417 answer
func IsExpectationFailed(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeExpectationFailed
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeAuth
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeParse
	}
	return false
}

// IsFormatError checks if an error is a parameter format error
func IsFormatError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeFormat
	}
	return false
}

// IsRetryable checks if an error may clear up on the next attempt
func IsRetryable(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Retryable
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The router did not respond in time.",
			"Troubleshooting:",
			"  • Check that the router is powered on",
			"  • Verify the address with 'kumo scan'",
			"  • Try increasing --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The router refused the connection.",
			"Troubleshooting:",
			"  • The web server may still be booting, wait a few seconds",
			"  • Verify the port (the router serves HTTP on 80)",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the router hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Run 'kumo scan' to find the router on the local network",
		}, "\n")

	case ErrTypeAuth:
		return strings.Join([]string{
			"Login was rejected.",
			"Troubleshooting:",
			"  • Check the password configured under System > Authentication",
			"  • Routers with authentication disabled accept an empty password",
		}, "\n")

	case ErrTypeExpectationFailed:
		return "The router is reachable but rejected the request (HTTP 417). It usually recovers on the next poll."

	case ErrTypeNetwork:
		hint := []string{"Network communication failed."}

		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			hint = append(hint, "The router is not reachable on the network.",
				"Troubleshooting:",
				"  • Verify the router IP address is correct",
				"  • Check that you're on the same network as the router",
				"  • Try pinging the router: ping "+devErr.DeviceAddress)

		case NetworkErrorNetworkUnreachable:
			hint = append(hint, "Your computer cannot reach the router's network.",
				"Troubleshooting:",
				"  • Check your network adapter settings",
				"  • Check routes to the router's subnet")

		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the router is powered on")
		}

		return strings.Join(hint, "\n")

	case ErrTypeHTTP:
		if devErr.StatusCode >= 500 {
			return strings.Join([]string{
				fmt.Sprintf("The router returned an error (HTTP %d).", devErr.StatusCode),
				"Troubleshooting:",
				"  • Try rebooting the router",
				"  • Check if a firmware update is available",
			}, "\n")
		}
		return fmt.Sprintf("The router returned HTTP error %d. Check the request parameters.", devErr.StatusCode)

	case ErrTypeParse:
		return strings.Join([]string{
			"Failed to parse the router's response.",
			"This may indicate a firmware incompatibility.",
		}, "\n")

	case ErrTypeFormat:
		return "The router reported a parameter that does not match the expected layout."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Router not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Router refused connection"
	case ErrTypeDNS:
		return "Cannot resolve router hostname"
	case ErrTypeAuth:
		return "Login failed - check password"
	case ErrTypeExpectationFailed:
		return "Router busy (HTTP 417)"
	case ErrTypeNetwork:
		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Router unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Router error (HTTP %d)", devErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse router response"
	default:
		return devErr.Message
	}
}
