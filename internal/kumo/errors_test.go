package kumo

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

func TestClassifyNetworkError_Timeout(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.50/config",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: &timeoutError{},
		},
	}

	devErr := ClassifyNetworkError(err, "192.168.1.50")

	if devErr == nil {
		t.Fatal("Expected DeviceError, got nil")
	}
	if devErr.Type != ErrTypeTimeout {
		t.Errorf("Type = %v, want %v", devErr.Type, ErrTypeTimeout)
	}
	if devErr.NetworkSubtype != NetworkErrorTimeout {
		t.Errorf("NetworkSubtype = %v, want %v", devErr.NetworkSubtype, NetworkErrorTimeout)
	}
	if !IsNetworkError(devErr) {
		t.Error("timeout should count as a network error")
	}
}

func TestClassifyNetworkError_ConnectionRefused(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.50/config",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: syscall.ECONNREFUSED,
		},
	}

	devErr := ClassifyNetworkError(err, "192.168.1.50")

	if devErr.Type != ErrTypeConnectionRefused {
		t.Errorf("Type = %v, want %v", devErr.Type, ErrTypeConnectionRefused)
	}
	if !devErr.Retryable {
		t.Error("connection refused should be retryable")
	}
}

func TestClassifyNetworkError_DNS(t *testing.T) {
	err := &net.DNSError{
		Err:        "no such host",
		Name:       "kumo.invalid",
		IsNotFound: true,
	}

	devErr := ClassifyNetworkError(err, "kumo.invalid")

	if devErr.Type != ErrTypeDNS {
		t.Errorf("Type = %v, want %v", devErr.Type, ErrTypeDNS)
	}
	if devErr.Retryable {
		t.Error("DNS error should not be retryable")
	}
}

func TestClassifyNetworkError_HostUnreachable(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.50/config",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: syscall.EHOSTUNREACH,
		},
	}

	devErr := ClassifyNetworkError(err, "192.168.1.50")

	if devErr.Type != ErrTypeNetwork {
		t.Errorf("Type = %v, want %v", devErr.Type, ErrTypeNetwork)
	}
	if devErr.NetworkSubtype != NetworkErrorHostUnreachable {
		t.Errorf("NetworkSubtype = %v, want %v", devErr.NetworkSubtype, NetworkErrorHostUnreachable)
	}
}

func TestClassifyNetworkError_Nil(t *testing.T) {
	if got := ClassifyNetworkError(nil, "192.168.1.50"); got != nil {
		t.Errorf("ClassifyNetworkError(nil) = %v, want nil", got)
	}
}

func TestNewHTTPError_ExpectationFailed(t *testing.T) {
	err := NewHTTPError(417, "WaitForEvents: unexpected status code: 417")

	if !IsExpectationFailed(err) {
		t.Error("417 should be ErrTypeExpectationFailed")
	}
	if !IsNetworkError(err) {
		t.Error("417 should count as a network-layer failure")
	}
	if IsHTTPError(err) {
		t.Error("417 should not be a plain HTTP error")
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		network bool
		auth    bool
		http    bool
		parse   bool
		format  bool
	}{
		{name: "network", err: NewNetworkError("reset", errors.New("connection reset")), network: true},
		{name: "auth", err: NewAuthError("rejected"), auth: true},
		{name: "http 500", err: NewHTTPError(500, "boom"), http: true},
		{name: "parse", err: NewParseError("bad json", nil), parse: true},
		{name: "format", err: NewFormatError("no index"), format: true},
		{name: "plain", err: errors.New("plain")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetworkError(tt.err); got != tt.network {
				t.Errorf("IsNetworkError() = %v, want %v", got, tt.network)
			}
			if got := IsAuthError(tt.err); got != tt.auth {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.auth)
			}
			if got := IsHTTPError(tt.err); got != tt.http {
				t.Errorf("IsHTTPError() = %v, want %v", got, tt.http)
			}
			if got := IsParseError(tt.err); got != tt.parse {
				t.Errorf("IsParseError() = %v, want %v", got, tt.parse)
			}
			if got := IsFormatError(tt.err); got != tt.format {
				t.Errorf("IsFormatError() = %v, want %v", got, tt.format)
			}
		})
	}
}

func TestErrorPredicates_Wrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), NewAuthError("rejected"))
	if !IsAuthError(wrapped) {
		t.Error("IsAuthError should see through wrapping")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "HTTP 503", err: NewHTTPError(503, "busy"), retryable: true},
		{name: "HTTP 404", err: NewHTTPError(404, "missing"), retryable: false},
		{name: "417", err: NewHTTPError(417, "refused"), retryable: true},
		{name: "auth", err: NewAuthError("rejected"), retryable: false},
		{name: "unknown", err: errors.New("unknown"), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "timeout", err: &DeviceError{Type: ErrTypeTimeout}, want: "Router not responding (timeout)"},
		{name: "auth", err: &DeviceError{Type: ErrTypeAuth}, want: "Login failed - check password"},
		{name: "417", err: &DeviceError{Type: ErrTypeExpectationFailed}, want: "Router busy (HTTP 417)"},
		{name: "http", err: &DeviceError{Type: ErrTypeHTTP, StatusCode: 500}, want: "Router error (HTTP 500)"},
		{name: "format", err: &DeviceError{Type: ErrTypeFormat, Message: "button 20 outside 1..8"}, want: "button 20 outside 1..8"},
		{name: "plain", err: errors.New("plain failure"), want: "plain failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetShortErrorMessage(tt.err); got != tt.want {
				t.Errorf("GetShortErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	hint := GetTroubleshootingHint(&DeviceError{
		Type:           ErrTypeNetwork,
		NetworkSubtype: NetworkErrorHostUnreachable,
		DeviceAddress:  "192.168.1.50",
	})

	for _, want := range []string{"not reachable", "ping 192.168.1.50", "same network"} {
		if !strings.Contains(hint, want) {
			t.Errorf("hint missing %q:\n%s", want, hint)
		}
	}
}

// timeoutError is a mock error that implements timeout behavior
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
