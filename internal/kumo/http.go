package kumo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout. It also bounds the
	// long-poll, which the router holds open until something changes.
	DefaultTimeout = 10 * time.Second

	// DefaultPort is the router's web server port
	DefaultPort = 80

	loginPath  = "/authenticator/login"
	configPath = "/config"
	browsePath = "/browse.json"
)

// HTTPSession is the live DeviceSession, speaking the router's web API over HTTP.
type HTTPSession struct {
	// BaseURL is the base URL for the router (e.g., "http://192.168.1.50")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client
}

// NewHTTPSession creates a session for a router address. The address may be a
// bare host ("192.168.1.50", "kumo.local:8080") or a full URL.
func NewHTTPSession(address string, timeout time.Duration) *HTTPSession {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSession{
		BaseURL:    NormalizeBaseURL(address),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// NormalizeBaseURL adds the http scheme when missing and drops trailing slashes.
func NormalizeBaseURL(address string) string {
	address = strings.TrimSpace(address)
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return strings.TrimRight(address, "/")
}

// SetTimeout sets the HTTP request timeout
func (s *HTTPSession) SetTimeout(timeout time.Duration) {
	s.HTTPClient.Timeout = timeout
}

// Address returns the base URL.
func (s *HTTPSession) Address() string {
	return s.BaseURL
}

// Login posts the password form and returns the raw Set-Cookie value.
func (s *HTTPSession) Login(ctx context.Context, password string) (string, error) {
	form := url.Values{}
	form.Set("password_provided", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", NewNetworkError("failed to create login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "*/*")

	_, header, err := s.do(req, "Login")
	if err != nil {
		return "", err
	}

	cookie := header.Get("Set-Cookie")
	if cookie == "" {
		return "", NewAuthError("login response carried no session cookie")
	}
	if strings.Contains(cookie, "invalid") {
		return "", NewAuthError("router rejected the password")
	}
	return cookie, nil
}

// Get reads one parameter.
func (s *HTTPSession) Get(ctx context.Context, cookie, paramID string) (ParamValue, error) {
	query := url.Values{}
	query.Set("action", "get")
	query.Set("paramid", paramID)

	req, err := s.newConfigRequest(ctx, cookie, query)
	if err != nil {
		return ParamValue{}, err
	}

	body, _, err := s.do(req, "GetCommand")
	if err != nil {
		return ParamValue{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ParamValue{}, NewParseError(fmt.Sprintf("failed to parse %s", paramID), err)
	}
	value, ok := fields["value"]
	if !ok {
		return ParamValue{}, NewParseError(fmt.Sprintf("%s: response has no value", paramID), nil)
	}
	return ParamValue{
		Value:     scalarString(value),
		ValueName: scalarString(fields["value_name"]),
	}, nil
}

// Set writes one parameter. The response body is returned as-is.
func (s *HTTPSession) Set(ctx context.Context, cookie, paramID, value string) (string, error) {
	query := url.Values{}
	query.Set("action", "set")
	query.Set("paramid", paramID)
	query.Set("value", value)

	req, err := s.newConfigRequest(ctx, cookie, query)
	if err != nil {
		return "", err
	}

	body, _, err := s.do(req, "SetCommand")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Connect acquires a long-poll connection id.
func (s *HTTPSession) Connect(ctx context.Context, cookie string) (int, error) {
	query := url.Values{}
	query.Set("action", "connect")

	req, err := s.newConfigRequest(ctx, cookie, query)
	if err != nil {
		return NoConnectionID, err
	}

	body, _, err := s.do(req, "Connect")
	if err != nil {
		return NoConnectionID, err
	}

	var data struct {
		ConnectionID *json.Number `json:"connectionid"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return NoConnectionID, NewParseError("failed to parse connection id", err)
	}
	if data.ConnectionID == nil {
		return NoConnectionID, NewParseError("connect response has no connection id", nil)
	}
	id, err := strconv.Atoi(data.ConnectionID.String())
	if err != nil {
		return NoConnectionID, NewParseError("connection id is not an integer", err)
	}
	return id, nil
}

// WaitForEvents issues the long-poll request. Non-OK statuses come back as
// DeviceErrors; a 417 is ErrTypeExpectationFailed.
func (s *HTTPSession) WaitForEvents(ctx context.Context, cookie string, connectionID int) ([]ParameterEvent, error) {
	query := url.Values{}
	query.Set("action", "wait_for_config_events")
	query.Set("connectionid", strconv.Itoa(connectionID))

	req, err := s.newConfigRequest(ctx, cookie, query)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	body, _, err := s.do(req, "WaitForEvents")
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var events []ParameterEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, NewParseError("failed to parse event batch", err)
	}
	return events, nil
}

// DeviceInfo reads browse.json and returns the first entry's description.
func (s *HTTPSession) DeviceInfo(ctx context.Context, cookie string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+browsePath, nil)
	if err != nil {
		return "", NewNetworkError("failed to create browse request", err)
	}
	s.attachCookie(req, cookie)

	body, _, err := s.do(req, "DeviceInfo")
	if err != nil {
		return "", err
	}

	var entries []struct {
		ServiceDescription string `json:"service_description"`
		Description        string `json:"description"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return "", NewParseError("failed to parse browse.json", err)
	}
	if len(entries) == 0 {
		return "", NewParseError("browse.json is empty", nil)
	}
	return entries[0].Description, nil
}

func (s *HTTPSession) newConfigRequest(ctx context.Context, cookie string, query url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+configPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, NewNetworkError("failed to create request", err)
	}
	s.attachCookie(req, cookie)
	return req, nil
}

func (s *HTTPSession) attachCookie(req *http.Request, cookie string) {
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
}

// do sends the request and returns body and headers of a 200 response.
// Anything else becomes a DeviceError.
func (s *HTTPSession) do(req *http.Request, operation string) ([]byte, http.Header, error) {
	req.Header.Set("User-Agent", version.UserAgent())
	logging.LogRequest(operation, req.URL.RequestURI())

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		devErr := ClassifyNetworkError(err, s.BaseURL)
		devErr.Message = operation + " request failed"
		return nil, nil, devErr
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, NewNetworkError("failed to read response body", err)
	}
	logging.LogResponse(operation, resp.StatusCode, body)

	if resp.StatusCode != http.StatusOK {
		return nil, resp.Header, NewHTTPError(resp.StatusCode, fmt.Sprintf("%s: unexpected status code: %d", operation, resp.StatusCode))
	}
	return body, resp.Header, nil
}
