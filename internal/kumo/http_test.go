package kumo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const mockEventBatch = `[
	{"param_id":"eParamID_XPT_Destination2_Status","param_type":"int","int_value":3,"str_value":3,"last_config_update":"1712"},
	{"param_id":"eParamID_XPT_Source1_Line_1","param_type":"string","int_value":0,"str_value":"Cam 1","last_config_update":"1713"}
]`

func TestNewHTTPSession(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"192.168.1.50", "http://192.168.1.50"},
		{"kumo.local:8080/", "http://kumo.local:8080"},
		{"https://kumo.example", "https://kumo.example"},
	}

	for _, tt := range tests {
		s := NewHTTPSession(tt.address, 0)
		if s.BaseURL != tt.want {
			t.Errorf("BaseURL = %s, want %s", s.BaseURL, tt.want)
		}
		if s.HTTPClient.Timeout != DefaultTimeout {
			t.Errorf("Timeout = %v, want %v", s.HTTPClient.Timeout, DefaultTimeout)
		}
	}
}

func TestSetTimeout(t *testing.T) {
	s := NewHTTPSession("192.168.1.50", 0)
	s.SetTimeout(5 * time.Second)

	if s.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", s.HTTPClient.Timeout)
	}
}

func TestLogin_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/authenticator/login" {
			t.Errorf("request = %s %s, want POST /authenticator/login", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("password_provided"); got != "secret" {
			t.Errorf("password_provided = %q, want secret", got)
		}
		w.Header().Set("Set-Cookie", "serenity-session=abc123")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewHTTPSession(server.URL, time.Second)
	cookie, err := s.Login(context.Background(), "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if cookie != "serenity-session=abc123" {
		t.Errorf("cookie = %q, want serenity-session=abc123", cookie)
	}
}

func TestLogin_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
	}{
		{name: "no cookie", cookie: ""},
		{name: "invalid cookie", cookie: "serenity-session=invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.cookie != "" {
					w.Header().Set("Set-Cookie", tt.cookie)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			s := NewHTTPSession(server.URL, time.Second)
			_, err := s.Login(context.Background(), "wrong")
			if !IsAuthError(err) {
				t.Errorf("Login() error = %v, want auth error", err)
			}
		})
	}
}

func TestGet_SendsCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "get" || q.Get("paramid") != ParamNumberOfSources {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Cookie"); got != "serenity-session=abc123" {
			t.Errorf("Cookie = %q, want serenity-session=abc123", got)
		}
		_, _ = w.Write([]byte(`{"value":16,"value_name":"16"}`))
	}))
	defer server.Close()

	s := NewHTTPSession(server.URL, time.Second)
	v, err := s.Get(context.Background(), "serenity-session=abc123", ParamNumberOfSources)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v.Value != "16" || v.ValueName != "16" {
		t.Errorf("Get() = %+v, want 16/16", v)
	}
}

func TestGet_MissingValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"unknown param"}`))
	}))
	defer server.Close()

	s := NewHTTPSession(server.URL, time.Second)
	_, err := s.Get(context.Background(), "", "eParamID_Nope")
	if !IsParseError(err) {
		t.Errorf("Get() error = %v, want parse error", err)
	}
}

func TestSet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "set" || q.Get("paramid") != DestinationStatusParam(2) || q.Get("value") != "5" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"paramid":"eParamID_XPT_Destination2_Status","value":"5"}`))
	}))
	defer server.Close()

	s := NewHTTPSession(server.URL, time.Second)
	body, err := s.Set(context.Background(), "", DestinationStatusParam(2), "5")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if body == "" {
		t.Error("Set() body is empty")
	}
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    int
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK, body: `{"connectionid":42}`, want: 42},
		{name: "capitalized key", status: http.StatusOK, body: `{"ConnectionID":7}`, want: 7},
		{name: "missing id", status: http.StatusOK, body: `{}`, want: NoConnectionID, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, body: ``, want: NoConnectionID, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("action") != "connect" {
					t.Errorf("action = %s, want connect", r.URL.Query().Get("action"))
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s := NewHTTPSession(server.URL, time.Second)
			got, err := s.Connect(context.Background(), "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Connect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Connect() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWaitForEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "wait_for_config_events" || q.Get("connectionid") != "42" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(mockEventBatch))
	}))
	defer server.Close()

	s := NewHTTPSession(server.URL, time.Second)
	events, err := s.WaitForEvents(context.Background(), "", 42)
	if err != nil {
		t.Fatalf("WaitForEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].NumericValue != 3 || events[0].StringValue != "3" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].StringValue != "Cam 1" {
		t.Errorf("events[1].StringValue = %q, want Cam 1", events[1].StringValue)
	}
}

func TestWaitForEvents_ExpectationFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusExpectationFailed)
	}))
	defer server.Close()

	s := NewHTTPSession(server.URL, time.Second)
	_, err := s.WaitForEvents(context.Background(), "", 1)
	if !IsExpectationFailed(err) {
		t.Errorf("WaitForEvents() error = %v, want expectation failed", err)
	}
}

func TestWaitForEvents_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewHTTPSession(server.URL, time.Second)
	events, err := s.WaitForEvents(context.Background(), "", 1)
	if err != nil || len(events) != 0 {
		t.Errorf("WaitForEvents() = %v, %v, want empty batch", events, err)
	}
}

func TestWaitForEvents_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	s := NewHTTPSession(url, time.Second)
	_, err := s.WaitForEvents(context.Background(), "", 1)
	if !IsNetworkError(err) {
		t.Errorf("WaitForEvents() error = %v, want network error", err)
	}
}

func TestDeviceInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/browse.json" {
			t.Errorf("path = %s, want /browse.json", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"description":"KUMO 1616","service_description":"AJA"},{"description":"other"}]`))
	}))
	defer server.Close()

	s := NewHTTPSession(server.URL, time.Second)
	info, err := s.DeviceInfo(context.Background(), "")
	if err != nil {
		t.Fatalf("DeviceInfo() error = %v", err)
	}
	if info != "KUMO 1616" {
		t.Errorf("DeviceInfo() = %q, want KUMO 1616", info)
	}
}
