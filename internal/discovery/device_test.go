package discovery

import "testing"

func TestRouter_String(t *testing.T) {
	router := &Router{
		Instance: "1604 Studio A",
		Hostname: "kumo-a.local.",
		IP:       "192.168.1.50",
		Port:     80,
	}

	want := "KUMO 1604 Studio A (kumo-a.local.) at 192.168.1.50"
	if got := router.String(); got != want {
		t.Errorf("Router.String() = %v, want %v", got, want)
	}
}

func TestRouter_Address(t *testing.T) {
	tests := []struct {
		name    string
		router  *Router
		want    string
		wantURL string
	}{
		{"default port", &Router{IP: "192.168.1.50", Port: 80}, "192.168.1.50", "http://192.168.1.50"},
		{"no port", &Router{IP: "192.168.1.50"}, "192.168.1.50", "http://192.168.1.50"},
		{"custom port", &Router{IP: "10.0.0.5", Port: 8080}, "10.0.0.5:8080", "http://10.0.0.5:8080"},
		{"IPv6", &Router{IP: "fe80::1", Port: 80}, "[fe80::1]", "http://[fe80::1]"},
		{"IPv6 custom port", &Router{IP: "fe80::1", Port: 8080}, "[fe80::1]:8080", "http://[fe80::1]:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.router.Address(); got != tt.want {
				t.Errorf("Router.Address() = %v, want %v", got, tt.want)
			}
			if got := tt.router.BaseURL(); got != tt.wantURL {
				t.Errorf("Router.BaseURL() = %v, want %v", got, tt.wantURL)
			}
		})
	}
}

func TestRouter_GetMetadata(t *testing.T) {
	router := &Router{Metadata: map[string]string{"path": "/"}}

	if got := router.GetMetadata("path"); got != "/" {
		t.Errorf("GetMetadata(path) = %v, want /", got)
	}
	if got := router.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %v, want empty string", got)
	}

	empty := &Router{}
	if got := empty.GetMetadata("anything"); got != "" {
		t.Errorf("GetMetadata() with nil map = %v, want empty string", got)
	}
}
