package groups

import "testing"

func TestEventsURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"127.0.0.1:8420", "ws://127.0.0.1:8420/api/groups/g1/events"},
		{"localhost:8420", "ws://localhost:8420/api/groups/g1/events"},
		{"http://example.com", "ws://example.com/api/groups/g1/events"},
		{"https://example.com:8443/", "wss://example.com:8443/api/groups/g1/events"},
	}
	for _, tt := range tests {
		if got := EventsURL(tt.addr, "g1"); got != tt.want {
			t.Errorf("EventsURL(%q) = %s, want %s", tt.addr, got, tt.want)
		}
	}
}
