package startup

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		envValue     string
		defaultValue bool
		want         bool
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_BOOL_UNSET",
			defaultValue: true,
			want:         true,
			setEnv:       false,
		},
		{
			name:         "Returns default false when env var not set",
			key:          "TEST_BOOL_UNSET2",
			defaultValue: false,
			want:         false,
			setEnv:       false,
		},
		{
			name:         "Returns true when env var is 'true'",
			key:          "TEST_BOOL_TRUE",
			envValue:     "true",
			defaultValue: false,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns false when env var is 'false'",
			key:          "TEST_BOOL_FALSE",
			envValue:     "false",
			defaultValue: true,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns true when env var is '1'",
			key:          "TEST_BOOL_ONE",
			envValue:     "1",
			defaultValue: false,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns false when env var is '0'",
			key:          "TEST_BOOL_ZERO",
			envValue:     "0",
			defaultValue: true,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns default on invalid value",
			key:          "TEST_BOOL_INVALID",
			envValue:     "banana",
			defaultValue: true,
			want:         true,
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
				t.Cleanup(func() {
					os.Unsetenv(tt.key)
				})
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		envValue     string
		defaultValue int
		want         int
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_INT_UNSET",
			defaultValue: 7,
			want:         7,
			setEnv:       false,
		},
		{
			name:         "Returns parsed value",
			key:          "TEST_INT_SET",
			envValue:     "42",
			defaultValue: 7,
			want:         42,
			setEnv:       true,
		},
		{
			name:         "Returns negative parsed value",
			key:          "TEST_INT_NEG",
			envValue:     "-3",
			defaultValue: 7,
			want:         -3,
			setEnv:       true,
		},
		{
			name:         "Returns default on invalid value",
			key:          "TEST_INT_INVALID",
			envValue:     "three",
			defaultValue: 7,
			want:         7,
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
				t.Cleanup(func() {
					os.Unsetenv(tt.key)
				})
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt(%q, %d) = %d, want %d", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_DUR_UNSET",
			defaultValue: time.Minute,
			want:         time.Minute,
			setEnv:       false,
		},
		{
			name:         "Returns parsed duration",
			key:          "TEST_DUR_SET",
			envValue:     "500ms",
			defaultValue: time.Minute,
			want:         500 * time.Millisecond,
			setEnv:       true,
		},
		{
			name:         "Returns default on invalid duration",
			key:          "TEST_DUR_INVALID",
			envValue:     "soon",
			defaultValue: time.Minute,
			want:         time.Minute,
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
				t.Cleanup(func() {
					os.Unsetenv(tt.key)
				})
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration(%q, %s) = %s, want %s", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestEnabledString(t *testing.T) {
	if got := enabledString(true); got != "ENABLED" {
		t.Errorf("enabledString(true) = %q, want ENABLED", got)
	}
	if got := enabledString(false); got != "DISABLED" {
		t.Errorf("enabledString(false) = %q, want DISABLED", got)
	}
}

func TestValueOrUnset(t *testing.T) {
	if got := valueOrUnset(""); got != "(unset)" {
		t.Errorf("valueOrUnset(\"\") = %q, want (unset)", got)
	}
	if got := valueOrUnset("x"); got != "x" {
		t.Errorf("valueOrUnset(\"x\") = %q, want x", got)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "(unset)" {
		t.Errorf("maskSecret(\"\") = %q, want (unset)", got)
	}
	if got := maskSecret("hunter2"); got != "(set)" {
		t.Errorf("maskSecret should never echo the secret, got %q", got)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "healthz"},
		{"/api/playlists", "api/playlists"},
		{"/api/playlists/{id}/next", "api/playlists"},
		{"/api/stream/remote/{id}", "api/stream"},
		{"/metrics", "metrics"},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", noop).Methods("GET")
	router.HandleFunc("/api/playlists", noop).Methods("POST")
	router.HandleFunc("/api/playlists/{id}", noop).Methods("GET", "DELETE")

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}

	// GET+DELETE expands to two entries
	if len(routes) != 4 {
		t.Fatalf("Expected 4 route entries, got %d", len(routes))
	}

	found := make(map[string]bool)
	for _, route := range routes {
		found[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /api/playlists",
		"GET /api/playlists/{id}",
		"DELETE /api/playlists/{id}",
	} {
		if !found[want] {
			t.Errorf("Expected route %q to be reported", want)
		}
	}
}
