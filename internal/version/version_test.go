package version

import "testing"

func TestInfoString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"version only", Info{Version: "v1.2.0"}, "v1.2.0"},
		{"short commit kept", Info{Version: "v1.2.0", Commit: "abc123"}, "v1.2.0 (abc123)"},
		{"long commit shortened", Info{Version: "devel", Commit: "0123456789abcdef0123"}, "devel (0123456789ab)"},
		{"modified tree", Info{Version: "devel", Commit: "abc123", Modified: true}, "devel (abc123+dirty)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.info.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveNeverEmpty(t *testing.T) {
	t.Parallel()
	if Resolve().Version == "" {
		t.Fatal("Resolve returned an empty version")
	}
}
