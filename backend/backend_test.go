package backend

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://example.test", false},
		{"http://localhost:8080/base/", false},
		{"not a url", true},
		{"", true},
		{"/api/package", true},
		{"example.test", true},
		{"https://exa mple.test", true},
		{"://missing-scheme", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := New(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidURL) {
				t.Errorf("New(%q) error = %v, want ErrInvalidURL", tt.input, err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	b, err := New("https://example.test")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/api/package", "https://example.test/api/package"},
		{"/api/package/versions", "https://example.test/api/package/versions"},
		{"api/vulnerability", "https://example.test/api/vulnerability"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := b.Resolve(tt.path)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.path, err)
			}
			if got.String() != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got.String(), tt.want)
			}
		})
	}

	if _, err := b.Resolve("/api/%zz"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Resolve(bad escape) error = %v, want ErrInvalidURL", err)
	}
}

func TestURLIsCopy(t *testing.T) {
	b, err := New("https://example.test")
	if err != nil {
		t.Fatal(err)
	}
	u := b.URL()
	u.Host = "other.test"
	if b.String() != "https://example.test" {
		t.Errorf("backend mutated through URL(): %s", b.String())
	}
}
