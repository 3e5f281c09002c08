package repo

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

func TestName(t *testing.T) {
	tests := []struct {
		url      string
		expected string
		wantErr  bool
	}{
		{"https://github.com/acme/course-manifests.git", "course-manifests", false},
		{"https://gitlab.com/acme/manifests/", "manifests", false},
		{"git@github.com:acme/manifests.git", "manifests", false},
		{"manifests", "", true},
		{"https://github.com/", "github.com", false},
	}
	for _, tt := range tests {
		got, err := Name(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("Name(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("Name(%q) = %q, expected %q", tt.url, got, tt.expected)
		}
	}
}

func TestAuthMethod(t *testing.T) {
	tests := []struct {
		url      string
		username string
	}{
		{"https://github.com/a/b", "oauth2"},
		{"https://gitlab.com/a/b", "oauth2"},
		{"https://bitbucket.org/a/b", "x-token-auth"},
	}
	for _, tt := range tests {
		auth, err := authMethod(tt.url, "tok", "")
		if err != nil {
			t.Fatalf("authMethod(%q) error = %v", tt.url, err)
		}
		basic, ok := auth.(*http.BasicAuth)
		if !ok {
			t.Fatalf("authMethod(%q) = %T, expected *http.BasicAuth", tt.url, auth)
		}
		if basic.Username != tt.username || basic.Password != "tok" {
			t.Errorf("authMethod(%q) = %s/%s, expected %s/tok", tt.url, basic.Username, basic.Password, tt.username)
		}
	}

	auth, err := authMethod("https://git.example.com/a/b", "tok", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := auth.(*http.TokenAuth); !ok {
		t.Errorf("authMethod(other host) = %T, expected *http.TokenAuth", auth)
	}

	auth, err = authMethod("https://github.com/a/b", "", "")
	if err != nil || auth != nil {
		t.Errorf("authMethod(no credentials) = %v, %v, expected nil, nil", auth, err)
	}

	if _, err := authMethod("git@github.com:a/b", "", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("authMethod(missing key) error = nil, expected error")
	}
}
