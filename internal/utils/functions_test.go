package utils

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
	}
	for _, test := range tests {
		if result := FormatBytes(test.input); result != test.expected {
			t.Errorf("FormatBytes(%d) = %s, expected %s", test.input, result, test.expected)
		}
	}
}

func TestPartPath(t *testing.T) {
	result := PartPath(filepath.Join("a", "b", "clip.mp4"))
	expected := filepath.Join("a", "b", TempDirName, "clip.mp4.part")
	if result != expected {
		t.Errorf("PartPath() = %s, expected %s", result, expected)
	}
}

func TestChunkPath(t *testing.T) {
	result := ChunkPath(filepath.Join("a", "clip.mp4"), 3)
	expected := filepath.Join("a", TempDirName, "clip.mp4.part3")
	if result != expected {
		t.Errorf("ChunkPath() = %s, expected %s", result, expected)
	}
}

func TestParseHeaderArgs(t *testing.T) {
	headers := ParseHeaderArgs([]string{"X-Token: abc", "broken", "Accept : video/mp4"})
	if len(headers) != 2 || headers["X-Token"] != "abc" || headers["Accept"] != "video/mp4" {
		t.Errorf("ParseHeaderArgs() = %v", headers)
	}
}

func TestClean(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"c1/b1", "c1/b2"} {
		temp := filepath.Join(root, dir, TempDirName)
		if err := os.MkdirAll(temp, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(temp, "x.mp4.part"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	n, err := Clean(root)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Clean() = %d, expected 2", n)
	}
	if _, err := os.Stat(filepath.Join(root, "c1/b1", TempDirName)); !os.IsNotExist(err) {
		t.Error("Expected temp dir to be removed")
	}
}

func TestHTTPClient_BearerAndHeaders(t *testing.T) {
	var auth, agent, custom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		agent = r.Header.Get("User-Agent")
		custom = r.Header.Get("X-Course")
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPClientConfig{
		AccessToken: "secret",
		Headers:     map[string]string{"X-Course": "demo"},
	})
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()

	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q, expected bearer token", auth)
	}
	if agent != ToolUserAgent {
		t.Errorf("User-Agent = %q, expected %q", agent, ToolUserAgent)
	}
	if custom != "demo" {
		t.Errorf("X-Course = %q, expected demo", custom)
	}
}
