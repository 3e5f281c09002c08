package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tanq16/coursekeep/internal/config"
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/downloads"
)

func testContext(t *testing.T, c *course.Course) *Context {
	t.Helper()
	cfg := &config.Config{DownloadDir: t.TempDir(), Workers: 1, Connections: 1, Timeout: 5 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a, err := New(ctx, cfg, c)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	go a.Loop.Run(ctx)
	return a
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video"))
	}))
	defer server.Close()
	c := &course.Course{ID: "c1", Sections: []*course.Block{
		{ID: "b1", Videos: []*course.Video{{ID: "v1", URL: server.URL + "/v1.mp4", FileName: "v1.mp4"}}},
		{ID: "b2", Videos: []*course.Video{{ID: "v2", URL: server.URL + "/v2.mp4", FileName: "v2.mp4"}}},
	}}
	a := testContext(t, c)

	err := a.Download(context.Background(), "b1", "nope")
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("Download(unknown) error = %v, expected unknown section", err)
	}

	if err := a.Download(context.Background()); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	a.Wait()
	var states []downloads.State
	a.Loop.Call(context.Background(), func() error {
		for _, b := range a.Course.Sections {
			states = append(states, b.Videos[0].DownloadState())
		}
		return nil
	})
	for i, s := range states {
		if s != downloads.Complete {
			t.Errorf("video %d state = %v, expected %v", i, s, downloads.Complete)
		}
	}
}

func TestDownload_RepeatedTapsFetchOnce(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			return
		}
		hits.Add(1)
		<-release
		w.Write([]byte("video"))
	}))
	defer server.Close()
	c := &course.Course{ID: "c1", Sections: []*course.Block{
		{ID: "b1", Videos: []*course.Video{{ID: "v1", URL: server.URL + "/v1.mp4", FileName: "v1.mp4"}}},
	}}
	a := testContext(t, c)
	unblock := sync.OnceFunc(func() { close(release) })
	defer unblock()

	tests := [][]string{{"b1"}, {"b1"}, {"b1", "b1"}}
	for _, ids := range tests {
		if err := a.Download(context.Background(), ids...); err != nil {
			t.Fatalf("Download(%v) error = %v", ids, err)
		}
	}
	unblock()
	a.Wait()

	if got := hits.Load(); got != 1 {
		t.Errorf("GET requests = %d, expected 1", got)
	}
	var state downloads.State
	a.Loop.Call(context.Background(), func() error {
		state = c.Sections[0].Videos[0].DownloadState()
		return nil
	})
	if state != downloads.Complete {
		t.Errorf("video state = %v, expected %v", state, downloads.Complete)
	}
}

func TestReload(t *testing.T) {
	c := &course.Course{ID: "c1", Sections: []*course.Block{{ID: "b1"}, {ID: "b2"}}}
	a := testContext(t, c)
	next := &course.Course{ID: "c1", Sections: []*course.Block{
		{ID: "b3", Videos: []*course.Video{{ID: "v", URL: "https://x/v.mp4", FileName: "v.mp4"}}},
	}}
	if err := a.Reload(context.Background(), next); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	var ids []string
	a.Loop.Call(context.Background(), func() error {
		for _, s := range a.Outline.Sections() {
			ids = append(ids, s.ID)
		}
		return nil
	})
	if len(ids) != 1 || ids[0] != "b3" {
		t.Errorf("sections after Reload() = %v, expected [b3]", ids)
	}
	if err := a.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
