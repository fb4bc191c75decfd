package keepalive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jukebox/pkg/catalog"
	"jukebox/pkg/voice"
)

type fakeVoice struct {
	snap voice.Snapshot
}

func (f fakeVoice) Snapshot() voice.Snapshot { return f.snap }

func writeFile(t *testing.T, dir, name string, size int, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func get(t *testing.T, s *Server, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("%s: status %d", path, rec.Code)
	}
	if v != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
			t.Fatalf("%s: %v", path, err)
		}
	}
	return rec
}

func TestStatus(t *testing.T) {
	s := New(Options{Catalog: catalog.New(t.TempDir())})

	var resp statusResponse
	get(t, s, "/status", &resp)
	if resp != (statusResponse{Status: "online", Service: "discord-music-bot", Uptime: true}) {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestAPIStatus(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3", 10, time.Now())
	writeFile(t, dir, "notes.txt", 10, time.Now())

	s := New(Options{
		Catalog: catalog.New(dir),
		Voice: fakeVoice{voice.Snapshot{Sessions: []voice.SessionStatus{
			{GID: 1, Channel: 10, State: voice.ConnectedPlaying, File: "a.mp3"},
		}}},
		Online:          func() bool { return true },
		FFmpeg:          func(context.Context) bool { return true },
		TokenConfigured: true,
	})

	var resp apiStatusResponse
	get(t, s, "/api/status", &resp)
	want := apiStatusResponse{
		BotOnline:       true,
		VoiceConnected:  true,
		AudioPlaying:    true,
		MusicCount:      1,
		FFmpegAvailable: true,
		DiscordToken:    true,
	}
	if resp != want {
		t.Errorf("got %+v, want %+v", resp, want)
	}
}

func TestAPIStatusWithoutBot(t *testing.T) {
	s := New(Options{Catalog: catalog.New(filepath.Join(t.TempDir(), "missing"))})

	var resp apiStatusResponse
	get(t, s, "/api/status", &resp)
	if resp != (apiStatusResponse{}) {
		t.Errorf("expected everything to be false, got %+v", resp)
	}
}

func TestAPIMusic(t *testing.T) {
	dir := t.TempDir()
	mod := time.Date(2024, 3, 5, 14, 7, 0, 0, time.Local)
	writeFile(t, dir, "b.mp3", 512, mod)
	writeFile(t, dir, "A.mp3", 3*1024*1024/2, mod)
	writeFile(t, dir, "c.mp3", 2048, mod)

	s := New(Options{Catalog: catalog.New(dir)})

	var resp apiMusicResponse
	get(t, s, "/api/music", &resp)
	want := []musicFile{
		{Name: "A.mp3", Size: "1.5 MB", Date: "05/03/2024 14:07"},
		{Name: "b.mp3", Size: "512 B", Date: "05/03/2024 14:07"},
		{Name: "c.mp3", Size: "2.0 KB", Date: "05/03/2024 14:07"},
	}
	if resp.Count != 3 || len(resp.Files) != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
	for i := range want {
		if resp.Files[i] != want[i] {
			t.Errorf("file %d = %+v, want %+v", i, resp.Files[i], want[i])
		}
	}
}

func TestAPIMusicEmpty(t *testing.T) {
	s := New(Options{Catalog: catalog.New(filepath.Join(t.TempDir(), "missing"))})

	rec := get(t, s, "/api/music", nil)
	if body := strings.TrimSpace(rec.Body.String()); body != `{"files":[],"count":0}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestHealth(t *testing.T) {
	s := New(Options{
		Catalog: catalog.New(t.TempDir()),
		FFmpeg:  func(context.Context) bool { return false },
	})

	var resp healthResponse
	get(t, s, "/health", &resp)
	if resp != (healthResponse{Status: "healthy", MusicFolder: true}) {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestPages(t *testing.T) {
	s := New(Options{Catalog: catalog.New(t.TempDir()), Prefix: "?"})

	rec := get(t, s, "/", nil)
	if !strings.Contains(rec.Body.String(), "?play &lt;file&gt;") {
		t.Error("home page should list the commands with the prefix")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %s", ct)
	}

	rec = get(t, s, "/dashboard", nil)
	if !strings.Contains(rec.Body.String(), "/api/status") {
		t.Error("dashboard should poll the status api")
	}
}

func TestNotFound(t *testing.T) {
	s := New(Options{Catalog: catalog.New(t.TempDir())})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(Options{Catalog: catalog.New(t.TempDir())})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("unexpected error %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
