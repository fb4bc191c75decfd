package keepalive

import (
	"encoding/json"
	"net/http"

	"jukebox/internal/log"
	"jukebox/internal/pretty"
	"jukebox/pkg/catalog"
)

const dateFormat = "02/01/2006 15:04"

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  bool   `json:"uptime"`
}

type apiStatusResponse struct {
	BotOnline       bool `json:"bot_online"`
	VoiceConnected  bool `json:"voice_connected"`
	AudioPlaying    bool `json:"audio_playing"`
	MusicCount      int  `json:"music_count"`
	FFmpegAvailable bool `json:"ffmpeg_available"`
	DiscordToken    bool `json:"discord_token"`
}

type musicFile struct {
	Name string `json:"name"`
	Size string `json:"size"`
	Date string `json:"date"`
}

type apiMusicResponse struct {
	Files []musicFile `json:"files"`
	Count int         `json:"count"`
}

type healthResponse struct {
	Status       string `json:"status"`
	MusicFolder  bool   `json:"music_folder"`
	FFmpeg       bool   `json:"ffmpeg"`
	DiscordToken bool   `json:"discord_token"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write json response")
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, "home.html", struct{ Prefix string }{s.opts.Prefix})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, "dashboard.html", nil)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "online",
		Service: "discord-music-bot",
		Uptime:  true,
	})
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	resp := apiStatusResponse{
		BotOnline:       s.opts.Online(),
		MusicCount:      s.opts.Catalog.Count(),
		FFmpegAvailable: s.opts.FFmpeg(r.Context()),
		DiscordToken:    s.opts.TokenConfigured,
	}
	if s.opts.Voice != nil {
		snap := s.opts.Voice.Snapshot()
		resp.VoiceConnected = snap.Connected()
		resp.AudioPlaying = snap.Playing()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIMusic(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, musicList(s.opts.Catalog.List()))
}

func musicList(files []catalog.AudioFile) apiMusicResponse {
	resp := apiMusicResponse{Files: make([]musicFile, 0, len(files)), Count: len(files)}
	for _, f := range files {
		resp.Files = append(resp.Files, musicFile{
			Name: f.Name,
			Size: pretty.Size(f.Size),
			Date: f.ModTime.Format(dateFormat),
		})
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "healthy",
		MusicFolder:  s.opts.Catalog.Exists(),
		FFmpeg:       s.opts.FFmpeg(r.Context()),
		DiscordToken: s.opts.TokenConfigured,
	})
}
