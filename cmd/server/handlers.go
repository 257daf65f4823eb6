package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/himanishpuri/chromadna/pkg/chromadna"
	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
	"github.com/himanishpuri/chromadna/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service   chromadna.Service
	config    *ServerConfig
	log       *logger.Logger
	startedAt time.Time
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	AllowedOrigins []string
	LogRequests    bool
}

// NewServer creates a new server instance
func NewServer(service chromadna.Service, config *ServerConfig) *Server {
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	return &Server{
		service:   service,
		config:    config,
		log:       logger.GetLogger().With("[http]"),
		startedAt: time.Now(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chromadna.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, fingerprint.ErrFormat),
		errors.Is(err, fingerprint.ErrLength),
		errors.Is(err, chromadna.ErrMissingTitle),
		errors.Is(err, chromadna.ErrEmptyFingerprint):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs err and writes it with the status from statusFor.
func (s *Server) respondServiceError(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorf("Failed to %s: %v", action, err)
	} else {
		s.log.Debugf("Rejected %s: %v", action, err)
	}
	s.respondError(w, status, fmt.Sprintf("Failed to %s: %v", action, err))
}

// decodeJSON reads a bounded JSON body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
		return false
	}
	return true
}

// saveUpload stores the "audio" form file in the temp dir and returns its
// path. The caller removes it.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.log.Warnf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return "", false
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return "", false
	}
	defer file.Close()

	out, err := os.CreateTemp(s.config.TempDir, prefix+"_*"+filepath.Ext(header.Filename))
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return "", false
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(out.Name())
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return "", false
	}
	return out.Name(), true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "chromadna API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":      "GET /health",
			"metrics":     "GET /api/health/metrics",
			"tracks":      "GET /api/tracks",
			"addTrack":    "POST /api/tracks",
			"getTrack":    "GET /api/tracks/{id}",
			"deleteTrack": "DELETE /api/tracks/{id}",
			"match":       "POST /api/match",
			"matchFile":   "POST /api/match/file",
			"compare":     "POST /api/compare",
			"decode":      "POST /api/decode",
			"encode":      "POST /api/encode",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats()
	if err != nil {
		s.log.Errorf("Failed to get stats: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:         "healthy",
		DatabasePath:   s.config.DBPath,
		TrackCount:     stats.Tracks,
		AlignHashCount: stats.AlignHashes,
		CachedTracks:   stats.CachedTracks,
		Threshold:      stats.Threshold,
		UptimeSec:      time.Since(s.startedAt).Seconds(),
	})
}

// handleListTracks handles GET /api/tracks
func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.service.ListTracks()
	if err != nil {
		s.log.Errorf("Failed to list tracks: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve tracks")
		return
	}

	dtos := make([]TrackDTO, len(tracks))
	for i, t := range tracks {
		dtos[i] = toTrackDTO(t, false)
	}
	s.respondJSON(w, http.StatusOK, ListTracksResponse{Tracks: dtos, Count: len(dtos)})
}

// handleGetTrack handles GET /api/tracks/{id}
func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	track, err := s.service.GetTrack(chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, "get track", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toTrackDTO(*track, true))
}

// handleDeleteTrack handles DELETE /api/tracks/{id}
func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.DeleteTrack(id); err != nil {
		s.respondServiceError(w, "delete track", err)
		return
	}
	s.respondJSON(w, http.StatusOK, DeleteTrackResponse{Message: "Track deleted successfully", ID: id})
}

// handleAddTrack handles POST /api/tracks. A JSON body registers a
// fingerprint; a multipart body with an "audio" file is fingerprinted first.
func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var id string
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		path, ok := s.saveUpload(w, r, "upload")
		if !ok {
			return
		}
		defer os.Remove(path)

		title, artist := r.FormValue("title"), r.FormValue("artist")
		s.log.Infof("Adding track from upload: %q by %q", title, artist)
		id, err = s.service.AddFile(ctx, path, title, artist)
	} else {
		var req AddTrackRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		if err := req.Validate(); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		id, err = s.service.AddTrack(ctx, req.Title, req.Artist, req.Fingerprint, req.DurationSec)
	}
	if err != nil {
		s.respondServiceError(w, "add track", err)
		return
	}

	track, err := s.service.GetTrack(id)
	if err != nil {
		s.respondServiceError(w, "get track", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, AddTrackResponse{
		Message: "Track added successfully",
		Track:   toTrackDTO(*track, false),
	})
}

// handleMatch handles POST /api/match
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req MatchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := s.service.Match(ctx, req.Fingerprint)
	if err != nil {
		s.respondServiceError(w, "match fingerprint", err)
		return
	}
	s.respondJSON(w, http.StatusOK, MatchResponse{Matches: matches, Count: len(matches)})
}

// handleMatchFile handles POST /api/match/file
func (s *Server) handleMatchFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	path, ok := s.saveUpload(w, r, "query")
	if !ok {
		return
	}
	defer os.Remove(path)

	matches, err := s.service.MatchFile(ctx, path)
	if err != nil {
		s.respondServiceError(w, "match file", err)
		return
	}
	s.log.Infof("Match complete: found %d matches", len(matches))
	s.respondJSON(w, http.StatusOK, MatchResponse{Matches: matches, Count: len(matches)})
}

// handleCompare handles POST /api/compare
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var result *fingerprint.MatchResult
	var err error
	if req.Threshold > 0 {
		result, err = compareWithThreshold(req.Fingerprint1, req.Fingerprint2, req.Threshold)
	} else {
		result, err = s.service.Compare(req.Fingerprint1, req.Fingerprint2)
	}
	if err != nil {
		s.respondServiceError(w, "compare fingerprints", err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func compareWithThreshold(encoded1, encoded2 string, threshold float64) (*fingerprint.MatchResult, error) {
	fp1, err := fingerprint.Decode(encoded1)
	if err != nil {
		return nil, fmt.Errorf("invalid fingerprint 1: %w", err)
	}
	fp2, err := fingerprint.Decode(encoded2)
	if err != nil {
		return nil, fmt.Errorf("invalid fingerprint 2: %w", err)
	}
	return fingerprint.Match(threshold, fp1.Raw, fp2.Raw)
}

// handleDecode handles POST /api/decode
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	fp, err := fingerprint.Decode(req.Fingerprint)
	if err != nil {
		s.respondServiceError(w, "decode fingerprint", err)
		return
	}
	s.respondJSON(w, http.StatusOK, DecodeResponse{Algorithm: fp.Algorithm, Raw: fp.Raw, Count: fp.Len()})
}

// handleEncode handles POST /api/encode
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	encoded, err := fingerprint.Encode(req.Raw, req.Algorithm)
	if err != nil {
		s.respondServiceError(w, "encode fingerprint", err)
		return
	}
	s.respondJSON(w, http.StatusOK, EncodeResponse{Fingerprint: encoded})
}
