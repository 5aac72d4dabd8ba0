package server

import (
	"encoding/base64"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forumlab/agora/pkg/media"
)

// maxUploadBytes caps multipart image uploads.
const maxUploadBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if s.deps.Images == nil {
		respondError(w, media.ErrNotConfigured)
		return
	}

	var req imageGenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(w, err)
		return
	}

	start := time.Now()
	result, err := s.deps.Images.Generate(r.Context(), req.Prompt)
	s.deps.Metrics.RecordAIRequest(r.Context(), "image_generate", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, imageResponse{
		B64JSON:       base64.StdEncoding.EncodeToString(result.Data),
		MIMEType:      result.MIMEType,
		RevisedPrompt: req.Prompt,
	})
}

func (s *Server) handleEditImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if s.deps.Images == nil {
		respondError(w, media.ErrNotConfigured)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, err)
		return
	}

	prompt := r.FormValue("prompt")
	if err := checkLength("prompt", prompt, 1, 2000); err != nil {
		badRequest(w, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequest(w, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		writeError(w, http.StatusBadRequest, "validation_error",
			"invalid image format, supported: JPEG, PNG, WEBP")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, err)
		return
	}

	start := time.Now()
	result, err := s.deps.Images.Edit(r.Context(), prompt, data, contentType)
	s.deps.Metrics.RecordAIRequest(r.Context(), "image_edit", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, imageResponse{
		B64JSON:       base64.StdEncoding.EncodeToString(result.Data),
		MIMEType:      result.MIMEType,
		RevisedPrompt: prompt,
	})
}

func (s *Server) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if s.deps.Videos == nil {
		respondError(w, media.ErrNotConfigured)
		return
	}

	var req videoGenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(w, err)
		return
	}

	opts := req.Config.options()
	if err := opts.Validate(); err != nil {
		badRequest(w, err)
		return
	}

	start := time.Now()
	opID, err := s.deps.Videos.Generate(r.Context(), req.Prompt, opts)
	s.deps.Metrics.RecordAIRequest(r.Context(), "video_generate", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, videoGenerateResponse{
		OperationID: opID,
		Status:      media.StatusProcessing,
	})
}

func (s *Server) handleGenerateVideoFromImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if s.deps.Videos == nil {
		respondError(w, media.ErrNotConfigured)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, err)
		return
	}

	prompt := r.FormValue("prompt")
	if err := checkLength("prompt", prompt, 1, 2000); err != nil {
		badRequest(w, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequest(w, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		writeError(w, http.StatusBadRequest, "validation_error",
			"invalid image format, supported: JPEG, PNG, WEBP")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, err)
		return
	}

	start := time.Now()
	opID, err := s.deps.Videos.GenerateFromImage(r.Context(), prompt, data, contentType, media.DefaultVideoOptions())
	s.deps.Metrics.RecordAIRequest(r.Context(), "video_from_image", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, videoGenerateResponse{
		OperationID: opID,
		Status:      media.StatusProcessing,
	})
}

func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if s.deps.Videos == nil {
		respondError(w, media.ErrNotConfigured)
		return
	}

	status, err := s.deps.Videos.Status(r.Context(), chi.URLParam(r, "operationID"))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := videoStatusResponse{
		OperationID: status.ID,
		Done:        status.Done,
		Status:      status.Status,
		MIMEType:    status.MIMEType,
		Error:       status.Error,
	}
	if len(status.Video) > 0 {
		resp.VideoB64 = base64.StdEncoding.EncodeToString(status.Video)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateMusic(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if s.deps.Music == nil {
		respondError(w, media.ErrNotConfigured)
		return
	}

	var req musicGenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := media.ValidatePrompts(req.Prompts); err != nil {
		badRequest(w, err)
		return
	}
	opts := req.Config.options()
	if err := opts.Validate(); err != nil {
		badRequest(w, err)
		return
	}

	duration := s.cfg.Media.MusicDuration
	if req.DurationSeconds != 0 {
		duration = time.Duration(req.DurationSeconds) * time.Second
		if err := media.ValidateMusicDuration(duration); err != nil {
			badRequest(w, err)
			return
		}
	}

	start := time.Now()
	result, err := s.deps.Music.Generate(r.Context(), req.Prompts, opts, duration)
	s.deps.Metrics.RecordAIRequest(r.Context(), "music_generate", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}
	writeMusicResponse(w, result)
}

func (s *Server) handleGenerateMusicSimple(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if s.deps.Music == nil {
		respondError(w, media.ErrNotConfigured)
		return
	}

	var req musicSimpleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	opts := media.DefaultMusicOptions()
	if req.BPM != 0 {
		opts.BPM = req.BPM
	}
	if err := opts.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	duration := s.cfg.Media.MusicDuration
	if req.DurationSeconds != 0 {
		duration = time.Duration(req.DurationSeconds) * time.Second
		if err := media.ValidateMusicDuration(duration); err != nil {
			badRequest(w, err)
			return
		}
	}

	prompts := []media.WeightedPrompt{{Text: req.Prompt, Weight: 1.0}}
	if err := media.ValidatePrompts(prompts); err != nil {
		badRequest(w, err)
		return
	}

	start := time.Now()
	result, err := s.deps.Music.Generate(r.Context(), prompts, opts, duration)
	s.deps.Metrics.RecordAIRequest(r.Context(), "music_generate", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}
	writeMusicResponse(w, result)
}

func writeMusicResponse(w http.ResponseWriter, result *media.MusicResult) {
	writeJSON(w, http.StatusOK, musicResponse{
		AudioB64:        base64.StdEncoding.EncodeToString(result.Audio),
		SampleRateHz:    result.SampleRateHz,
		Channels:        result.Channels,
		BitDepth:        result.BitDepth,
		DurationSeconds: result.DurationSeconds,
		PromptsUsed:     result.Prompts,
	})
}
