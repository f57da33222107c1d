// Package web is the thin HTTP boundary: multipart parsing, CORS and error
// translation. All conversion decisions live in the service.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ichStark/byen-tech/internal/config"
	"github.com/ichStark/byen-tech/internal/filetype"
	"github.com/ichStark/byen-tech/internal/limiter"
	"github.com/ichStark/byen-tech/internal/metrics"
	"github.com/ichStark/byen-tech/internal/service"
)

// Web serves the upload API.
type Web struct {
	svc            *service.Service
	lim            *limiter.Limiter
	maxUploadBytes int64
	allowedOrigins []string
}

// New creates the boundary from config.
func New(svc *service.Service, cfg config.ServerConfig) *Web {
	return &Web{
		svc:            svc,
		lim:            limiter.New(cfg.MaxConcurrent),
		maxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		allowedOrigins: cfg.AllowedOrigins,
	}
}

// RegisterRoutes attaches handlers to the mux.
func (w *Web) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", w.handleHealth)
	mux.HandleFunc("/convert", w.handleConvert)
}

func (w *Web) handleHealth(wr http.ResponseWriter, r *http.Request) {
	writeJSON(wr, http.StatusOK, map[string]string{"status": "ok"})
}

func (w *Web) handleConvert(wr http.ResponseWriter, r *http.Request) {
	w.applyCORS(wr, r)

	switch r.Method {
	case http.MethodOptions:
		writeJSON(wr, http.StatusOK, map[string]bool{"ok": true})
		return
	case http.MethodPost:
	default:
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	release, ok := w.lim.Allow()
	if !ok {
		metrics.ObserveConversion("busy", 0)
		writeError(wr, http.StatusServiceUnavailable, "server busy, try again shortly")
		return
	}
	defer release()
	metrics.IncInflight()
	defer metrics.DecInflight()

	reqID := uuid.NewString()
	reqLog := log.With().Str("request_id", reqID).Logger()

	r.Body = http.MaxBytesReader(wr, r.Body, w.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		reqLog.Warn().Err(err).Msg("invalid multipart upload")
		writeError(wr, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	headers := r.MultipartForm.File["files"]
	if headers == nil {
		writeError(wr, http.StatusBadRequest, "No files provided")
		return
	}
	if len(headers) == 0 {
		writeError(wr, http.StatusBadRequest, "Empty file list")
		return
	}

	batch := make([]service.RawImage, 0, len(headers))
	for _, hdr := range headers {
		if !filetype.AllowedFilename(hdr.Filename) {
			writeError(wr, http.StatusBadRequest, fmt.Sprintf("File type not allowed: %s", hdr.Filename))
			return
		}
		f, err := hdr.Open()
		if err != nil {
			writeError(wr, http.StatusBadRequest, fmt.Sprintf("cannot read upload: %s", hdr.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(wr, http.StatusBadRequest, fmt.Sprintf("cannot read upload: %s", hdr.Filename))
			return
		}
		batch = append(batch, service.RawImage{
			Filename:     hdr.Filename,
			Data:         data,
			DeclaredMIME: hdr.Header.Get("Content-Type"),
		})
	}

	opts, err := service.ParseOptions(r.FormValue("orientation"), r.FormValue("fit"), r.FormValue("margin"))
	if err != nil {
		reqLog.Warn().Err(err).Msg("rejected options")
		writeError(wr, http.StatusBadRequest, err.Error())
		return
	}

	reqLog.Info().Int("files", len(batch)).Interface("options", opts).Msg("conversion request")

	res, err := w.svc.Convert(r.Context(), batch, opts)
	if err != nil {
		var valErr *service.ValidationError
		var convErr *service.ConversionError
		switch {
		case errors.As(err, &valErr):
			reqLog.Warn().Err(err).Msg("validation failed")
			writeError(wr, http.StatusBadRequest, valErr.Error())
		case errors.As(err, &convErr):
			reqLog.Warn().Err(err).Str("file", convErr.File).Msg("conversion failed")
			writeError(wr, http.StatusInternalServerError, fmt.Sprintf("Failed to convert images: %s", convErr.File))
		default:
			reqLog.Error().Err(err).Msg("conversion failed unexpectedly")
			writeError(wr, http.StatusInternalServerError, "Failed to convert images")
		}
		return
	}

	wr.Header().Set("Content-Type", "application/pdf")
	wr.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	wr.Header().Set("Content-Length", strconv.Itoa(len(res.Document)))
	wr.WriteHeader(http.StatusOK)
	if _, err := wr.Write(res.Document); err != nil {
		reqLog.Warn().Err(err).Msg("client went away during download")
	}
}

// applyCORS mirrors the original deployment: an explicit ALLOWED_ORIGINS list
// is enforced, otherwise any origin is accepted.
func (w *Web) applyCORS(wr http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := "*"
	if len(w.allowedOrigins) > 0 {
		allowed = ""
		for _, o := range w.allowedOrigins {
			if o == origin {
				allowed = origin
				break
			}
		}
		if allowed == "" {
			return
		}
		wr.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	wr.Header().Set("Access-Control-Allow-Origin", allowed)
	wr.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	wr.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(wr http.ResponseWriter, status int, body any) {
	wr.Header().Set("Content-Type", "application/json")
	wr.WriteHeader(status)
	_ = json.NewEncoder(wr).Encode(body)
}

func writeError(wr http.ResponseWriter, status int, msg string) {
	writeJSON(wr, status, map[string]string{"error": msg})
}
