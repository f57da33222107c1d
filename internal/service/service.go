// Package service is the boundary-facing conversion service: it validates an
// uploaded batch, drives the assembler, and translates failures into the
// error kinds the HTTP layer reports.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ichStark/byen-tech/internal/config"
	"github.com/ichStark/byen-tech/internal/filetype"
	"github.com/ichStark/byen-tech/internal/geometry"
	"github.com/ichStark/byen-tech/internal/metrics"
	"github.com/ichStark/byen-tech/internal/pdf"
	"github.com/ichStark/byen-tech/internal/pdfcheck"
	"github.com/ichStark/byen-tech/internal/raster"
)

// SuggestedFilename is the download name for finished documents.
const SuggestedFilename = "byentech-merged.pdf"

// RawImage is one uploaded file handed in by the boundary.
type RawImage = pdf.RawImage

// Result is a finished conversion: exactly one document per request.
type Result struct {
	Document []byte
	Filename string
	Pages    int
}

// Service validates batches and produces documents. Stateless across
// requests; safe for concurrent use.
type Service struct {
	cfg       config.ConvertConfig
	detector  *filetype.Detector
	assembler *pdf.Assembler
}

// New wires the conversion pipeline from config.
func New(cfg config.ConvertConfig) *Service {
	decoder := raster.NewDecoder(cfg.DefaultDPI)
	renderer := pdf.NewRenderer(cfg.JPEGQuality)
	return &Service{
		cfg:       cfg,
		detector:  filetype.New(),
		assembler: pdf.NewAssembler(decoder, renderer, cfg.Workers),
	}
}

// Convert validates the batch, assembles the document and returns the result.
// Failures are *ValidationError, *ConversionError or *InternalError; the
// batch either produces a complete document or nothing.
func (s *Service) Convert(ctx context.Context, batch []RawImage, opts geometry.Options) (*Result, error) {
	start := time.Now()

	if err := s.validate(batch); err != nil {
		metrics.ObserveConversion("validation_error", time.Since(start))
		return nil, err
	}
	metrics.ObserveBatchSize(len(batch))

	doc, err := s.assembler.Assemble(ctx, batch, opts)
	if err != nil {
		var pageErr *pdf.PageError
		if errors.As(err, &pageErr) && isDecodeFailure(pageErr.Err) {
			metrics.ObserveConversion("conversion_error", time.Since(start))
			metrics.IncRejected(rejectReason(pageErr.Err))
			return nil, &ConversionError{
				Reason: fmt.Sprintf("failed to convert image: %v", pageErr.Err),
				File:   pageErr.Filename,
				Err:    pageErr,
			}
		}
		log.Error().Err(err).Int("files", len(batch)).Msg("document assembly failed")
		metrics.ObserveConversion("internal_error", time.Since(start))
		return nil, &InternalError{Err: err}
	}

	if s.cfg.ValidateOutput {
		if err := pdfcheck.Validate(doc); err != nil {
			log.Error().Err(err).Msg("produced document failed structural validation")
			metrics.ObserveConversion("internal_error", time.Since(start))
			return nil, &InternalError{Err: err}
		}
	}

	metrics.ObserveConversion("success", time.Since(start))
	metrics.AddPages(len(batch))
	metrics.ObserveDocumentSize(len(doc))
	log.Info().
		Int("pages", len(batch)).
		Int("bytes", len(doc)).
		Dur("took", time.Since(start)).
		Msg("conversion finished")

	return &Result{Document: doc, Filename: SuggestedFilename, Pages: len(batch)}, nil
}

// validate runs the cheap batch checks before any decode: count, per-file
// size, and sniffed content type.
func (s *Service) validate(batch []RawImage) error {
	if len(batch) == 0 {
		return &ValidationError{Reason: "empty file list"}
	}
	if len(batch) > s.cfg.MaxFiles {
		return &ValidationError{Reason: fmt.Sprintf("too many files: %d (max %d)", len(batch), s.cfg.MaxFiles)}
	}

	maxBytes := s.cfg.MaxFileMB << 20
	for _, raw := range batch {
		if maxBytes > 0 && len(raw.Data) > maxBytes {
			metrics.IncRejected("too_large")
			return &ValidationError{
				Reason: fmt.Sprintf("file exceeds %dMB", s.cfg.MaxFileMB),
				File:   raw.Filename,
			}
		}
		if info := s.detector.Detect(raw.Data); !info.Supported {
			metrics.IncRejected("unsupported_type")
			return &ValidationError{
				Reason: fmt.Sprintf("unsupported file type %s", info.MIMEType),
				File:   raw.Filename,
			}
		}
	}
	return nil
}

func isDecodeFailure(err error) bool {
	return errors.Is(err, raster.ErrUnsupportedFormat) ||
		errors.Is(err, raster.ErrCorruptData) ||
		errors.Is(err, raster.ErrImageTooLarge)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, raster.ErrUnsupportedFormat):
		return "unsupported_type"
	case errors.Is(err, raster.ErrImageTooLarge):
		return "too_large"
	default:
		return "corrupt_data"
	}
}
