// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pdiddy/zconvert/internal/archive"
	"github.com/pdiddy/zconvert/internal/convert"
	"github.com/pdiddy/zconvert/internal/formats"
	"github.com/pdiddy/zconvert/internal/httputil"
	"github.com/pdiddy/zconvert/internal/workspace"
	"github.com/pdiddy/zconvert/pkg/types"
)

// Form field names.
const (
	fieldFile   = "file"
	fieldFiles  = "files"
	fieldTarget = "targetFormat"
)

// HeaderConversionErrors lists per-file batch failures as JSON
// [{"file","error"}].
const HeaderConversionErrors = "X-Conversion-Errors"

const (
	// formMemory is how much of a multipart form is buffered in memory;
	// larger parts spill to temporary files.
	formMemory = 32 << 20

	batchArchiveName = "converted-files.zip"
	maxHistoryLimit  = 1000
)

// handleConvert converts one uploaded file and streams the result.
// POST /convert
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), s.logger)

	form, err := s.parseForm(w, r)
	if err != nil {
		respondErr(w, logger, err)
		return
	}
	defer form.RemoveAll()

	headers := form.File[fieldFile]
	if err := ValidateCount(headers, s.limits); err != nil {
		respondErr(w, logger, err)
		return
	}
	hdr := headers[0]
	category, err := ValidateUpload(hdr.Filename, hdr.Size, s.limits)
	if err != nil {
		respondErr(w, logger, err)
		return
	}
	target, err := ValidateTarget(formValue(form, fieldTarget))
	if err != nil {
		respondErr(w, logger, err)
		return
	}

	ws, err := workspace.New(s.cfg.ScratchDir)
	if err != nil {
		respondErr(w, logger, err)
		return
	}
	defer cleanup(ws, logger)

	req, err := s.saveUpload(ws, hdr, category, target)
	if err != nil {
		respondErr(w, logger, err)
		return
	}

	res, err := s.converter.Convert(r.Context(), ws, req)
	if err != nil {
		respondErr(w, logger, err)
		return
	}

	logger.Info("converted",
		"file", hdr.Filename,
		"target", target,
		"strategy", res.Strategy,
	)
	s.streamResult(w, r, logger, hdr.Filename, res)
}

// handleConvertMultiple converts up to limits.MaxBatch files and streams a
// zip of every success. Per-file failures are listed in the
// X-Conversion-Errors header; a batch with no successes is a 400.
// POST /convert-multiple
func (s *Server) handleConvertMultiple(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), s.logger)

	form, err := s.parseForm(w, r)
	if err != nil {
		respondErr(w, logger, err)
		return
	}
	defer form.RemoveAll()

	target, err := ValidateTarget(formValue(form, fieldTarget))
	if err != nil {
		respondErr(w, logger, err)
		return
	}
	headers := form.File[fieldFiles]
	if err := ValidateCount(headers, s.limits); err != nil {
		respondErr(w, logger, err)
		return
	}

	ws, err := workspace.New(s.cfg.ScratchDir)
	if err != nil {
		respondErr(w, logger, err)
		return
	}
	defer cleanup(ws, logger)

	var (
		reqs     []types.ConversionRequest
		rejected []types.FileError
	)
	for _, hdr := range headers {
		category, err := ValidateUpload(hdr.Filename, hdr.Size, s.limits)
		if err == nil {
			var req types.ConversionRequest
			req, err = s.saveUpload(ws, hdr, category, target)
			if err == nil {
				reqs = append(reqs, req)
				continue
			}
		}
		rejected = append(rejected, types.FileError{File: hdr.Filename, Error: convert.Summarize(err)})
	}

	var progress bytes.Buffer
	report := s.converter.ConvertBatch(r.Context(), ws, reqs, &progress)
	report.Errors = append(rejected, report.Errors...)
	logger.Debug("batch progress", "output", progress.String())
	logger.Info("batch converted",
		"target", target,
		"converted", len(report.Converted),
		"failed", len(report.Errors),
	)

	if !report.Succeeded() {
		httputil.RespondErrorBody(w, http.StatusBadRequest, httputil.ErrorBody{
			Error:   "No files could be converted",
			Details: report.Errors,
		})
		return
	}

	if report.HasFailures() {
		if payload, err := json.Marshal(report.Errors); err == nil {
			w.Header().Set(HeaderConversionErrors, string(payload))
		}
	}
	w.Header().Set("Content-Type", formats.MIMEType("zip"))
	w.Header().Set("Content-Disposition", attachment(batchArchiveName))
	if err := archive.WriteZip(w, archive.EntriesFromReport(report)); err != nil {
		// Headers are gone; the client sees a truncated archive.
		logger.Error("writing archive failed", "error", err)
	}
}

// handleSupportedFormats serves the static supported-formats document.
// GET /supported-formats
func (s *Server) handleSupportedFormats(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, formats.Supported())
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// historyResponse is the body of GET /history.
type historyResponse struct {
	Conversions []types.ConversionRecord `json:"conversions"`
}

// handleHistory lists recent conversions, newest first.
// GET /history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), s.logger)
	if s.history == nil {
		httputil.RespondError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			err = validation.Validate(n, validation.Min(0), validation.Max(maxHistoryLimit))
		}
		if err != nil {
			respondErr(w, logger, convert.Invalid("limit must be an integer between 0 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	recs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		respondErr(w, logger, fmt.Errorf("reading history: %w", err))
		return
	}
	if recs == nil {
		recs = []types.ConversionRecord{}
	}
	httputil.RespondJSON(w, http.StatusOK, historyResponse{Conversions: recs})
}

// parseForm caps the body at MaxRequestBytes and parses the multipart form.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || isBodyTooLarge(err) {
			return nil, err
		}
		return nil, convert.Invalid("invalid multipart form: %v", err)
	}
	return r.MultipartForm, nil
}

// saveUpload copies an uploaded part into ws and builds its request.
func (s *Server) saveUpload(ws *workspace.Workspace, hdr *multipart.FileHeader, category types.FormatCategory, target string) (types.ConversionRequest, error) {
	src, err := hdr.Open()
	if err != nil {
		return types.ConversionRequest{}, fmt.Errorf("opening upload %s: %w", hdr.Filename, err)
	}
	defer src.Close()

	limit := s.limits.SizeLimit(category)
	path, n, err := ws.SaveUpload(hdr.Filename, src, limit)
	if errors.Is(err, workspace.ErrTooLarge) {
		return types.ConversionRequest{}, &convert.LimitError{
			Reason:   convert.ReasonFileTooLarge,
			Category: string(category),
			File:     hdr.Filename,
			Limit:    limit,
			Actual:   n,
		}
	}
	if err != nil {
		return types.ConversionRequest{}, err
	}

	return types.ConversionRequest{
		SourcePath:       path,
		SourceFormat:     formats.Ext(hdr.Filename),
		TargetFormat:     target,
		OriginalFilename: hdr.Filename,
	}, nil
}

// streamResult sends the converted file as an attachment named after the
// upload and deletes it once sent.
func (s *Server) streamResult(w http.ResponseWriter, r *http.Request, logger *slog.Logger, original string, res types.ConversionResult) {
	artifact := workspace.NewArtifact(res.OutputPath)
	defer func() {
		if err := artifact.Remove(); err != nil {
			logger.Warn("failed to remove converted file", "path", res.OutputPath, "error", err)
		}
	}()

	f, err := os.Open(res.OutputPath)
	if err != nil {
		respondErr(w, logger, fmt.Errorf("opening converted file: %w", err))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		respondErr(w, logger, fmt.Errorf("stat converted file: %w", err))
		return
	}

	name := archive.EntryName(archive.Entry{OriginalFilename: original, Path: res.OutputPath})
	w.Header().Set("Content-Type", res.MIMEType)
	w.Header().Set("Content-Disposition", attachment(name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// attachment formats a Content-Disposition header for name.
func attachment(name string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, name)
	return `attachment; filename="` + clean + `"`
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func cleanup(ws *workspace.Workspace, logger *slog.Logger) {
	if err := ws.Cleanup(); err != nil {
		logger.Warn("workspace cleanup failed", "dir", ws.Dir(), "error", err)
	}
}
