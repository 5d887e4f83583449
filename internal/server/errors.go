// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdiddy/zconvert/internal/convert"
	"github.com/pdiddy/zconvert/internal/httputil"
)

// errorResponse maps an error from validation or conversion to a status code
// and JSON body. It is the only place status codes are chosen for failures.
func errorResponse(err error) (int, httputil.ErrorBody) {
	var (
		limit       *convert.LimitError
		unsupported *convert.UnsupportedConversionError
		tooBig      *http.MaxBytesError
	)
	switch {
	case errors.As(err, &limit):
		return http.StatusRequestEntityTooLarge, httputil.ErrorBody{Error: limit.Error(), Reason: limit.Reason}
	case errors.As(err, &tooBig) || isBodyTooLarge(err):
		msg := "request body too large"
		if tooBig != nil {
			msg = fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit)
		}
		return http.StatusRequestEntityTooLarge, httputil.ErrorBody{Error: msg, Reason: convert.ReasonFileTooLarge}
	case errors.As(err, &unsupported):
		return http.StatusBadRequest, httputil.ErrorBody{Error: unsupported.Error(), Reason: convert.ReasonUnsupported}
	case errors.Is(err, convert.ErrUnsupportedConversion):
		return http.StatusBadRequest, httputil.ErrorBody{Error: err.Error(), Reason: convert.ReasonUnsupported}
	case errors.Is(err, convert.ErrLimitExceeded):
		return http.StatusRequestEntityTooLarge, httputil.ErrorBody{Error: err.Error()}
	case errors.Is(err, convert.ErrValidation):
		return http.StatusBadRequest, httputil.ErrorBody{Error: validationMessage(err)}
	default:
		return http.StatusInternalServerError, httputil.ErrorBody{Error: convert.Summarize(err)}
	}
}

// isBodyTooLarge catches MaxBytesReader overflows that reach us through a
// layer that did not wrap the original error.
func isBodyTooLarge(err error) bool {
	return err != nil && strings.Contains(err.Error(), "http: request body too large")
}

// respondErr logs err and writes the mapped error response. Server faults
// are logged at error level with the full chain; client errors at info.
func respondErr(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Info("request rejected", "status", status, "error", err)
	}
	httputil.RespondErrorBody(w, status, body)
}
