// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

const exportLimit = 100000

// exportRecord is the serialized shape of a history row.
type exportRecord struct {
	ID               string  `json:"id" yaml:"id"`
	CreatedAt        string  `json:"created_at" yaml:"created_at"`
	OriginalFilename string  `json:"original_filename" yaml:"original_filename"`
	SourceFormat     string  `json:"source_format" yaml:"source_format"`
	TargetFormat     string  `json:"target_format" yaml:"target_format"`
	Category         string  `json:"category,omitempty" yaml:"category,omitempty"`
	Strategy         string  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Status           string  `json:"status" yaml:"status"`
	Error            string  `json:"error,omitempty" yaml:"error,omitempty"`
	DurationSeconds  float64 `json:"duration_seconds" yaml:"duration_seconds"`
	OutputBytes      int64   `json:"output_bytes" yaml:"output_bytes"`
}

// Export writes the full history, newest first, to w as YAML or JSON.
func (s *Store) Export(ctx context.Context, w io.Writer, format string) error {
	records, err := s.query(ctx, exportLimit)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]exportRecord, len(records))
	for i, r := range records {
		entries[i] = exportRecord{
			ID:               r.ID,
			CreatedAt:        r.CreatedAt.Format(time.RFC3339),
			OriginalFilename: r.OriginalFilename,
			SourceFormat:     r.SourceFormat,
			TargetFormat:     r.TargetFormat,
			Category:         string(r.Category),
			Strategy:         r.Strategy,
			Status:           string(r.Status),
			Error:            r.Error,
			DurationSeconds:  r.Duration.Seconds(),
			OutputBytes:      r.OutputBytes,
		}
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
}
