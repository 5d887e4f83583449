// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/zconvert/internal/formats"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported input and output formats",
	Long: `Formats prints the supported-formats document served at
GET /supported-formats: accepted inputs and outputs per category. Video and
audio files convert only to image formats, via ImageMagick or vips.`,
	RunE: runFormats,
}

func init() {
	formatsCmd.Flags().Bool("json", false, "output as JSON")
	formatsCmd.Flags().Bool("yaml", false, "output as YAML")

	rootCmd.AddCommand(formatsCmd)
}

func runFormats(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	return writeFormats(cmd.OutOrStdout(), formats.Supported(), jsonOutput, yamlOutput)
}

func writeFormats(w io.Writer, doc formats.SupportedFormats, jsonOutput, yamlOutput bool) error {
	switch {
	case jsonOutput && yamlOutput:
		return fmt.Errorf("--json and --yaml are mutually exclusive")
	case jsonOutput:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case yamlOutput:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}

	rows := []struct {
		name string
		io   formats.IOFormats
	}{
		{"documents", doc.Documents},
		{"images", doc.Images},
		{"videos", doc.Videos},
		{"audio", doc.Audio},
	}
	fmt.Fprintf(w, "%-10s  %-6s  %s\n", "Category", "Kind", "Extensions")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, r := range rows {
		fmt.Fprintf(w, "%-10s  %-6s  %s\n", r.name, "input", strings.Join(r.io.Input, ", "))
		output := strings.Join(r.io.Output, ", ")
		if output == "" {
			output = "(image formats only)"
		}
		fmt.Fprintf(w, "%-10s  %-6s  %s\n", "", "output", output)
	}
	return nil
}
