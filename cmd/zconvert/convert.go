// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zconvert/internal/archive"
	"github.com/pdiddy/zconvert/internal/client"
	"github.com/pdiddy/zconvert/internal/convert"
	"github.com/pdiddy/zconvert/internal/formats"
	"github.com/pdiddy/zconvert/internal/history"
	"github.com/pdiddy/zconvert/internal/secrets"
	"github.com/pdiddy/zconvert/internal/server"
	"github.com/pdiddy/zconvert/internal/workspace"
	"github.com/pdiddy/zconvert/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert files to another format",
	Long: `Convert converts each file to the format given by --to and writes the
results to --out, named after the input with the new extension.

By default files are converted in-process with the same pipelines the
server uses. With --remote (or client.server_url in the config) files are
uploaded to a zconvert server instead; if the server cannot be reached or
fails, a reduced offline converter is used and its output is marked as
degraded. --offline uses only the offline converter.

The command exits non-zero if any file failed.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("to", "", "target format, e.g. pdf, html, png (required)")
	convertCmd.Flags().String("out", ".", "directory for converted files")
	convertCmd.Flags().String("remote", "", "zconvert server URL (default: client.server_url)")
	convertCmd.Flags().Bool("local", false, "convert in-process even when a server is configured")
	convertCmd.Flags().Bool("offline", false, "use only the offline converter")
	convertCmd.MarkFlagRequired("to")
	viper.BindPFlag("client.server_url", convertCmd.Flags().Lookup("remote"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more files to convert")
	}

	to, _ := cmd.Flags().GetString("to")
	target, err := server.ValidateTarget(to)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	local, _ := cmd.Flags().GetBool("local")
	offlineOnly, _ := cmd.Flags().GetBool("offline")
	ctx := cmd.Context()
	logger := cliLogger(cmd)
	w := cmd.OutOrStdout()

	var report types.BatchReport
	switch {
	case offlineOnly:
		fb := &client.Fallback{Logger: logger}
		report = convertWithFallback(ctx, fb, args, target, outDir, w)
	case appConfig.Client.ServerURL != "" && !local:
		token := loadedSecrets.Get(secrets.APIToken, "")
		remote, err := client.New(appConfig.Client, token)
		if err != nil {
			return err
		}
		fb := &client.Fallback{Remote: remote, Logger: logger}
		report = convertWithFallback(ctx, fb, args, target, outDir, w)
	default:
		report, err = convertLocal(ctx, appConfig, args, target, outDir, w, logger)
		if err != nil {
			return err
		}
	}

	if report.HasFailures() {
		return fmt.Errorf("%d of %d file(s) failed", len(report.Errors), report.Total())
	}
	return nil
}

// convertLocal runs the full conversion pipelines in-process and copies each
// result into outDir.
func convertLocal(ctx context.Context, cfg types.Config, files []string, target, outDir string, w io.Writer, logger *slog.Logger) (types.BatchReport, error) {
	runner, err := newRunner(ctx, cfg.Tools, logger)
	if err != nil {
		return types.BatchReport{}, err
	}
	opts := convert.Options{
		Runner: runner,
		Tools:  cfg.Tools,
		Image:  cfg.Image,
		Logger: logger,
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History)
		if err != nil {
			return types.BatchReport{}, err
		}
		defer store.Close()
		opts.Recorder = store
	}
	svc := convert.New(opts)

	ws, err := workspace.New(cfg.Server.ScratchDir)
	if err != nil {
		return types.BatchReport{}, err
	}
	defer ws.Cleanup()

	reqs := make([]types.ConversionRequest, len(files))
	for i, path := range files {
		reqs[i] = types.ConversionRequest{
			SourcePath:       path,
			SourceFormat:     formats.Ext(path),
			TargetFormat:     target,
			OriginalFilename: filepath.Base(path),
		}
	}

	report := svc.ConvertBatch(ctx, ws, reqs, w)

	names := archive.NewNamer()
	for i, item := range report.Converted {
		name := names.Next(archive.EntryName(archive.Entry{
			OriginalFilename: item.Request.OriginalFilename,
			Path:             item.Result.OutputPath,
		}))
		dst := filepath.Join(outDir, name)
		if err := moveFile(item.Result.OutputPath, dst); err != nil {
			return report, err
		}
		report.Converted[i].Result.OutputPath = dst
		fmt.Fprintf(w, "wrote: %s\n", dst)
	}
	return report, nil
}

// convertWithFallback converts each file through fb, one at a time, and
// writes the results into outDir.
func convertWithFallback(ctx context.Context, fb *client.Fallback, files []string, target, outDir string, w io.Writer) types.BatchReport {
	var report types.BatchReport
	names := archive.NewNamer()

	for _, path := range files {
		base := filepath.Base(path)
		req := types.ConversionRequest{
			SourcePath:       path,
			SourceFormat:     formats.Ext(path),
			TargetFormat:     target,
			OriginalFilename: base,
		}

		out, err := fb.Convert(ctx, path, target)
		if err == nil {
			dst := filepath.Join(outDir, names.Next(filepath.Base(out.Filename)))
			if err = os.WriteFile(dst, out.Data, 0o644); err == nil {
				source := out.Source
				if out.Degraded {
					source += ", degraded"
				}
				fmt.Fprintf(w, "converted: %s (%s)\n", base, source)
				if out.Notice != "" {
					fmt.Fprintf(w, "  note: %s\n", out.Notice)
				}
				report.Converted = append(report.Converted, types.BatchItem{
					Request: req,
					Result: types.ConversionResult{
						OutputPath:     dst,
						OutputFilename: filepath.Base(dst),
						MIMEType:       out.MIMEType,
						Strategy:       out.Source,
					},
				})
				continue
			}
		}

		report.Errors = append(report.Errors, types.FileError{File: base, Error: describe(err)})
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed (total: %d)\n",
		len(report.Converted), len(report.Errors), report.Total())
	return report
}

// describe keeps server and offline messages as they are and summarizes
// everything else.
func describe(err error) string {
	var serr *client.ServerError
	if errors.As(err, &serr) || errors.Is(err, convert.ErrUnsupportedConversion) {
		return err.Error()
	}
	return convert.Summarize(err)
}

// moveFile copies src to dst and removes src. Scratch and output
// directories may be on different filesystems.
func moveFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return workspace.NewArtifact(src).Remove()
}
