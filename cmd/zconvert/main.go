// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the zconvert CLI: the conversion
// server, local and remote conversion, the supported-formats document and
// conversion history.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zconvert/internal/secrets"
	"github.com/pdiddy/zconvert/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Populated by the root PersistentPreRunE.
var (
	loadedSecrets secrets.Set
	appConfig     types.Config
)

// rootCmd is the base command for the zconvert CLI.
var rootCmd = &cobra.Command{
	Use:   "zconvert",
	Short: "Convert documents and images between formats",
	Long: `zconvert converts documents and images between formats. It runs as an
HTTP server (serve) or directly from the command line (convert). Conversions
use in-process encoders where possible and fall back to LibreOffice, pandoc,
ImageMagick or vips when they are installed.

When a remote server is configured, convert uploads files to it and falls
back to a reduced offline converter if the server cannot be reached.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg

		s, err := secrets.Load(".secrets/", cliLogger(cmd))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./zconvert.yaml or ~/.config/zconvert/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json or text")
	viper.BindPFlag("server.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("server.log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("zconvert")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "zconvert"))
		}
	}

	viper.SetEnvPrefix("ZCONVERT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	registerDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// cliLogger is the logger for one-shot commands: text on stderr, warnings
// and above unless --log-level says otherwise.
func cliLogger(cmd *cobra.Command) *slog.Logger {
	cfg := types.ServerConfig{LogFormat: "text", LogLevel: "warn"}
	if lvl, _ := cmd.Root().PersistentFlags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return newLogger(cfg, os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
