package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"clocktower/internal/config"
	"clocktower/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "clocktower",
	Short:         "Script configuration service for a Blood on the Clocktower stream panel",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	def := os.Getenv("CLOCKTOWER_CONFIG")
	if def == "" {
		def = defaultConfigPath
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", def, "config file (env CLOCKTOWER_CONFIG)")
	rootCmd.AddCommand(serveCmd, validateCmd, catalogCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file; offline commands fall back to defaults
// when it does not exist.
func loadConfig(required bool) (*config.Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		if !required && os.IsNotExist(err) {
			return config.Defaults(), nil
		}
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}
	return config.Load(configPath)
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
