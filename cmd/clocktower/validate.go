package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"clocktower/internal/catalog"
	"clocktower/internal/pkg/jsonutil"
	"clocktower/internal/script"

	"github.com/spf13/cobra"
)

var validateFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a script offline and print its canonical configuration",
	Long: `Runs the same pipeline as the Save button without touching any store.

Reads --file, or stdin when --file is "-" or empty. Exits non-zero when the
script is rejected.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "script file (.json or .txt), - for stdin")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	registry, err := catalog.NewRegistry(cfg.Catalog.Path, false)
	if err != nil {
		return fmt.Errorf("load role catalog: %w", err)
	}
	text, err := readInput(cmd.InOrStdin(), validateFile)
	if err != nil {
		return err
	}
	return validateScript(cmd.OutOrStdout(), text, registry.Catalog())
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(stdin)
		return string(raw), err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(raw), nil
}

var errRejected = errors.New("script rejected")

func validateScript(w io.Writer, text string, roles *catalog.Catalog) error {
	res, err := script.Ingest(text, roles)
	if err != nil {
		fmt.Fprintln(w, err.Error())
		return fmt.Errorf("%w: %w", errRejected, err)
	}
	encoded, err := res.Config.Encode()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, jsonutil.Pretty(encoded))
	fmt.Fprintf(w, "%d characters\n", res.Count)
	return nil
}
