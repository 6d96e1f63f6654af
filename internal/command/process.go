package command

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/stolasapp/wysiwyg/internal/content"
)

// charsetAuto selects statistical charset detection.
const charsetAuto = "auto"

func processCommand() *cobra.Command {
	var outDir, charsetName string
	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "run the configured modifier chain over files, or stdin when none are given",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			if charsetName != "" && charsetName != charsetAuto {
				if _, err = htmlindex.Get(charsetName); err != nil {
					return fmt.Errorf("unknown charset %q: %w", charsetName, err)
				}
			}
			chain, err := cfg.Modifier()
			if err != nil {
				return err
			}
			run := runner{chain: chain, charset: charsetName, limit: cfg.Concurrency}

			if len(args) == 0 {
				if outDir != "" {
					return errors.New("--out-dir requires file arguments")
				}
				return run.stream(cmd)
			}
			return run.files(cmd, outDir, args)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "",
		"write each result to this directory under the input's base name instead of stdout")
	cmd.Flags().StringVar(&charsetName, "charset", "",
		`decode input from this charset, or "auto" to detect it`)

	return cmd
}

// runner processes inputs with one chain shared by every worker, so a
// memoized chain serves repeated inputs from its cache.
type runner struct {
	chain   content.Modifier
	charset string
	limit   int
}

func (r runner) stream(cmd *cobra.Command) error {
	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	output, err := r.newProcessor().Process(string(input))
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), output)
	return err
}

func (r runner) files(cmd *cobra.Command, outDir string, paths []string) error {
	if outDir != "" {
		seen := make(map[string]string, len(paths))
		for _, path := range paths {
			base := filepath.Base(path)
			if prev, dup := seen[base]; dup {
				return fmt.Errorf("%s and %s would both be written to %s", prev, path, base)
			}
			seen[base] = path
		}
		if err := os.MkdirAll(outDir, 0o750); err != nil { //nolint:mnd // owner rwx, group rx
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	results := make([]string, len(paths))
	grp, ctx := errgroup.WithContext(cmd.Context())
	grp.SetLimit(r.limit)
	for idx, path := range paths {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slog.DebugContext(ctx, "processing file", slog.String("path", path))
			output, err := r.file(path)
			if err != nil {
				return err
			}
			if outDir == "" {
				results[idx] = output
				return nil
			}
			dst := filepath.Join(outDir, filepath.Base(path))
			if err = os.WriteFile(dst, []byte(output), 0o600); err != nil { //nolint:mnd // owner rw access
				return fmt.Errorf("failed to write %s: %w", dst, err)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	if outDir != "" {
		return nil
	}
	out := cmd.OutOrStdout()
	for _, result := range results {
		if _, err := io.WriteString(out, result); err != nil {
			return err
		}
	}
	return nil
}

func (r runner) file(path string) (string, error) {
	input, err := os.ReadFile(path) //nolint:gosec // inputs are named by the caller
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	output, err := r.newProcessor().Process(string(input))
	if err != nil {
		return "", fmt.Errorf("failed to process %s: %w", path, err)
	}
	return output, nil
}

// newProcessor returns a fresh processor over the shared chain, preceded by
// charset decoding when a charset is requested.
func (r runner) newProcessor() *content.Processor {
	switch r.charset {
	case "":
		return content.NewProcessor(r.chain)
	case charsetAuto:
		return content.NewProcessor(content.DecodeCharset("text/plain"), r.chain)
	default:
		return content.NewProcessor(content.DecodeCharset("text/plain; charset="+r.charset), r.chain)
	}
}
