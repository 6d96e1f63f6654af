package command

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stolasapp/wysiwyg/internal/config"
)

func initCommand(configFilePath *string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "write the default configuration file",
		Args:  cobra.NoArgs,
		// an existing config may be invalid, so skip loading it
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := *configFilePath
			if _, err := os.Stat(path); err == nil && !force {
				resp, err := prompt(cmd.InOrStdin(), cmd.ErrOrStderr(),
					fmt.Sprintf("Config exists at %s. Overwrite? [y|N] ", path))
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				if !bytes.Equal(bytes.TrimSpace(resp), []byte("y")) {
					_, err = fmt.Fprintf(cmd.ErrOrStderr(), "left %s unchanged\n", path)
					return err
				}
			}

			data, err := config.Default().Marshal()
			if err != nil {
				return err
			}
			if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil { //nolint:mnd // owner rwx access
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err = os.WriteFile(path, data, 0o600); err != nil { //nolint:mnd // owner rw access
				return fmt.Errorf("failed to write config file to %s: %w", path, err)
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file without asking")
	return cmd
}
