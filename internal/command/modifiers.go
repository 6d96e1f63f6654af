package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stolasapp/wysiwyg/internal/config"
)

func modifiersCommand() *cobra.Command {
	var configured bool
	cmd := &cobra.Command{
		Use:   "modifiers",
		Short: "list the available modifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := config.Modifiers()
			if configured {
				cfg, err := configFrom(cmd.Context())
				if err != nil {
					return err
				}
				names = make([]string, 0, len(cfg.Chain))
				for _, entry := range cfg.Chain {
					names = append(names, entry.Name)
				}
			}
			for _, name := range names {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&configured, "chain", false, "list the configured chain in order instead")
	return cmd
}
