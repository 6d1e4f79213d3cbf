// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/luthersystems/pyrefcheck/docs"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

// GuideCommand prints the embedded user guide.
func GuideCommand() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "guide",
		Short: "Show how pyrefcheck decides whether a name is defined",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := docs.Guide
			if width > 0 {
				text = wordwrap.String(text, width)
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "Wrap lines at this width (0 disables wrapping).")
	return cmd
}
