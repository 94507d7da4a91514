package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAgentsCmd(ro *rootOptions) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the configured agent roster in pipeline order",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, a := range ro.cfg.Agents {
				fmt.Fprintf(out, "%d. %s\n", i+1, a.Name)
				if verbose {
					fmt.Fprintf(out, "%s\n\n", indent(a.RolePrompt, "   "))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print role prompts")
	return cmd
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
