package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-rapla/framework/container"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup ROLE[/HINT]",
	Short: "Look up a role and describe the instance",
	Long: `Boot the container, look up ROLE (its default, or HINT when given, or
every hint with "*") and print the type of the resulting instances.

Examples:
  rapla lookup github.com.km-arc.go-rapla.app.Resources
  rapla lookup 'github.com.km-arc.go-rapla.app.ExportMenuExtension/*'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		out := cmd.OutOrStdout()
		role, hint := container.SplitRole(args[0])
		if hint == container.AnyHint {
			all, err := a.LookupMap(role)
			if err != nil {
				return err
			}
			for _, h := range a.Hints(role) {
				if v, ok := all[h]; ok {
					fmt.Fprintf(out, "%s\t%T\n", h, v)
				}
			}
			return nil
		}

		v, err := a.LookupHint(role, hint)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%T\n", v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
