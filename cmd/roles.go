package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	gohttp "github.com/km-arc/go-rapla/http"
)

var rolesJSON bool

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List every registered role with its hints",
	Long: `Boot the container and list every role, its hints and the component
behind each hint. The first hint is the default.

Examples:
  # Table output
  rapla roles

  # Only what a client sees
  rapla roles --context client

  # JSON, for jq
  rapla roles --json | jq '.[].role'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		inspector, err := a.Inspector()
		if err != nil {
			return err
		}
		var infos []gohttp.RoleInfo
		for _, role := range a.Roles() {
			if info, ok := inspector.Describe(role); ok {
				infos = append(infos, info)
			}
		}

		out := cmd.OutOrStdout()
		if rolesJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ROLE\tHINT\tCOMPONENT\tDEFAULT")
		for _, info := range infos {
			for _, h := range info.Hints {
				def := ""
				if h.Default {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Role, h.Hint, h.Component, def)
			}
		}
		return tw.Flush()
	},
}

func init() {
	rolesCmd.Flags().BoolVar(&rolesJSON, "json", false, "print JSON")
	rootCmd.AddCommand(rolesCmd)
}
