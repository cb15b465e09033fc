package cmd

import (
	"time"

	"github.com/spf13/cobra"

	plugins "github.com/km-arc/go-rapla/app"
	"github.com/km-arc/go-rapla/framework/container"
)

var (
	exportFrom string
	exportTo   string
)

var exportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Export the reservations with an export extension",
	Long: `Build the reservation table view and run the export extension registered
under ID (ical, csv, ...) over the selected reservations.

Examples:
  rapla export csv
  rapla export ical --from 2024-03-04 --to 2024-03-11`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		view, err := container.Inject[*plugins.ReservationTableView](a.Container)
		if err != nil {
			return err
		}
		from, err := parseDay(exportFrom)
		if err != nil {
			return err
		}
		to, err := parseDay(exportTo)
		if err != nil {
			return err
		}
		view.Select(from, to)
		return view.Export(cmd.OutOrStdout(), args[0])
	},
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "day after the last (YYYY-MM-DD)")
	rootCmd.AddCommand(exportCmd)
}
