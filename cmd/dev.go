package cmd

import (
	"github.com/bindicator/bindicator/internal/devserver"
	"github.com/bindicator/bindicator/internal/utils"
	"github.com/spf13/cobra"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Development helpers",
}

var devServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local fake of the Bindicator API",
	Long: `Serves deterministic addresses and schedules on the three API routes so
the CLI can be tried without the real backend. Seeded postcodes: SL6 1XX (one
property), SL6 2AB (three, one of them ambiguous) and SL6 9ZZ (none).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		delay, _ := cmd.Flags().GetDuration("delay")

		srv := devserver.New()
		srv.Delay = delay
		srv.Log = utils.Log
		return srv.Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(devCmd)
	devCmd.AddCommand(devServeCmd)
	devServeCmd.Flags().String("listen", "localhost:8000", "HTTP listen address")
	devServeCmd.Flags().Duration("delay", 0, "Delay every schedule response (e.g. 20s to see the slow-network notice)")
}
