package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the next collections for the saved property",
	Long: `Restores the default property (or the last session) and prints its
upcoming collections. Saved results are printed straight away with --cached;
otherwise the command waits for the API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cachedOnly, _ := cmd.Flags().GetBool("cached")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.ctrl.Start()
		if !cachedOnly {
			a.ctrl.Wait()
		}
		printView(os.Stdout, a.ctrl.View(), time.Now())
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetch the saved property's collections, bypassing the API cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, ok := a.ctrl.Start(); ok {
			a.ctrl.Refresh()
			a.ctrl.Wait()
		}
		printView(os.Stdout, a.ctrl.View(), time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(refreshCmd)
	showCmd.Flags().Bool("cached", false, "Print saved results without waiting for the API")
}
