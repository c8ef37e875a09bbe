package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select <uprn>",
	Short: "Show the collections for a property by UPRN",
	Long: `Selects a property by UPRN and prints its collections. The address is
filled in from the postcode the API reports for it. With --default the
property is also saved as the default.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		makeDefault, _ := cmd.Flags().GetBool("default")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.ctrl.SelectAddress(bins.Property{UPRN: args[0]})
		a.ctrl.Wait()

		if makeDefault {
			if _, ok := a.ctrl.SetDefault(); !ok {
				return fmt.Errorf("could not save %s as the default", args[0])
			}
		}
		printView(os.Stdout, a.ctrl.View(), time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
	selectCmd.Flags().BoolP("default", "d", false, "Save the property as the default")
}
