package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/controller"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <postcode>",
	Short: "List the properties registered under a postcode",
	Long: `Looks up a postcode. When exactly one property matches it is selected
and its collections are printed; otherwise pick one with "bindicator select".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		addrs, err := a.ctrl.SubmitPostcode(ctx, strings.Join(args, " "))
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return errors.New(controller.FriendlyError(err))
		}

		if len(addrs) == 1 {
			a.ctrl.Wait()
			printView(os.Stdout, a.ctrl.View(), time.Now())
			return nil
		}

		shown := bins.FilterAddresses(addrs, filter)
		if len(shown) == 0 {
			fmt.Printf("None of the %d addresses match %q.\n", len(addrs), filter)
			return nil
		}
		printAddresses(os.Stdout, shown)
		fmt.Println("\nPick one with: bindicator select <uprn>")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringP("filter", "f", "", "Only list addresses containing this text")
}
