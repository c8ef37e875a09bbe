package cmd

import (
	"errors"
	"fmt"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/spf13/cobra"
)

var defaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Manage the default property",
}

var defaultShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved default property",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, ok := a.identity.Read()
		if !ok {
			fmt.Println("No default property saved.")
			return nil
		}
		printProperty(p)
		return nil
	},
}

var defaultSetCmd = &cobra.Command{
	Use:   "set [uprn]",
	Short: "Save a property as the default",
	Long: `Saves the given UPRN as the default property. Without an argument the
current default is saved again, refreshed with the address and postcode the
API reports for it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			a.ctrl.SelectAddress(bins.Property{UPRN: args[0]})
		} else {
			if _, ok := a.identity.Read(); !ok {
				return errors.New("no default saved: pass a UPRN")
			}
			a.ctrl.Start()
		}
		// Wait so the saved record carries the postcode and address the API reports.
		a.ctrl.Wait()

		p, ok := a.ctrl.SetDefault()
		if !ok {
			return errors.New("nothing selected")
		}
		fmt.Println("Saved as default:")
		printProperty(p)
		return nil
	},
}

var defaultUnsetCmd = &cobra.Command{
	Use:   "unset",
	Short: "Forget the default property and the last session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.ctrl.UnsetDefault()
		fmt.Println("Default property removed.")
		return nil
	},
}

func printProperty(p bins.Property) {
	fmt.Printf("UPRN:     %s\n", p.UPRN)
	if p.Address != "" {
		fmt.Printf("Address:  %s\n", p.Address)
	}
	if p.Postcode != "" {
		fmt.Printf("Postcode: %s\n", p.Postcode)
	}
}

func init() {
	rootCmd.AddCommand(defaultCmd)
	defaultCmd.AddCommand(defaultShowCmd)
	defaultCmd.AddCommand(defaultSetCmd)
	defaultCmd.AddCommand(defaultUnsetCmd)
}
