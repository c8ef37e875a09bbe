package cmd

import (
	"context"
	"fmt"

	"github.com/bindicator/bindicator/internal/utils"
	"github.com/bindicator/bindicator/pkg/api"
	"github.com/bindicator/bindicator/pkg/whttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI and API versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("bindicator %s\n", Version)

		client, err := api.NewClient(viper.GetString("api.base"), whttp.ClientOptions{
			Timeout: viper.GetDuration("api.timeout"),
		})
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("api.timeout"))
		defer cancel()

		v, err := client.Version(ctx)
		if err != nil {
			utils.Log.Debugf("Version lookup failed: %v", err)
		}
		fmt.Printf("%s %s (build %s, %s) at %s\n", v.Service, v.Version, v.Build, v.Environment, client.BaseURL())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
