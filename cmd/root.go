package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bindicator/bindicator/internal/utils"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	 _     _           _ _           _
	| |__ (_)_ __   __| (_) ___ __ _| |_ ___  _ __
	| '_ \| | '_ \ / _' | |/ __/ _' | __/ _ \| '__|
	| |_) | | | | | (_| | | (_| (_| | || (_) | |
	|_.__/|_|_| |_|\__,_|_|\___\__,_|\__\___/|_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bindicator",
	Short: "Which bins go out next, because rubbish timing matters.",
	Long: LOGO + `bindicator looks up the household waste collections for a property.

Search by postcode, pick your address once, save it as the default and
every later run shows the next collection straight away.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bindicator.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default is ~/.config/bindicator/bindicator.sqlite)")
	rootCmd.PersistentFlags().String("api", "", "Base URL of the Bindicator API (default from config)")

	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("dbpath"))
	viper.BindPFlag("api.base", rootCmd.PersistentFlags().Lookup("api"))
}

func setDefaults() {
	viper.SetDefault("api.base", "http://localhost:8000")
	viper.SetDefault("api.timeout", "30s")
	viper.SetDefault("api.retries", 0)
	viper.SetDefault("db.path", "")
	viper.SetDefault("db.timeout", "5s")
	viper.SetDefault("cache.lru_size", 64)
	viper.SetDefault("notice.slow_after", "15s")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".bindicator")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BINDICATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".bindicator.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		utils.Log.Fatal(err)
	}
}
