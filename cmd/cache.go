package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bindicator/bindicator/pkg/resultcache"
	"github.com/bindicator/bindicator/pkg/storage"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the local database",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the properties with saved results",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		cache := resultcache.New(storage.NewBestEffort(db, nil))
		uprns := cache.List()
		if len(uprns) == 0 {
			fmt.Println("No saved results.")
			return nil
		}

		now := time.Now()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "UPRN\tPOSTCODE\tNEXT\tSAVED\tFRESH\t")
		for _, uprn := range uprns {
			entry, ok := cache.Read(uprn)
			if !ok {
				fmt.Fprintf(w, "%s\t-\t-\t-\tunreadable\t\n", uprn)
				continue
			}
			next := "-"
			if c, ok := entry.Data.Next(); ok {
				next = c.Date
			}
			saved := "-"
			if !entry.CapturedAt.IsZero() {
				saved = entry.CapturedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t\n", uprn, entry.Data.Postcode, next, saved, entry.FreshOn(now))
		}
		w.Flush()
		return nil
	},
}

// cacheStatsCmd represents the stats command
var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints how many records of each kind the database holds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "RECORD\tCOUNT\tLAST UPDATED\t")

		var total int
		for _, s := range stats {
			updated := "-"
			if !s.LastUpdated.IsZero() {
				updated = s.LastUpdated.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t\n", s.Namespace, s.Count, updated)
			total += s.Count
		}

		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t \t\n", total)

		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}
