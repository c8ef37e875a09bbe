package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/controller"
)

func printAddresses(w io.Writer, addrs []bins.Address) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "UPRN\tADDRESS\t")
	for _, a := range addrs {
		fmt.Fprintf(tw, "%s\t%s\t\n", a.UPRN, a.Address)
	}
	tw.Flush()
}

// whenLabel describes an ISO date relative to today.
func whenLabel(date string, now time.Time) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	switch days := int(d.Sub(today).Hours() / 24); {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days > 1 && days < 7:
		return d.Format("Monday")
	}
	return d.Format("Mon 2 Jan")
}

func printView(w io.Writer, v controller.View, now time.Time) {
	if v.Property.IsZero() {
		if v.AddressError != "" {
			fmt.Fprintln(w, v.AddressError)
		} else {
			fmt.Fprintln(w, "No property selected. Run `bindicator lookup <postcode>` to find yours.")
		}
		return
	}

	title := v.Property.Address
	if title == "" {
		title = "UPRN " + v.Property.UPRN
	}
	if v.IsDefault {
		title += " (default)"
	}
	fmt.Fprintln(w, title)
	if v.Postcode != "" {
		fmt.Fprintln(w, v.Postcode)
	}
	fmt.Fprintln(w)

	if v.Schedule != nil {
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for _, c := range v.Schedule.Collections {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", whenLabel(c.Date, now), c.Date, strings.Join(c.Bins, ", "))
		}
		tw.Flush()
		if ts := v.Schedule.UpdatedAt(); ts != "" {
			fmt.Fprintf(w, "\nLast updated %s", ts)
			if v.Schedule.Source != "" {
				fmt.Fprintf(w, " from %s", v.Schedule.Source)
			}
			fmt.Fprintln(w)
		}
		if !v.Current {
			fmt.Fprintln(w, "(saved results, may be out of date)")
		}
	}

	if v.Error != "" {
		fmt.Fprintln(w, v.Error)
	}
}
