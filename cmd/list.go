package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Zachdehooge/crossing-dashboard/internal/fetcher"
	"github.com/Zachdehooge/crossing-dashboard/internal/gate"
	"github.com/Zachdehooge/crossing-dashboard/internal/reltime"
)

// addListCmd adds a 'list' subcommand to show upcoming trains without generating HTML
func addListCmd(rootCmd *cobra.Command) {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming trains at the crossing",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}

			client := fetcher.NewClient(cfg.APIURL, cfg.RequestTimeout)
			resp, err := client.FetchTrains(cmd.Context())
			if err == nil {
				err = resp.Err()
			}
			if err != nil {
				cmd.PrintErrln(fmt.Errorf("failed to fetch trains: %w", err))
				os.Exit(1)
			}

			if len(resp.Trains) == 0 {
				cmd.Println("No upcoming trains.")
				return
			}

			printTrains(cmd, fetcher.SortByArrival(resp.Trains), cfg.PreClose, time.Now())
		},
	}

	rootCmd.AddCommand(listCmd)
}

var gateColors = map[gate.State]*color.Color{
	gate.Open:    color.New(color.FgGreen),
	gate.Closing: color.New(color.FgYellow, color.Bold),
	gate.Closed:  color.New(color.FgRed, color.Bold),
}

func printTrains(cmd *cobra.Command, trains []fetcher.Train, preClose time.Duration, now time.Time) {
	header := color.New(color.Bold, color.Underline)
	cmd.Println(header.Sprint("Upcoming Trains:"))

	for _, t := range trains {
		cmd.Println("---")
		cmd.Println(fmt.Sprintf("Train: #%s %s", t.TrainNo, t.Name))
		if t.Source != "" {
			cmd.Println(fmt.Sprintf("Source: %s", t.Source))
		}

		at, ok := t.ArrivalTime()
		if !ok {
			cmd.Println("ETA: unknown")
			continue
		}
		eta := t.ETAFormatted
		if eta == "" {
			eta = at.Local().Format("15:04")
		}
		remaining := at.Sub(now)
		state := gate.ForRemaining(remaining, preClose)
		cmd.Println(fmt.Sprintf("ETA: %s (%s)", eta, reltime.Label(remaining)))
		cmd.Println(fmt.Sprintf("Gate: %s", gateColors[state].Sprint(state.Icon()+" "+state.Label())))
	}
}
