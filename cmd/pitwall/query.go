package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/pitwall/internal/stats"
)

const queryTimeout = 2 * time.Minute

var (
	standingsYear   int
	standingsTop    int
	heatmapTop      int
	showHeatmap     bool
	circuitName     string
	circuitTop      int
	topDriversLimit int
)

func init() {
	standingsCmd.Flags().IntVar(&standingsYear, "year", 0, "Season to show (latest when 0)")
	standingsCmd.Flags().IntVar(&standingsTop, "top", 10, "Number of drivers")

	constructorsCmd.Flags().BoolVar(&showHeatmap, "heatmap", false, "Show the constructor by season points grid")
	constructorsCmd.Flags().IntVar(&heatmapTop, "top", 10, "Number of constructors in the heatmap")

	circuitsCmd.Flags().StringVar(&circuitName, "name", "", "Grand prix to summarize, e.g. \"Monaco Grand Prix\"")
	circuitsCmd.Flags().IntVar(&circuitTop, "top", 10, "Number of winners in the summary")

	topCmd.Flags().IntVar(&topDriversLimit, "limit", 10, "Number of drivers")
}

var standingsCmd = &cobra.Command{
	Use:   "standings",
	Short: "Final driver standings for a season",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context(), queryTimeout)
		defer cancel()

		engine, err := loadEngine(ctx)
		if err != nil {
			return err
		}

		year := standingsYear
		if year == 0 {
			seasons, err := engine.Seasons(ctx)
			if err != nil {
				return err
			}
			if len(seasons) == 0 {
				return fmt.Errorf("no seasons since %d in the dataset", engine.StartYear())
			}
			year = seasons[0]
		}

		rows, err := engine.FinalStandings(ctx, year, standingsTop)
		if err != nil {
			return err
		}
		return render(rows, func(out io.Writer) error {
			fmt.Fprintf(out, "%d drivers' championship\n\n", year)
			t := newTable(out, "POS", "DRIVER", "POINTS")
			for i, r := range rows {
				t.row(i+1, r.DriverName, r.Points.String())
			}
			return t.flush()
		})
	},
}

var constructorsCmd = &cobra.Command{
	Use:   "constructors",
	Short: "Constructor points per season",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context(), queryTimeout)
		defer cancel()

		engine, err := loadEngine(ctx)
		if err != nil {
			return err
		}

		if showHeatmap {
			heatmap, err := engine.ConstructorHeatmap(ctx, heatmapTop)
			if err != nil {
				return err
			}
			return render(heatmap, func(out io.Writer) error { return printHeatmap(out, heatmap) })
		}

		rows, err := engine.ConstructorChampionship(ctx)
		if err != nil {
			return err
		}
		return render(rows, func(out io.Writer) error {
			t := newTable(out, "YEAR", "CONSTRUCTOR", "POINTS")
			for _, r := range rows {
				t.row(r.Year, r.ConstructorName, r.Points.String())
			}
			return t.flush()
		})
	},
}

func printHeatmap(out io.Writer, heatmap stats.Heatmap) error {
	headers := []string{"CONSTRUCTOR"}
	for _, y := range heatmap.Years {
		headers = append(headers, strconv.Itoa(y))
	}
	headers = append(headers, "TOTAL")

	t := newTable(out, headers...)
	for _, row := range heatmap.Rows {
		cells := []interface{}{row.ConstructorName}
		for _, p := range row.Points {
			cells = append(cells, p.String())
		}
		cells = append(cells, row.Total.String())
		t.row(cells...)
	}
	return t.flush()
}

var circuitsCmd = &cobra.Command{
	Use:   "circuits",
	Short: "Grand prix names, or the winners of one with --name",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context(), queryTimeout)
		defer cancel()

		engine, err := loadEngine(ctx)
		if err != nil {
			return err
		}

		if circuitName == "" {
			names, err := engine.CircuitNames(ctx)
			if err != nil {
				return err
			}
			return render(names, func(out io.Writer) error {
				for _, n := range names {
					fmt.Fprintln(out, n)
				}
				return nil
			})
		}

		summary, err := engine.CircuitSummary(ctx, circuitName, circuitTop)
		if err != nil {
			return err
		}
		return render(summary, func(out io.Writer) error {
			fmt.Fprintf(out, "%s: %d races, circuit king %s with %d victories\n\n",
				summary.RaceName, summary.TotalRaces, summary.King, summary.Victories)
			t := newTable(out, "DRIVER", "WINS")
			for _, w := range summary.Winners {
				t.row(w.DriverName, w.Wins)
			}
			return t.flush()
		})
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <driver-id> <driver-id>",
	Short: "Head-to-head career comparison of two drivers",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid driver id %q", args[0])
		}
		b, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid driver id %q", args[1])
		}

		ctx, cancel := commandContext(cmd.Context(), queryTimeout)
		defer cancel()

		engine, err := loadEngine(ctx)
		if err != nil {
			return err
		}
		h, err := engine.CompareDrivers(ctx, a, b)
		if err != nil {
			return err
		}

		return render(h, func(out io.Writer) error {
			t := newTable(out, "", h.Driver1, h.Driver2)
			t.row("Wins", h.Driver1Wins, h.Driver2Wins)
			t.row("Podiums", h.Driver1Podiums, h.Driver2Podiums)
			t.row("Points", h.Driver1TotalPoints.String(), h.Driver2TotalPoints.String())
			t.row("Avg finish", formatAvg(h.Driver1AvgPosition), formatAvg(h.Driver2AvgPosition))
			if err := t.flush(); err != nil {
				return err
			}
			leader, margin := h.Leader()
			fmt.Fprintf(out, "\n%s leads by %s points\n", leader, margin.String())
			return nil
		})
	},
}

func formatAvg(avg *float64) string {
	if avg == nil {
		return "-"
	}
	return strconv.FormatFloat(*avg, 'f', 2, 64)
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Drivers with the most career points",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context(), queryTimeout)
		defer cancel()

		engine, err := loadEngine(ctx)
		if err != nil {
			return err
		}
		rows, err := engine.TopDrivers(ctx, topDriversLimit)
		if err != nil {
			return err
		}
		return render(rows, func(out io.Writer) error {
			t := newTable(out, "RANK", "DRIVER", "POINTS")
			for i, r := range rows {
				t.row(i+1, r.DriverName, r.Points.String())
			}
			return t.flush()
		})
	},
}
