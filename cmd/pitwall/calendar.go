package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/pitwall/internal/schedule"
)

const calendarTimeout = 30 * time.Second

var (
	scheduleSeason int
	scheduleAll    bool
	countdownWatch bool
	newsLimit      int
)

func init() {
	scheduleCmd.Flags().IntVar(&scheduleSeason, "season", 0, "Season to show (configured season when 0)")
	scheduleCmd.Flags().BoolVar(&scheduleAll, "all", false, "Include rounds already raced")

	countdownCmd.Flags().IntVar(&scheduleSeason, "season", 0, "Season to count down in (configured season when 0)")
	countdownCmd.Flags().BoolVarP(&countdownWatch, "watch", "w", false, "Keep updating until interrupted")

	newsCmd.Flags().IntVar(&newsLimit, "limit", 10, "Number of headlines")
}

func season() int {
	if scheduleSeason != 0 {
		return scheduleSeason
	}
	return cfg.Schedule.Season
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Race calendar with each round's status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context(), calendarTimeout)
		defer cancel()

		c, err := loadClassifier(ctx, season())
		if err != nil {
			return err
		}

		now := time.Now()
		entries := c.FormattedSchedule(now)
		if scheduleAll {
			entries = c.Classify(now)
		}
		return render(entries, func(out io.Writer) error {
			t := newTable(out, "ROUND", "GRAND PRIX", "LOCATION", "DATE", "TIME (UTC)", "STATUS")
			for _, e := range entries {
				t.row(e.Round, e.RaceName, e.Location, e.DateStr, e.TimeStr, e.Status)
			}
			return t.flush()
		})
	},
}

var countdownCmd = &cobra.Command{
	Use:   "countdown",
	Short: "Time remaining to the next grand prix",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context(), calendarTimeout)
		c, err := loadClassifier(ctx, season())
		cancel()
		if err != nil {
			return err
		}

		next, ok := c.NextRace(time.Now())
		if !ok {
			fmt.Println("Season complete")
			return nil
		}

		show := func(now time.Time) bool {
			cd := schedule.CalculateCountdown(next.GrandPrix, now)
			if jsonOutput {
				_ = printJSON(cmd.OutOrStdout(), struct {
					Race      schedule.FormattedEntry `json:"race"`
					Countdown schedule.Countdown      `json:"countdown"`
				}{next, cd})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %dd %02dh %02dm %02ds\n",
					next.RaceName, next.DateStr, cd.Days, cd.Hours, cd.Minutes, cd.Seconds)
			}
			return cd.Expired
		}

		if expired := show(time.Now()); !countdownWatch || expired {
			return nil
		}

		watchCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ticker := time.NewTicker(cfg.CountdownInterval())
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return nil
			case now := <-ticker.C:
				if show(now) {
					return nil
				}
			}
		}
	},
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Latest headlines from the configured feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFeeds(); err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd.Context(), calendarTimeout)
		defer cancel()

		agg := newAggregator()
		defer agg.Close()
		if err := agg.Load(ctx); err != nil {
			return err
		}
		items, err := agg.Latest(newsLimit)
		if err != nil {
			return err
		}
		return render(items, func(out io.Writer) error {
			for _, item := range items {
				fmt.Fprintf(out, "%s  [%s] %s\n    %s\n",
					item.Published.Format("2006-01-02 15:04"), item.Source, item.Title, item.Link)
			}
			return nil
		})
	},
}
