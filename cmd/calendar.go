package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dgitools/internal/config"
	"dgitools/internal/logger"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar [date]",
	Short: "Inspect the Moroccan business calendar",
	Long: `Report whether a date is a Moroccan business day and, if not, the next
business day a due date would shift to. Weekends and fixed public
holidays are built in; movable Islamic holidays come from the
ISLAMIC_HOLIDAYS environment variable (comma-separated YYYY-MM-DD).`,
	Example: `  # Check a specific date
  dgitools calendar 2023-11-18

  # Check today
  dgitools calendar

  # Add business days
  dgitools calendar 2023-11-16 --add 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalendar,
}

func init() {
	rootCmd.AddCommand(calendarCmd)

	calendarCmd.Flags().Int("add", 0, "Also report the date this many business days later")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("calendar")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cal := cfg.GetPenaltyConfig().Calendar
	if cal == nil {
		return fmt.Errorf("business calendar is disabled (USE_BUSINESS_CALENDAR=false)")
	}

	date := time.Now()
	if len(args) == 1 {
		date, err = time.Parse("2006-01-02", args[0])
		if err != nil {
			return fmt.Errorf("invalid date format. Use YYYY-MM-DD: %w", err)
		}
	}

	log.Debug().Str("date", date.Format("2006-01-02")).Msg("Inspecting business calendar")

	switch {
	case cal.IsBusinessDay(date):
		fmt.Printf("%s is a business day\n", date.Format("2006-01-02"))
	case cal.IsWeekend(date):
		fmt.Printf("%s is a weekend (%s)\n", date.Format("2006-01-02"), date.Weekday())
	default:
		if name, ok := cal.HolidayName(date); ok {
			fmt.Printf("%s is a public holiday (%s)\n", date.Format("2006-01-02"), name)
		} else {
			fmt.Printf("%s is a holiday\n", date.Format("2006-01-02"))
		}
	}

	if !cal.IsBusinessDay(date) {
		fmt.Printf("Next business day: %s\n", cal.NextBusinessDay(date).Format("2006-01-02"))
	}

	if add, _ := cmd.Flags().GetInt("add"); add > 0 {
		fmt.Printf("%d business days later: %s\n", add, cal.AddBusinessDays(date, add).Format("2006-01-02"))
	}

	return nil
}
