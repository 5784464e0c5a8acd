package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"liyu1981.xyz/aquapure-service/pkg/aqua"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

var (
	usageLiters float64
	usageAt     string
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Log and report water usage",
}

var usageLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Add liters to a user's daily usage",
	Long:  `Adds --liters to the usage counter of the local day containing --at (default now).`,
	RunE:  runUsageLog,
}

var usageReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print weekly, monthly, yearly and summary reports",
	RunE:  runUsageReport,
}

func init() {
	requireUser(usageLogCmd)
	usageLogCmd.Flags().Float64Var(&usageLiters, "liters", 0, "liters consumed")
	usageLogCmd.Flags().StringVar(&usageAt, "at", "", "RFC3339 time of the reading (default now)")
	_ = usageLogCmd.MarkFlagRequired("liters")

	requireUser(usageReportCmd)

	usageCmd.AddCommand(usageLogCmd, usageReportCmd)
	rootCmd.AddCommand(usageCmd)
}

func runUsageLog(cmd *cobra.Command, args []string) error {
	var at time.Time
	if usageAt != "" {
		var err error
		if at, err = time.Parse(time.RFC3339, usageAt); err != nil {
			return fmt.Errorf("parsing --at: %w", err)
		}
	}

	return withCore(cmd, func(ctx context.Context, c *core) error {
		saved, err := c.aqua.Usage.LogDelta(ctx, userID, usageLiters, at)
		if err != nil {
			return fmt.Errorf("logging usage: %w", err)
		}
		fmt.Printf("%s %s: %.2f L\n", saved.UserID, saved.Date, saved.Liters)
		return nil
	})
}

func runUsageReport(cmd *cobra.Command, args []string) error {
	return withCore(cmd, func(ctx context.Context, c *core) error {
		usage := c.aqua.Usage

		fmt.Printf("Today: %.2f L\n", usage.TodayUsage(ctx, userID))
		printBuckets("Last 7 days", "Day",
			usage.Window(ctx, userID, time.Time{}, aqua.DefaultSpanDays, aqua.DirectionBackward))
		printBuckets("Last 12 months", "Month",
			usage.Months(ctx, userID, time.Time{}, aqua.DefaultMonthCount))
		printBuckets("Yearly", "Year", usage.Years(ctx, userID))

		summary := usage.Summary(ctx, userID)
		fmt.Println("\nSummary:")
		fmt.Println("----------------------------------------")
		fmt.Printf("%-16s  %12s\n", "Total liters", summary.FormatTotalLiters())
		fmt.Printf("%-16s  %12s\n", "Money saved", summary.FormatMoneySaved())
		fmt.Printf("%-16s  %11s%%\n", "Filter health", summary.FormatFilterHealth())
		return nil
	})
}

func printBuckets(title string, column string, buckets []models.AggregateBucket) {
	fmt.Printf("\n%s:\n", title)
	if len(buckets) == 0 {
		fmt.Println("No usage recorded")
		return
	}

	fmt.Println("----------------------------------------")
	fmt.Printf("%-6s  %-12s  %12s\n", column, "Key", "Liters")
	fmt.Println("----------------------------------------")
	for _, b := range buckets {
		fmt.Printf("%-6s  %-12s  %12.2f\n", b.Label, b.Key, b.Value)
	}
	fmt.Println("----------------------------------------")
	fmt.Printf("Total: %.2f L (%d buckets)\n", models.SumBuckets(buckets), len(buckets))
}
