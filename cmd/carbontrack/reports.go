package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Per-company carbon reports",
}

var reportTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show a company's total, monthly snapshots and yearly breakdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			totals, err := a.emissions.GetCompanyTotals(ctx, companyID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(totals)
			}

			fmt.Printf("%s: %s kgCO2e total, %d points\n\n",
				totals.Company.Name, formatFloat(totals.TotalCarbon), totals.Company.Points)

			tw := newTable()
			fmt.Fprintf(tw, "%d\tELECTRICITY\tNATURAL GAS\tVEHICLES\tWASTE\tOTHER\tTOTAL\n", totals.Year)
			for _, m := range totals.Yearly {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					time.Month(m.Month).String()[:3],
					formatFloat(m.Electricity), formatFloat(m.NaturalGas), formatFloat(m.Vehicles),
					formatFloat(m.Waste), formatFloat(m.Other), formatFloat(m.Total))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(totals.Monthly) > 0 {
				fmt.Println()
				tw = newTable()
				fmt.Fprintln(tw, "MONTH\tSNAPSHOT")
				for _, s := range totals.Monthly {
					fmt.Fprintf(tw, "%s\t%s\n", s.Month.In(a.loc).Format("2006-01"), formatFloat(s.TotalCarbon))
				}
				return tw.Flush()
			}
			return nil
		})
	},
}

var reportStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's and this month's carbon per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			stats, err := a.emissions.Stats(ctx, companyID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(stats)
			}

			tw := newTable()
			fmt.Fprintln(tw, "PERIOD\tCATEGORY\tCARBON")
			for _, s := range stats.Daily.Items {
				fmt.Fprintf(tw, "today\t%s\t%s\n", s.Category, formatFloat(s.Total))
			}
			for _, s := range stats.Monthly.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", stats.Monthly.Start.Format("2006-01"), s.Category, formatFloat(s.Total))
			}
			return tw.Flush()
		})
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank companies by points",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			standings, err := a.board.Leaderboard(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(standings)
			}
			tw := newTable()
			fmt.Fprintln(tw, "RANK\tCOMPANY\tPOINTS\tTOTAL CARBON")
			for _, s := range standings {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", s.Rank, s.Name, s.Points, formatFloat(s.TotalCarbon))
			}
			return tw.Flush()
		})
	},
}

var leaderboardAnalysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Rank companies by weighted footprint, lowest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			rows, err := a.board.Analysis(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(rows)
			}
			tw := newTable()
			fmt.Fprintln(tw, "RANK\tCOMPANY\tTOTAL\tORG\tWEIGHTED")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Rank, r.Name,
					formatFloat(r.TotalCarbon), formatFloat(r.OrgExpense), formatFloat(r.Weighted))
			}
			return tw.Flush()
		})
	},
}

var leaderboardMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Compare each company's current month with the previous one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			stats, err := a.board.MonthlyStats(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(stats)
			}
			tw := newTable()
			fmt.Fprintln(tw, "COMPANY\tTOTAL\tMONTHLY AVG\tPREVIOUS\tCURRENT\tCHANGE\tPOINTS")
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%+.1f%%\t%d\n", s.Name,
					formatFloat(s.TotalCarbon), formatFloat(s.MonthlyAverage),
					formatFloat(s.PreviousMonth), formatFloat(s.CurrentMonth), s.LastMonthChange, s.Points)
			}
			return tw.Flush()
		})
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run the monthly jobs by hand",
}

var jobsRunCmd = &cobra.Command{
	Use:       "run <assign|points>",
	Short:     "Run one monthly job immediately",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{jobAssign, jobPoints},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			switch args[0] {
			case jobAssign:
				res, err := a.assigner.Assign(ctx)
				if jsonOutput && res != nil {
					if perr := printJSON(res); perr != nil {
						return perr
					}
				} else if res != nil {
					fmt.Printf("Batch %s: %d rows for %d companies, %s kgCO2e\n",
						res.BatchID, res.Rows, res.Companies, formatFloat(res.Carbon))
				}
				return err
			case jobPoints:
				changes, err := a.scorer.Score(ctx)
				if jsonOutput {
					if perr := printJSON(changes); perr != nil {
						return perr
					}
					return err
				}
				tw := newTable()
				fmt.Fprintln(tw, "COMPANY\tPREVIOUS\tCURRENT\tDELTA\tPOINTS")
				for _, c := range changes {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%+d\t%d\n", c.Name,
						formatFloat(c.Previous), formatFloat(c.Current), c.Delta, c.Points)
				}
				if ferr := tw.Flush(); ferr != nil {
					return ferr
				}
				return err
			default:
				s, err := a.newScheduler()
				if err != nil {
					return err
				}
				return s.RunNow(ctx, args[0])
			}
		})
	},
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Maintain cached company totals",
}

var ledgerReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute every company total from its emissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			drifts, err := a.ledger.Reconcile(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(drifts)
			}
			if len(drifts) == 0 {
				fmt.Println("All company totals match their emissions.")
				return nil
			}
			tw := newTable()
			fmt.Fprintln(tw, "COMPANY\tCACHED\tACTUAL")
			for _, d := range drifts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, formatFloat(d.Cached), formatFloat(d.Actual))
			}
			return tw.Flush()
		})
	},
}

func init() {
	reportCmd.PersistentFlags().Int64P("company", "c", 0, "Company id")
	_ = reportCmd.MarkPersistentFlagRequired("company")
	reportCmd.AddCommand(reportTotalsCmd)
	reportCmd.AddCommand(reportStatsCmd)

	leaderboardCmd.AddCommand(leaderboardAnalysisCmd)
	leaderboardCmd.AddCommand(leaderboardMonthlyCmd)

	jobsCmd.AddCommand(jobsRunCmd)
	ledgerCmd.AddCommand(ledgerReconcileCmd)

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(ledgerCmd)
}
