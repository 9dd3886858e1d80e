package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilianohg/carbontrack/internal/carbon"
	"github.com/emilianohg/carbontrack/internal/catalog"
	"github.com/emilianohg/carbontrack/internal/models"
)

const dateLayout = "2006-01-02"

func parseScope(s string) (models.Scope, error) {
	scope := models.Scope(strings.ToUpper(s))
	if !scope.Valid() {
		return "", fmt.Errorf("%w: scope must be ORG or WORKER, got %q", carbon.ErrInvalidInput, s)
	}
	return scope, nil
}

func parseAmount(s string) (float64, error) {
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", carbon.ErrInvalidAmount, s)
	}
	return amount, nil
}

// parseDate reads YYYY-MM-DD at local midnight, or an RFC 3339 timestamp.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD)", carbon.ErrInvalidDate, s)
	}
	return t, nil
}

var calculateCmd = &cobra.Command{
	Use:   "calculate <type> <category> <amount>",
	Short: "Show the carbon value of an activity without recording it",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		scopeFlag, _ := cmd.Flags().GetString("scope")
		scope, err := parseScope(scopeFlag)
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		return withApp(cmd, func(_ context.Context, a *app) error {
			est, err := a.emissions.Calculate(args[0], args[1], amount, scope)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(est)
			}
			fmt.Printf("Carbon: %s (%s)\n", formatFloat(est.CarbonValue), est.Unit)
			if est.Cost != nil {
				fmt.Printf("Cost: %s\n", formatFloat(*est.Cost))
			}
			return nil
		})
	},
}

var emissionCmd = &cobra.Command{
	Use:     "emission",
	Aliases: []string{"emissions"},
	Short:   "Record and manage a company's emissions",
}

var emissionAddCmd = &cobra.Command{
	Use:   "add <type> <category> <amount>",
	Short: "Record an emission for the company or one of its workers",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		workerID, _ := cmd.Flags().GetInt64("worker")
		scopeFlag, _ := cmd.Flags().GetString("scope")
		dateFlag, _ := cmd.Flags().GetString("date")

		actor := carbon.CompanyActor(companyID)
		if workerID != 0 {
			actor = carbon.WorkerActor(companyID, workerID)
			if !cmd.Flags().Changed("scope") {
				scopeFlag = string(models.ScopeWorker)
			}
		}
		scope, err := parseScope(scopeFlag)
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			date, err := parseDate(dateFlag, a.loc)
			if err != nil {
				return err
			}
			e, err := a.emissions.CreateEmission(ctx, actor, carbon.EmissionInput{
				Type:     args[0],
				Category: args[1],
				Amount:   amount,
				Scope:    scope,
				Date:     date,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(e)
			}
			fmt.Printf("Recorded emission %d: %s %s -> %s kgCO2e\n",
				e.ID, strconv.FormatFloat(e.Amount, 'f', -1, 64), e.Unit, formatFloat(e.CarbonValue))
			return nil
		})
	},
}

var emissionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a company's emissions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			emissions, err := a.emissions.ListEmissions(ctx, companyID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(emissions)
			}
			if len(emissions) == 0 {
				fmt.Println("No emissions recorded.")
				return nil
			}
			tw := newTable()
			fmt.Fprintln(tw, "ID\tDATE\tSCOPE\tTYPE\tCATEGORY\tAMOUNT\tUNIT\tCARBON\tSOURCE")
			for _, e := range emissions {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Date.In(a.loc).Format(dateLayout), e.Scope, e.Type, e.Category,
					strconv.FormatFloat(e.Amount, 'f', -1, 64), e.Unit, formatFloat(e.CarbonValue), e.Source)
			}
			return tw.Flush()
		})
	},
}

var emissionUpdateCmd = &cobra.Command{
	Use:   "update <id> <amount>",
	Short: "Change an emission's amount; the carbon value is recalculated",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		dateFlag, _ := cmd.Flags().GetString("date")
		id, err := parseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid emission id %q", args[0])
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			var date *time.Time
			if dateFlag != "" {
				d, err := parseDate(dateFlag, a.loc)
				if err != nil {
					return err
				}
				date = &d
			}
			e, err := a.emissions.UpdateEmission(ctx, companyID, id, amount, date)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(e)
			}
			fmt.Printf("Updated emission %d: %s kgCO2e\n", e.ID, formatFloat(e.CarbonValue))
			return nil
		})
	},
}

var emissionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an emission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		id, err := parseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid emission id %q", args[0])
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.emissions.DeleteEmission(ctx, companyID, id); err != nil {
				return err
			}
			fmt.Printf("Deleted emission %d\n", id)
			return nil
		})
	},
}

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Inspect and seed emission factors",
}

var factorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the emission factors of a scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		scopeFlag, _ := cmd.Flags().GetString("scope")
		scope, err := parseScope(scopeFlag)
		if err != nil {
			return err
		}
		return withApp(cmd, func(_ context.Context, a *app) error {
			factors, err := a.emissions.Factors(scope)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(factors)
			}
			tw := newTable()
			fmt.Fprintln(tw, "TYPE\tCATEGORY\tFACTOR\tUNIT\tPRICE")
			for _, f := range factors {
				price := "-"
				if f.Price != nil {
					price = fmt.Sprintf("%g %s", *f.Price, f.PriceUnit)
				}
				fmt.Fprintf(tw, "%s\t%s\t%g\t%s\t%s\n", f.Type, f.Category, f.EmissionFactor, f.Unit, price)
			}
			return tw.Flush()
		})
	},
}

var factorsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert emission factors from a YAML seed file (default: built-in)",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			factors, err := a.seedFactors()
			if file != "" {
				factors, err = catalog.SeedFromFile(file)
			}
			if err != nil {
				return err
			}
			if err := catalog.Seed(ctx, a.store.Factors, factors); err != nil {
				return err
			}
			fmt.Printf("Seeded %d emission factors\n", len(factors))
			return nil
		})
	},
}

func init() {
	calculateCmd.Flags().StringP("scope", "s", string(models.ScopeOrg), "ORG or WORKER")

	emissionCmd.PersistentFlags().Int64P("company", "c", 0, "Company id")
	_ = emissionCmd.MarkPersistentFlagRequired("company")
	emissionAddCmd.Flags().Int64P("worker", "w", 0, "Record on behalf of this worker")
	emissionAddCmd.Flags().StringP("scope", "s", string(models.ScopeOrg), "ORG or WORKER")
	emissionAddCmd.Flags().StringP("date", "d", "", "Activity date, YYYY-MM-DD (default: now)")
	emissionUpdateCmd.Flags().StringP("date", "d", "", "New activity date, YYYY-MM-DD")
	emissionCmd.AddCommand(emissionAddCmd)
	emissionCmd.AddCommand(emissionListCmd)
	emissionCmd.AddCommand(emissionUpdateCmd)
	emissionCmd.AddCommand(emissionDeleteCmd)

	factorsListCmd.Flags().StringP("scope", "s", string(models.ScopeOrg), "ORG or WORKER")
	factorsSeedCmd.Flags().StringP("file", "f", "", "YAML seed file")
	factorsCmd.AddCommand(factorsListCmd)
	factorsCmd.AddCommand(factorsSeedCmd)

	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(emissionCmd)
	rootCmd.AddCommand(factorsCmd)
}
