package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var companyCmd = &cobra.Command{
	Use:     "company",
	Aliases: []string{"companies"},
	Short:   "Manage companies",
}

var companyAddCmd = &cobra.Command{
	Use:   "add <name> <email>",
	Short: "Register a company",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			c, err := a.emissions.RegisterCompany(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(c)
			}
			fmt.Printf("Created company %d: %s\n", c.ID, c.Name)
			return nil
		})
	},
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies with their totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			companies, err := a.emissions.Companies(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(companies)
			}
			if len(companies) == 0 {
				fmt.Println("No companies yet.")
				return nil
			}
			tw := newTable()
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCARBON (kgCO2e)\tPOINTS\tWORKERS\tEMISSIONS")
			for _, c := range companies {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n",
					c.ID, c.Name, c.Email, formatFloat(c.TotalCarbon), c.Points, c.WorkerCount, c.EmissionCount)
			}
			return tw.Flush()
		})
	},
}

var companyUpdateCmd = &cobra.Command{
	Use:   "update <id> <name> <email>",
	Short: "Rename a company or change its email",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid company id %q", args[0])
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.emissions.UpdateCompany(ctx, id, args[1], args[2]); err != nil {
				return err
			}
			fmt.Printf("Updated company %d\n", id)
			return nil
		})
	},
}

var companyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a company with its workers and emissions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid company id %q", args[0])
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.emissions.DeleteCompany(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Deleted company %d\n", id)
			return nil
		})
	},
}

var workerCmd = &cobra.Command{
	Use:     "worker",
	Aliases: []string{"workers"},
	Short:   "Manage a company's workers",
}

var workerAddCmd = &cobra.Command{
	Use:   "add <name> <department>",
	Short: "Add a worker",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, err := a.emissions.CreateWorker(ctx, companyID, args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(w)
			}
			fmt.Printf("Added worker %d: %s (%s)\n", w.ID, w.Name, w.Department)
			return nil
		})
	},
}

var workerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			workers, err := a.emissions.Workers(ctx, companyID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(workers)
			}
			if len(workers) == 0 {
				fmt.Println("No workers yet.")
				return nil
			}
			tw := newTable()
			fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT")
			for _, w := range workers {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", w.ID, w.Name, w.Department)
			}
			return tw.Flush()
		})
	},
}

var workerUpdateCmd = &cobra.Command{
	Use:   "update <id> <name> <department>",
	Short: "Update a worker",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		id, err := parseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid worker id %q", args[0])
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.emissions.UpdateWorker(ctx, companyID, id, args[1], args[2]); err != nil {
				return err
			}
			fmt.Printf("Updated worker %d\n", id)
			return nil
		})
	},
}

var workerDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a worker; their emissions stay on the company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetInt64("company")
		id, err := parseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid worker id %q", args[0])
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.emissions.DeleteWorker(ctx, companyID, id); err != nil {
				return err
			}
			fmt.Printf("Deleted worker %d\n", id)
			return nil
		})
	},
}

func init() {
	companyCmd.AddCommand(companyAddCmd)
	companyCmd.AddCommand(companyListCmd)
	companyCmd.AddCommand(companyUpdateCmd)
	companyCmd.AddCommand(companyDeleteCmd)

	workerCmd.PersistentFlags().Int64P("company", "c", 0, "Company id")
	_ = workerCmd.MarkPersistentFlagRequired("company")
	workerCmd.AddCommand(workerAddCmd)
	workerCmd.AddCommand(workerListCmd)
	workerCmd.AddCommand(workerUpdateCmd)
	workerCmd.AddCommand(workerDeleteCmd)

	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(workerCmd)
}
