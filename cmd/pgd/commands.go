package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pgdapi/internal/app"
	"pgdapi/internal/config"
	"pgdapi/internal/db"
	"pgdapi/internal/domain"
	"pgdapi/internal/engine"
	"pgdapi/internal/migrate"
	"pgdapi/internal/repo"
	"pgdapi/internal/rules"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN, Workspace: cfg.Database.Workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			n, err := migrate.Migrate(conn, cfg.Database.Driver)
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migration(s) on %s\n", n, cfg.Database.Driver)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create pgd.yml",
	}
	cmd.AddCommand(configShowCmd(), configInitCmd(), configValidateCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := cfg.YAML(reveal)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print secrets in clear")
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default pgd.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if err := os.MkdirAll(workspace, 0o755); err != nil {
				return err
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"valid": true})
			}
			fmt.Println("config is valid")
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API accounts",
	}
	cmd.AddCommand(userCreateSuperuserCmd(), userCreateCmd(), userListCmd())
	return cmd
}

func userCreateSuperuserCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = viper.GetString("superuser-password")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				u, created, err := a.EnsureSuperuser(ctx, email, password)
				if err != nil {
					return err
				}
				if !created {
					return fmt.Errorf("%w: %s", engine.ErrDuplicateUser, u.Email)
				}
				return printUsers([]domain.User{u})
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	cmd.Flags().StringVar(&password, "password", "", "administrator password (or PGD_SUPERUSER_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func userCreateCmd() *cobra.Command {
	var in engine.NewUser
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a unit or organization account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				u, err := a.Engine.RegisterUser(ctx, cliPrincipal, in)
				if err != nil {
					return err
				}
				return printUsers([]domain.User{u})
			})
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	cmd.Flags().Int64Var(&in.UnitCode, "unit", 0, "unit code the account may submit work plans for")
	cmd.Flags().Int64Var(&in.OrgCode, "org", 0, "organization code the account may submit delivery plans for")
	cmd.Flags().BoolVar(&in.Admin, "admin", false, "grant administrator privileges")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				users, err := a.Engine.ListUsers(ctx)
				if err != nil {
					return err
				}
				return printUsers(users)
			})
		},
	}
}

func printUsers(users []domain.User) error {
	if viper.GetBool("json") {
		type row struct {
			ID       string `json:"id"`
			Email    string `json:"email"`
			UnitCode int64  `json:"unit_code"`
			OrgCode  int64  `json:"org_code"`
			IsAdmin  bool   `json:"is_admin"`
			IsActive bool   `json:"is_active"`
		}
		out := make([]row, 0, len(users))
		for _, u := range users {
			out = append(out, row{u.ID, u.Email, u.UnitCode, u.OrgCode, u.IsAdmin, !u.Disabled})
		}
		return printJSON(out)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Email", "Unit", "Org", "Admin", "Active"})
	for _, u := range users {
		tw.AppendRow(table.Row{u.ID, u.Email, u.UnitCode, u.OrgCode, u.IsAdmin, !u.Disabled})
	}
	tw.Render()
	return nil
}

func truncateCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:       "truncate <table>",
		Short:     "Empty a table (" + strings.Join(repo.Truncatable, ", ") + ")",
		Long:      "Empty a table. Truncating users keeps administrator accounts; truncating a plan table removes its children.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: repo.Truncatable,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to truncate %s without --yes", args[0])
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				n, err := a.Engine.Truncate(ctx, cliPrincipal, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"table": args[0], "rows": n})
				}
				fmt.Printf("removed %d row(s) from %s\n", n, args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the truncation")
	return cmd
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect stored plans",
	}
	work := &cobra.Command{Use: "work", Short: "Work plans"}
	work.AddCommand(&cobra.Command{
		Use:   "get <unit_code> <plan_code>",
		Short: "Show a work plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid unit code %q", args[0])
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				wp, err := a.Engine.GetWorkPlan(ctx, cliPrincipal, domain.WorkPlanKey{UnitCode: unit, PlanCode: args[1]})
				if err != nil {
					return err
				}
				return printWorkPlan(wp)
			})
		},
	})
	delivery := &cobra.Command{Use: "delivery", Short: "Delivery plans"}
	delivery.AddCommand(&cobra.Command{
		Use:   "get <org_code> <delivery_plan_id>",
		Short: "Show a delivery plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid organization code %q", args[0])
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid delivery plan id %q", args[1])
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				dp, err := a.Engine.GetDeliveryPlan(ctx, cliPrincipal, domain.DeliveryPlanKey{OrgCode: org, PlanID: id})
				if err != nil {
					return err
				}
				return printDeliveryPlan(dp)
			})
		},
	})
	cmd.AddCommand(work, delivery)
	return cmd
}

func printWorkPlan(wp domain.WorkPlan) error {
	if viper.GetBool("json") {
		return printJSON(wp)
	}
	fmt.Printf("work plan %d/%s  %s (%s)\n", wp.UnitCode, wp.PlanCode, wp.ParticipantName, wp.NationalID)
	fmt.Printf("period %s .. %s  weekly %dh  total %s\n",
		wp.StartDate.Format(rules.DateLayout), wp.EndDate.Format(rules.DateLayout), wp.WeeklyWorkload, wp.TotalWorkload)
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Activity", "Name", "Tier", "Presential", "Remote", "Expected"})
	for _, act := range wp.Activities {
		tw.AppendRow(table.Row{act.ActivityID, act.Name, act.ComplexityTier, act.PresentialTime, act.RemoteTime, act.ExpectedCount})
	}
	tw.Render()
	return nil
}

func printDeliveryPlan(dp domain.DeliveryPlan) error {
	if viper.GetBool("json") {
		return printJSON(dp)
	}
	fmt.Printf("delivery plan %d/%d  planning unit %d  cancelled=%t\n",
		dp.InstitutingOrgCode, dp.DeliveryPlanID, dp.PlanningUnitCode, dp.IsCancelled())
	fmt.Printf("period %s .. %s\n", dp.StartDate.Format(rules.DateLayout), dp.EndDate.Format(rules.DateLayout))
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Delivery", "Name", "Goal", "Type", "Date", "Requester"})
	for _, d := range dp.Deliveries {
		tw.AppendRow(table.Row{d.DeliveryID, d.Name, d.GoalValue, d.GoalType, d.DeliveryDate.Format(rules.DateLayout), d.RequesterName})
	}
	tw.Render()
	return nil
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read the audit log",
	}
	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.Events(ctx, n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Time", "Type", "Entity", "Actor"})
				for _, evt := range items {
					tw.AppendRow(table.Row{evt.ID, evt.TS, evt.Type, evt.EntityKind + ":" + evt.EntityID, evt.ActorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVarP(&n, "n", "n", 20, "number of events")
	cmd.AddCommand(tail)
	return cmd
}
