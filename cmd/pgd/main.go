package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pgdapi/internal/app"
	"pgdapi/internal/config"
	"pgdapi/internal/engine/auth"
)

var rootCmd = &cobra.Command{
	Use:   "pgd",
	Short: "PGD plan submission API",
	Long: `pgd serves the work plan and delivery plan submission API.

Units submit work plans under /unit/{unit_code}/work_plan/{plan_code}; organizations
submit delivery plans under /organization/{org_code}/delivery_plan/{delivery_plan_id}.
Every submission is validated field by field and then against the plan rules
(workload arithmetic, date ordering, non-overlapping delivery periods) before it
is stored. Accounts are managed by administrators; bootstrap the first one with
'pgd user create-superuser'.`,
	SilenceUsage: true,
}

// cliPrincipal acts for local administrative commands.
var cliPrincipal = auth.Principal{UserID: "cli", Admin: true}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PGD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory")
	flags.StringP("config", "c", "", "config file (default <workspace>/pgd.yml)")
	flags.String("db-driver", "", "database driver override (sqlite or postgres)")
	flags.String("db-dsn", "", "database DSN override")
	flags.Bool("json", false, "output JSON")
	for _, name := range []string{"workspace", "config", "db-driver", "db-dsn", "json"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(truncateCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(eventsCmd())
}

// loadConfig resolves the config file and applies flag and PGD_* overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := app.LoadConfig(viper.GetString("workspace"), viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("db-driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := viper.GetString("db-dsn"); v != "" {
		cfg.Database.DSN = v
	}
	if v := viper.GetString("jwt-secret"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
