package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/config"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/database"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/notifications"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/repository"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/seed"
	"gorm.io/gorm"
)

var (
	databaseURL string
	logLevel    string
	timeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "theglocal-admin",
	Short: "Operator commands for the Theglocal backend",
	Long: `theglocal-admin runs maintenance tasks directly against the database:
migrations, super admin grants, notification sweeps and dev seeding.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if databaseURL == "" {
			databaseURL = config.DatabaseURL()
		}
		return logger.Initialize(logLevel, os.Getenv("LOG_FILE"))
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, db *gorm.DB) error {
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		})
	},
}

var (
	promoteEmail  string
	promoteRevoke bool
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant or revoke the platform super admin flag",
	Example: `  theglocal-admin promote --email asha@example.com
  theglocal-admin promote --email asha@example.com --revoke`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, db *gorm.DB) error {
			user, err := repository.NewUserRepository(db).SetSuperAdmin(ctx, promoteEmail, !promoteRevoke)
			if err != nil {
				return fmt.Errorf("%s: %w", promoteEmail, err)
			}
			state := "granted"
			if promoteRevoke {
				state = "revoked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "super admin %s for %s (@%s)\n", state, user.Email, user.Handle)
			return nil
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep-notifications",
	Short: "Delete notifications past their expiry once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, db *gorm.DB) error {
			sweeper := notifications.NewSweeper(notifications.NewRepository(db), time.Hour)
			deleted, err := sweeper.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired notifications\n", deleted)
			return nil
		})
	},
}

var seedCounts = seed.DefaultCounts

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill a development database with fake data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("ENVIRONMENT") == "production" {
			return fmt.Errorf("refusing to seed a production database")
		}
		return withDB(func(ctx context.Context, db *gorm.DB) error {
			if err := database.Migrate(db); err != nil {
				return err
			}
			result, err := seed.NewSeeder(db).SeedDev(ctx, seedCounts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d communities, %d memberships, %d notifications (password %q)\n",
				len(result.Users), len(result.Communities), result.Memberships, result.Notifications, seed.DevPassword)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres DSN (defaults to DATABASE_URL or DB_* variables)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall command timeout")

	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "Email of the account")
	promoteCmd.Flags().BoolVar(&promoteRevoke, "revoke", false, "Revoke instead of grant")
	_ = promoteCmd.MarkFlagRequired("email")

	seedCmd.Flags().IntVar(&seedCounts.Users, "users", seedCounts.Users, "Number of users")
	seedCmd.Flags().IntVar(&seedCounts.Communities, "communities", seedCounts.Communities, "Number of communities")
	seedCmd.Flags().IntVar(&seedCounts.NotificationsPerUser, "notifications", seedCounts.NotificationsPerUser, "Notifications per user")

	rootCmd.AddCommand(migrateCmd, promoteCmd, sweepCmd, seedCmd)
}

func withDB(fn func(ctx context.Context, db *gorm.DB) error) error {
	db, err := database.Initialize(databaseURL, false)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, db)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
