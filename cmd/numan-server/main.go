package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/Stikerz/numan/internal/config"
	"github.com/Stikerz/numan/internal/domain/identity"
	"github.com/Stikerz/numan/internal/domain/lab"
	"github.com/Stikerz/numan/internal/platform/db"
	"github.com/Stikerz/numan/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "numan-server",
		Short:        "Blood test ordering API server",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(userCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(labCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// withPool loads config, opens a pool for the duration of fn and closes it.
func withPool(fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, pool)
}

func newMigrator(pool *pgxpool.Pool, dir, schema string) *db.Migrator {
	m := db.NewMigratorFS(pool, migrations.FS)
	if dir != "" {
		m = db.NewMigrator(pool, dir)
	}
	return m.WithSchema(schema)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Running migrations on schema: %s\n", schema)
				count, err := newMigrator(pool, dir, schema).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Path to migrations directory (default: built-in migrations)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				statuses, err := newMigrator(pool, dir, schema).Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Migration status for schema: %s\n", schema)
				printMigrationStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}
	statusCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default: built-in migrations)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func identityService(pool *pgxpool.Pool) *identity.Service {
	return identity.NewService(identity.NewUserRepoPG(pool), identity.NewTokenRepoPG(pool))
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			if username == "" {
				return fmt.Errorf("--username is required")
			}

			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				u, err := identityService(pool).CreateUser(ctx, username, email)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", u.Username, u.ID)
				return nil
			})
		},
	}
	createCmd.Flags().String("username", "", "Unique username")
	createCmd.Flags().String("email", "", "Email address")
	cmd.AddCommand(createCmd)

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a named token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			name, _ := cmd.Flags().GetString("name")
			if username == "" {
				return fmt.Errorf("--username is required")
			}

			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				t, key, err := identityService(pool).IssueToken(ctx, username, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Token %q created for %s. It will not be shown again:\n%s\n", t.Name, username, key)
				return nil
			})
		},
	}
	createCmd.Flags().String("username", "", "Owning user")
	createCmd.Flags().String("name", "default", "Token name, unique per user")
	cmd.AddCommand(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			if username == "" {
				return fmt.Errorf("--username is required")
			}

			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				tokens, err := identityService(pool).ListTokens(ctx, username)
				if err != nil {
					return err
				}
				printTokens(cmd.OutOrStdout(), tokens)
				return nil
			})
		},
	}
	listCmd.Flags().String("username", "", "Owning user")
	cmd.AddCommand(listCmd)

	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a named token",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			name, _ := cmd.Flags().GetString("name")
			if username == "" || name == "" {
				return fmt.Errorf("--username and --name are required")
			}

			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				if err := identityService(pool).RevokeToken(ctx, username, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Token %q revoked for %s\n", name, username)
				return nil
			})
		},
	}
	revokeCmd.Flags().String("username", "", "Owning user")
	revokeCmd.Flags().String("name", "", "Token name")
	cmd.AddCommand(revokeCmd)

	return cmd
}

func printTokens(w io.Writer, tokens []*identity.AccessToken) {
	fmt.Fprintf(w, "%-24s %-10s %s\n", "NAME", "PREFIX", "CREATED")
	for _, t := range tokens {
		fmt.Fprintf(w, "%-24s %-10s %s\n", t.Name, t.KeyPrefix, t.Created.Format("2006-01-02 15:04:05"))
	}
}

func labCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lab",
		Short: "Manage labs",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Add a lab to the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := labFromFlags(cmd)
			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				if err := lab.NewService(lab.NewRepoPG(pool)).CreateLab(ctx, l); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created lab %s (id %d) in %s, %s\n", l.Name, l.ID, l.City, l.CountryName())
				return nil
			})
		},
	}
	createCmd.Flags().String("name", "", "Unique lab name")
	createCmd.Flags().String("address", "", "First address line")
	createCmd.Flags().String("address2", "", "Second address line")
	createCmd.Flags().String("city", "", "City")
	createCmd.Flags().String("post-code", "", "Post code")
	createCmd.Flags().String("country", lab.DefaultCountry, "ISO 3166-1 alpha-2 country code")
	createCmd.Flags().String("email", "", "Contact email")
	createCmd.Flags().String("number", "", "Contact phone number")
	cmd.AddCommand(createCmd)

	return cmd
}

func labFromFlags(cmd *cobra.Command) *lab.Lab {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return &lab.Lab{
		Name:     get("name"),
		Address:  get("address"),
		Address2: get("address2"),
		City:     get("city"),
		PostCode: get("post-code"),
		Country:  get("country"),
		Email:    get("email"),
		Number:   get("number"),
	}
}
