package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkm/internal/app"
	"pkm/internal/config"
	"pkm/internal/pkm"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, error) {
	paths, err := app.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(paths.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// withApp builds a PKMApp for one command, runs fn and closes the app.
// operation names the command in the log (e.g. "CreateBookmark").
func withApp(cmd *cobra.Command, operation string, fn func(ctx context.Context, a *app.PKMApp) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.NewPKMApp(ctx, cfg, operation)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		a.Fail(err)
		return err
	}
	return nil
}

// personaFlag resolves the --persona flag against the configured default.
func personaFlag(cmd *cobra.Command, a *app.PKMApp) (pkm.Persona, error) {
	raw, _ := cmd.Flags().GetString("persona")
	return a.Persona(raw)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readPassphrase takes the passphrase from PKM_PASSPHRASE or prompts for it
// without echo.
func readPassphrase(prompt string) (string, error) {
	if p := os.Getenv("PKM_PASSPHRASE"); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt for a passphrase; set PKM_PASSPHRASE")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

var rootCmd = &cobra.Command{
	Use:          "pkm",
	Short:        "Persona-scoped bookmarks, tags and planning",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		ownerID := uuid.New().String()
		cfg := config.NewConfig(ownerID, paths.BaseDir)
		cfg.LogDir = paths.LogDir

		if err := config.Init(paths.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", paths.ConfigPath)
		fmt.Printf("Owner ID: %s\n", ownerID)
		fmt.Printf("Base Dir: %s\n", paths.BaseDir)
		fmt.Println("Next: pkm db migrate")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(paths.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", paths.ConfigPath)
		fmt.Printf("Owner ID:        %s\n", cfg.OwnerID)
		fmt.Printf("Default Persona: %s\n", cfg.DefaultPersona)
		fmt.Printf("Base Dir:        %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:         %s\n", cfg.LogDir)
		fmt.Printf("Database:        %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Listen Addr:     %s\n", cfg.Server.ListenAddr)
		fmt.Printf("Text Gen:        %s (%s)\n", cfg.TextGen.Provider, cfg.TextGen.Model)
		fmt.Printf("Cache:           %s\n", cfg.Cache.Type)
		fmt.Printf("Vault:           %s\n", cfg.Vault.Type)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database schema",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := app.DatabaseStatus(cfg)
		if err != nil {
			return err
		}
		state := "up to date"
		switch {
		case st.Dirty:
			state = "dirty"
		case st.Version < st.Latest:
			state = fmt.Sprintf("%d migration(s) pending", st.Latest-st.Version)
		case st.Version > st.Latest:
			state = "ahead of this binary"
		}
		fmt.Printf("version %d of %d: %s\n", st.Version, st.Latest, state)
		return nil
	},
}

var dbSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the migrated schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		schema, err := app.DatabaseSchema(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		fmt.Print(schema)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)
		return withApp(cmd, "Serve", func(ctx context.Context, a *app.PKMApp) error {
			return a.Serve(ctx)
		})
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a Netscape HTML or YAML bookmark file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Import", func(ctx context.Context, a *app.PKMApp) error {
			persona, err := personaFlag(cmd, a)
			if err != nil {
				return err
			}
			res, err := a.Import(ctx, args[0], persona)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("Added %d, skipped %d duplicate(s), %d failed\n", res.Added, res.Skipped, res.Failed)
			return nil
		})
	},
}

// generate command
var generateCmd = &cobra.Command{
	Use:   "generate TYPE [PROMPT...]",
	Short: "Generate text (summary, outline, study_notes, blog_post, social_post, pitch)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		length, _ := cmd.Flags().GetString("length")
		asJSON, _ := cmd.Flags().GetBool("json")

		req := pkm.GenerateRequest{
			Type:       pkm.ContentType(args[0]),
			Prompt:     strings.Join(args[1:], " "),
			Subject:    subject,
			LengthHint: pkm.LengthHint(length),
		}
		return withApp(cmd, "Generate", func(ctx context.Context, a *app.PKMApp) error {
			res, err := a.Generate(ctx, req)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(res)
			}
			fmt.Println(res.Content)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("persona", "p", "", "Persona (default from config)")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbSchemaCmd)

	generateCmd.Flags().StringP("subject", "s", "", "Subject line")
	generateCmd.Flags().StringP("length", "l", "", "Length hint: short, medium or long")
	generateCmd.Flags().Bool("json", false, "Print the result with metadata as JSON")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(generateCmd)
}
