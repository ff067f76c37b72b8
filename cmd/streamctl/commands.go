// AngelaMos | 2026
// commands.go

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/streamflix/internal/auth"
	"github.com/carterperez-dev/streamflix/internal/config"
	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/importer"
	"github.com/carterperez-dev/streamflix/internal/middleware"
	"github.com/carterperez-dev/streamflix/internal/schema"
)

type options struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "streamctl",
		Short:         "StreamFlix operator tooling",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")

	root.AddCommand(
		newMigrateCommand(opts),
		newImportCommand(opts),
		newKeygenCommand(opts),
		newCardKeyCommand(),
		newTokenCommand(opts),
	)
	return root
}

func (o *options) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Read(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, core.NewLogger(cfg.Log, os.Stderr), nil
}

func connect(cmd *cobra.Command, cfg *config.Config) (*core.Database, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return core.NewDatabase(cmd.Context(), cfg.Database)
}

func newMigrateCommand(opts *options) *cobra.Command {
	var skipPlans bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and the reference plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			db, err := connect(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits right after

			if err := schema.Migrate(cmd.Context(), db.DB, !skipPlans); err != nil {
				return err
			}

			logger.Info("schema migrated",
				"tables", len(schema.Dependencies.InsertOrder()),
				"reference_plans", !skipPlans,
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipPlans, "skip-plans", false, "do not insert the reference plans")
	return cmd
}

func newImportCommand(opts *options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <dump.sql>",
		Short: "Load a SQL dump of INSERT statements",
		Long: "Parses the INSERT statements of a dump (legacy or current table names)\n" +
			"and seeds them in dependency order. Rows that already exist are kept.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open dump: %w", err)
			}
			defer f.Close() //nolint:errcheck // read-only

			ds, err := importer.Load(f)
			if err != nil {
				return err
			}
			if len(ds.Skipped) > 0 {
				logger.Warn("statements skipped", "tables", ds.Skipped)
			}

			if dryRun {
				return writeJSON(cmd.OutOrStdout(), ds.Views())
			}

			cipher, err := cardCipher(cfg.Security)
			if err != nil {
				return err
			}

			db, err := connect(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits right after

			cache, closeCache := movieListCache(cmd, cfg, logger)
			defer closeCache()

			res, err := importer.NewSeeder(db, cipher, cache, logger).Seed(cmd.Context(), ds)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), ds.Counts(), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resulting views instead of writing")
	return cmd
}

// movieListCache connects to the API's cache so an import does not leave a
// stale movie list behind. An unreachable Redis only costs a warning.
func movieListCache(
	cmd *cobra.Command,
	cfg *config.Config,
	logger *slog.Logger,
) (core.JSONCache, func()) {
	if !cfg.Cache.Enabled || cfg.Redis.URL == "" {
		return nil, func() {}
	}
	redis, err := core.NewRedis(cmd.Context(), cfg.Redis)
	if err != nil {
		logger.Warn("movie list cache not invalidated", "error", err)
		return nil, func() {}
	}
	return core.NewCache(redis.Client, cfg.Cache, logger), func() { _ = redis.Close() }
}

// cardCipher is optional for imports: a dump without cards needs no key.
func cardCipher(cfg config.SecurityConfig) (*core.CardCipher, error) {
	if cfg.CardEncryptionKey == "" {
		return nil, nil
	}
	key, err := core.ParseCardKey(cfg.CardEncryptionKey)
	if err != nil {
		return nil, err
	}
	return core.NewCardCipher(key)
}

func newKeygenCommand(opts *options) *cobra.Command {
	var privatePath, publicPath string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Write an ES256 key pair for operator tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			if privatePath == "" {
				privatePath = cfg.Auth.PrivateKeyPath
			}
			if publicPath == "" {
				publicPath = cfg.Auth.PublicKeyPath
			}

			for _, p := range []string{privatePath, publicPath} {
				if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
					return fmt.Errorf("create key dir: %w", err)
				}
			}

			if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "private key: %s\npublic key:  %s\n", privatePath, publicPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&privatePath, "private-key", "", "private key path (default auth.private_key_path)")
	cmd.Flags().StringVar(&publicPath, "public-key", "", "public key path (default auth.public_key_path)")
	return cmd
}

func newCardKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "card-key",
		Short: "Print a new base64 card encryption key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := core.GenerateCardKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func newTokenCommand(opts *options) *cobra.Command {
	var subject, role, privatePath, publicPath string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			if privatePath != "" {
				cfg.Auth.PrivateKeyPath = privatePath
			}
			if publicPath != "" {
				cfg.Auth.PublicKeyPath = publicPath
			}

			manager, err := auth.NewJWTManager(cfg.Auth)
			if err != nil {
				return err
			}

			token, err := manager.CreateToken(subject, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator name")
	cmd.Flags().StringVar(&role, "role", middleware.RoleViewer, "admin or viewer")
	cmd.Flags().StringVar(&privatePath, "private-key", "", "private key path (default auth.private_key_path)")
	cmd.Flags().StringVar(&publicPath, "public-key", "", "public key path (default auth.public_key_path)")
	_ = cmd.MarkFlagRequired("subject") //nolint:errcheck // flag exists
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode views: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func printResult(w io.Writer, parsed, inserted schema.Result) {
	names := make([]string, 0, len(parsed))
	for name := range parsed {
		names = append(names, name)
	}
	slices.Sort(names)

	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	for _, name := range names {
		fmt.Fprintf(w, "%-*s %6d parsed %6d inserted\n", width, name, parsed[name], inserted[name])
	}
	fmt.Fprintf(w, "%s %6d parsed %6d inserted\n",
		strings.Repeat(" ", width), parsed.Total(), inserted.Total())
}
