// Command pushctl is the report push operator CLI.
//
// Usage:
//
//	pushctl send --user 42 --school "School A" --data is_maintenance=true
//	pushctl preview --priority emergency --school "School A"
//	pushctl token
//	pushctl status
//	pushctl maintenance --retain 720h
//	pushctl schema
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/reportpush/internal/cache"
	"github.com/albapepper/reportpush/internal/config"
	"github.com/albapepper/reportpush/internal/db"
	"github.com/albapepper/reportpush/internal/maintenance"
	"github.com/albapepper/reportpush/internal/notifications"
)

var logger = slog.Default()

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "pushctl",
		Short:        "Report push notification CLI",
		SilenceUsage: true,
	}

	root.AddCommand(sendCmd())
	root.AddCommand(previewCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(maintenanceCmd())
	root.AddCommand(schemaCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// requestFlags are the send request fields shared by send and preview.
type requestFlags struct {
	user     string
	title    string
	body     string
	priority string
	school   string
	data     []string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "Recipient (supervisor) ID")
	cmd.Flags().StringVar(&f.title, "title", "", "Notification title")
	cmd.Flags().StringVar(&f.body, "body", "", "Notification body")
	cmd.Flags().StringVar(&f.priority, "priority", "", "Priority (emergency, high, routine)")
	cmd.Flags().StringVar(&f.school, "school", "", "School name shown in the notification")
	cmd.Flags().StringArrayVar(&f.data, "data", nil, "Extra data as key=value; values are decoded as JSON when possible")
}

func (f *requestFlags) request() (notifications.Request, error) {
	data, err := parseData(f.data)
	if err != nil {
		return notifications.Request{}, err
	}
	return notifications.Request{
		RecipientID:  strings.TrimSpace(f.user),
		Title:        f.title,
		Body:         f.body,
		Priority:     f.priority,
		ContextLabel: f.school,
		Data:         data,
	}, nil
}

// parseData turns key=value pairs into a data map. A value that parses as
// JSON keeps its type (true, 3, {"a":1}); anything else is a string.
func parseData(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	data := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --data %q: want key=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		data[key] = v
	}
	return data, nil
}

// --------------------------------------------------------------------------
// send command
// --------------------------------------------------------------------------

func sendCmd() *cobra.Command {
	var f requestFlags
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a notification to a supervisor's devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}
			if err := req.Validate(); err != nil {
				return err
			}
			return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				gateway := notifications.NewGateway(notifications.GatewayConfigFrom(cfg), logger)
				store := notifications.NewStore(pool.Pool, cache.New(false), logger)
				service := notifications.NewService(store, store, gateway, store, logger)

				start := time.Now()
				res, err := service.Send(ctx, req)
				if err != nil {
					return err
				}
				logger.Info("Send finished",
					"dispatch_id", res.DispatchID,
					"message", res.Summary.Message(),
					"duration", time.Since(start).Round(time.Millisecond))
				return printJSON(res)
			})
		},
	}
	f.register(cmd)
	return cmd
}

// --------------------------------------------------------------------------
// preview command
// --------------------------------------------------------------------------

func previewCmd() *cobra.Command {
	var f requestFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the formatted notification without sending",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}
			n := notifications.Format(req)
			return printJSON(map[string]any{
				"notification": n,
				"reportType":   n.ReportType(),
			})
		},
	}
	f.register(cmd)
	return cmd
}

// --------------------------------------------------------------------------
// token / status commands
// --------------------------------------------------------------------------

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Exchange the service account for an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg := setup()
			gateway := notifications.NewGateway(notifications.GatewayConfigFrom(cfg), logger)
			tok, err := gateway.Token(ctx)
			if err != nil {
				return err
			}
			// Only a prefix is printed so the output is safe to paste.
			prefix := tok.Value
			if len(prefix) > 12 {
				prefix = prefix[:12] + "..."
			}
			fmt.Printf("token:   %s\nexpires: %s (in %s)\n",
				prefix, tok.Expiry.Format(time.RFC3339), time.Until(tok.Expiry).Round(time.Second))
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the push credential loads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			st := notifications.NewGateway(notifications.GatewayConfigFrom(cfg), logger).Status()
			if err := printJSON(st); err != nil {
				return err
			}
			if !st.Configured {
				return fmt.Errorf("push credential not usable")
			}
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// maintenance command
// --------------------------------------------------------------------------

func maintenanceCmd() *cobra.Command {
	var retain time.Duration
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Run maintenance tasks once (dispatch log cleanup)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				mcfg := maintenance.DefaultConfig()
				mcfg.RetainDispatches = retain
				return maintenance.RunOnce(ctx, pool, nil, mcfg, logger)
			})
		},
	}
	cmd.Flags().DurationVar(&retain, "retain", maintenance.DefaultConfig().RetainDispatches, "Keep dispatch log rows newer than this")
	return cmd
}

func schemaCmd() *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create the dispatch log table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				fmt.Print(db.DispatchLogSchema)
				return nil
			}
			return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := pool.EnsureSchema(ctx); err != nil {
					return err
				}
				logger.Info("Dispatch log schema applied")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the DDL instead of applying it")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// setup loads configuration without requiring a database and installs the
// configured logger.
func setup() *config.Config {
	cfg := config.LoadWithoutDatabase()
	logger = cfg.NewLogger()
	slog.SetDefault(logger)
	return cfg
}

// runWithDB handles config loading, DB connection, and context cancellation.
func runWithDB(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = cfg.NewLogger()
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
