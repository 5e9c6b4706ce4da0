// Command foodscan runs the QR table-ordering service: the HTTP API, the Telegram bot and
// the maintenance commands around them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"foodscan/api"
	"foodscan/bot"
	"foodscan/broker"
	"foodscan/config"
	"foodscan/db"
	"foodscan/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "foodscan",
	Short:         "Restaurant QR ordering: HTTP API and Telegram bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		l, err := logging.New(c.Log.Level, c.Log.Format)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var withBot bool

// serveCmd runs the HTTP API, and the Telegram bot alongside it when a token is configured.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the bot when TOKEN is set)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), true, withBot && cfg.Telegram.Token != "")
	},
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run only the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Telegram.Token == "" {
			return errors.New("TOKEN not set")
		}
		return run(cmd.Context(), false, true)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.Init(cmd.Context(), cfg.DB); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer db.Close()
		return applyMigrations(cmd.Context(), logger)
	},
}

func run(ctx context.Context, httpOn, botOn bool) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	var b *bot.Bot
	if botOn {
		b, err = bot.New(cfg.Telegram, a.backend, a.carts, a.placer, logger)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.sweep(gctx) })

	if httpOn {
		srv := api.NewServer(a.backend, a.carts, a.placer, logger.Named("http"))
		g.Go(func() error { return srv.Run(gctx, cfg.HTTP.Addr) })
	}
	if b != nil {
		g.Go(func() error { return b.Run(gctx) })
		if a.rabbit != nil {
			keys := []string{broker.KeyOrderCreated, broker.StatusKey("*")}
			g.Go(func() error { return a.rabbit.Consume(gctx, botQueue, keys, b.HandleEvent) })
		}
	}

	logger.Info("foodscan started", zap.Bool("http", httpOn), zap.Bool("bot", botOn))
	err = g.Wait()
	logger.Info("foodscan stopped")
	return err
}

func init() {
	serveCmd.Flags().BoolVar(&withBot, "bot", true, "also run the Telegram bot when TOKEN is set")
	rootCmd.AddCommand(serveCmd, botCmd, migrateCmd, ownerCmd, cartsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "foodscan:", err)
		os.Exit(1)
	}
}
