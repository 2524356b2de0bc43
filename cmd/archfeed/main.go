package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"archfeed/internal/card"
	"archfeed/internal/config"
	"archfeed/internal/feed"
	"archfeed/internal/model"
	"archfeed/internal/reader"
	"archfeed/internal/server"
	"archfeed/internal/share"
	"archfeed/internal/tui"
	"archfeed/internal/wiki"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	cfg        *config.Config
	configPath string

	redisAddr  string
	badgerPath string
	ledgerKind string
	session    string
	category   string
	strategy   string
	jsonLog    bool
	debugLog   bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "archfeed",
	Short: "archfeed - A card feed of Wikipedia architecture articles",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = newLogger(cfg.Log, cmd.Name() == browseCmd.Name())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// applyFlags lets explicitly set flags win over file and environment.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("redis") {
		cfg.Redis.Addr = redisAddr
	}
	if flags.Changed("badger") {
		cfg.Ledger.BadgerPath = badgerPath
	}
	if flags.Changed("ledger") {
		cfg.Ledger.Backend = ledgerKind
	}
	if flags.Changed("session") {
		cfg.Ledger.Session = session
	}
	if flags.Changed("category") {
		cfg.Feed.Category = category
	}
	if flags.Changed("strategy") {
		cfg.Feed.Strategy = strategy
	}
	if flags.Changed("json-log") {
		cfg.Log.JSON = jsonLog
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = debugLog
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
}

func printNotice(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print batches of articles",
	Run: func(cmd *cobra.Command, args []string) {
		batches, _ := cmd.Flags().GetInt("batches")
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, logger, share.NotifierFunc(printNotice))
		if err != nil {
			logger.Fatal("Failed to start session", zap.Error(err))
		}
		defer a.Close()

		shown := 0
		for i := 0; i < batches; i++ {
			if _, err := a.source.FetchMore(ctx); err != nil {
				if errors.Is(err, feed.ErrExhausted) {
					break
				}
				logger.Fatal("Failed to fetch articles", zap.Error(err))
			}
			articles := a.source.Articles()
			for _, art := range articles[shown:] {
				fmt.Printf("%d\t%s\t%s\n", art.PageID, art.Title, art.URL())
			}
			shown = len(articles)
		}
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Swipe through articles in the terminal",
	Run: func(cmd *cobra.Command, args []string) {
		var prog *tea.Program
		notify := share.NotifierFunc(func(msg string) {
			if prog != nil {
				prog.Send(tui.NoticeMsg(msg))
			}
		})

		a, err := newApp(cmd.Context(), cfg, logger, notify)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer a.Close()

		m := tui.NewModel(a.source, a.client, a.sharer, reader.NewReader(cfg.Wiki.ReadTimeout, logger), cfg.Feed.Category, logger)
		prog = tea.NewProgram(m, tea.WithAltScreen())
		if _, err := prog.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the feed as a JSON API",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Setup Signal Handling (Ctrl+C)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		a, err := newApp(ctx, cfg, logger, share.NotifierFunc(func(msg string) {
			logger.Info(msg)
		}))
		if err != nil {
			logger.Fatal("Failed to start session", zap.Error(err))
		}
		defer a.Close()

		srv := server.NewServer(a.source, a.client, a.sharer, cfg.Feed.Category, logger)
		go func() {
			if err := srv.Start(cfg.HTTP.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Web server failed", zap.Error(err))
				cancel()
			}
		}()

		select {
		case <-sigChan:
			logger.Info("Shutting down...")
		case <-ctx.Done():
		}

		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
		logger.Info("Goodbye!")
	},
}

// lookupArticle loads the summary fields of one page.
func lookupArticle(ctx context.Context, a *app, arg string) (model.Article, error) {
	pageID, err := strconv.Atoi(arg)
	if err != nil {
		return model.Article{}, fmt.Errorf("invalid page id %q", arg)
	}
	pages, err := a.client.PageDetails(ctx, []int{pageID})
	if err != nil {
		return model.Article{}, err
	}
	if len(pages) == 0 {
		return model.Article{}, fmt.Errorf("page %d: %w", pageID, wiki.ErrNoPages)
	}
	return pages[0], nil
}

var cardCmd = &cobra.Command{
	Use:   "card [pageid]",
	Short: "Validate and render one article card",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, logger, share.NotifierFunc(printNotice))
		if err != nil {
			logger.Fatal("Failed to start session", zap.Error(err))
		}
		defer a.Close()

		art, err := lookupArticle(ctx, a, args[0])
		if err != nil {
			logger.Fatal("Failed to load article", zap.Error(err))
		}

		c := card.New(art, a.client, cfg.Feed.Category, logger)
		c.Validate(ctx)

		out := c.Render(72)
		if out == "" {
			fmt.Println(card.NotCategorizedMessage)
			return
		}
		fmt.Println(out)

		if doShare, _ := cmd.Flags().GetBool("share"); doShare {
			if err := c.Share(ctx, a.sharer); err != nil {
				os.Exit(1)
			}
		}
	},
}

var readCmd = &cobra.Command{
	Use:   "read [pageid]",
	Short: "Download the readable text of an article",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, logger, nil)
		if err != nil {
			logger.Fatal("Failed to start session", zap.Error(err))
		}
		defer a.Close()

		art, err := lookupArticle(ctx, a, args[0])
		if err != nil {
			logger.Fatal("Failed to load article", zap.Error(err))
		}

		reading, err := reader.NewReader(cfg.Wiki.ReadTimeout, logger).Read(ctx, art)
		if err != nil {
			logger.Fatal("Failed to read article", zap.Error(err))
		}

		fmt.Println(reading.Title)
		fmt.Println(reading.URL)
		fmt.Println()
		if html, _ := cmd.Flags().GetBool("html"); html {
			fmt.Println(reading.Content)
			return
		}
		fmt.Println(reading.Excerpt)
	},
}

func main() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&redisAddr, "redis", "localhost:6379", "Address of Redis server")
	pf.StringVar(&badgerPath, "badger", "./archfeed-data", "Path to BadgerDB data directory")
	pf.StringVar(&ledgerKind, "ledger", "memory", "Seen-id ledger backend: memory, redis or badger")
	pf.StringVar(&session, "session", "", "Resume a feed session by id")
	pf.StringVar(&category, "category", "Category:Architecture", "Wikipedia category to browse")
	pf.StringVar(&strategy, "strategy", "random", "Fetch strategy: cursor or random")
	pf.BoolVar(&jsonLog, "json-log", false, "Log JSON instead of console output")
	pf.BoolVar(&debugLog, "debug", false, "Enable debug logging")
	pf.StringVar(&logFile, "log-file", "", "Write logs to this file")

	feedCmd.Flags().Int("batches", 1, "Number of batches to fetch")
	cardCmd.Flags().Bool("share", false, "Share the card after rendering")
	readCmd.Flags().Bool("html", false, "Print the cleaned HTML instead of the excerpt")

	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(readCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
