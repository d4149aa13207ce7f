package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pbaille/masari/internal/answerer"
	"github.com/pbaille/masari/internal/api"
	"github.com/pbaille/masari/internal/config"
	"github.com/pbaille/masari/internal/dialogue"
	"github.com/pbaille/masari/internal/domain"
	"github.com/pbaille/masari/internal/intent"
	"github.com/pbaille/masari/internal/speech"
	"github.com/pbaille/masari/internal/store"
)

var (
	dbPath     string
	configPath string
	langFlag   string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger

	nowFunc = time.Now
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "masari",
		Short:        "Bilingual voice assistant for tasks, appointments, goals and money",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lc := zap.NewProductionConfig()
			if verbose {
				lc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = lc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			// config get/set must work on a file that does not load
			if p := cmd.Parent(); p != nil && p.Name() == "config" {
				return nil
			}
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.DB
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "reply language: ar or es (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(sayCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(doneCmd())
	rootCmd.AddCommand(shoppingCmd())
	rootCmd.AddCommand(boughtCmd())
	rootCmd.AddCommand(goalsCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(placesCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getStore() (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(dbPath)
}

func replyLang() (dialogue.Lang, error) {
	if langFlag != "" {
		return dialogue.ParseLang(langFlag)
	}
	return dialogue.ParseLang(cfg.Language)
}

// newAnswerer picks the question backend from config. Questions are
// answered with a failure message when no backend is available.
func newAnswerer(ctx context.Context) dialogue.Answerer {
	var (
		backend answerer.Backend
		err     error
	)
	switch cfg.Answerer.Provider {
	case "gemini":
		backend, err = answerer.NewGemini(ctx, os.Getenv("GEMINI_API_KEY"), cfg.Answerer.BaseURL)
	default:
		backend, err = answerer.AnthropicFromEnv(cfg.Answerer.BaseURL)
	}
	if err != nil {
		logger.Debug("answerer disabled", zap.String("provider", cfg.Answerer.Provider), zap.Error(err))
		return nil
	}

	a, err := answerer.New(backend, cfg.Answerer.ModelList(), logger)
	if err != nil {
		logger.Debug("answerer disabled", zap.Error(err))
		return nil
	}
	return a
}

// fixedLocator reports the position configured under location.*.
type fixedLocator struct {
	pos domain.Coordinates
}

func (l fixedLocator) Locate(context.Context) (domain.Coordinates, error) {
	return l.pos, nil
}

// newVoice returns the configured speech output and a function that lets
// the last reply finish playing, then releases it.
func newVoice() (dialogue.Voice, func()) {
	if !cfg.Speech.Enabled {
		return speech.Nop{}, func() {}
	}
	synth := speech.DefaultCommand()
	if cfg.Speech.Command != "" {
		synth.Command = cfg.Speech.Command
	}
	if len(cfg.Speech.Args) > 0 {
		synth.Args = cfg.Speech.Args
	}
	sp := speech.NewSpeaker(synth, logger)
	return sp, func() {
		sp.Wait()
		sp.Close()
	}
}

func newController(ctx context.Context, s *store.Store, voice dialogue.Voice) *dialogue.Controller {
	deps := dialogue.Deps{
		Tasks:    s,
		Goals:    s,
		Ledger:   s,
		Shopping: s,
		Places:   s,
		Journal:  s,
		Voice:    voice,
		Logger:   logger,

		PlaceName: cfg.Location.Name,
	}
	if a := newAnswerer(ctx); a != nil {
		deps.Answerer = a
	}
	if cfg.Location.HasPosition() {
		deps.Locator = fixedLocator{pos: domain.Coordinates{Lat: cfg.Location.Lat, Lng: cfg.Location.Lng}}
	}
	return dialogue.New(deps)
}

func newSessionID() string {
	return fmt.Sprintf("cli-%d", time.Now().UnixNano())
}

func printReply(w io.Writer, r dialogue.Reply) {
	if r.Question != "" {
		fmt.Fprintln(w, r.Question)
		return
	}
	fmt.Fprintln(w, r.Text)
	if r.Answer != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, r.Answer)
	}
}

func sayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "say [utterance]",
		Short: "Run one command; asks on stdin for anything missing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := replyLang()
			if err != nil {
				return err
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			voice, release := newVoice()
			defer release()
			ctrl := newController(ctx, s, voice)

			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			sess := ctrl.Listen(dialogue.NewSession(newSessionID(), lang))
			sess, reply := ctrl.Turn(ctx, sess, strings.Join(args, " "))
			printReply(out, reply)

			for sess.State == dialogue.AskingSlot {
				if !in.Scan() {
					ctrl.Reset(sess)
					return nil
				}
				sess, reply = ctrl.Turn(ctx, sess, in.Text())
				printReply(out, reply)
			}
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "extract [utterance]",
		Short: "Print the intent extracted from an utterance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := nowFunc()
			if date != "" {
				d, err := time.ParseInLocation(intent.DateLayout, date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
				ref = d
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(intent.Extract(strings.Join(args, " "), ref))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "reference date (YYYY-MM-DD), default today")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := replyLang()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			voice, release := newVoice()
			defer release()

			server := api.New(newController(ctx, s, voice), s, api.Options{Lang: lang, Logger: logger})
			return server.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (default from config)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or change settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print the effective value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.Get(configPath, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key] [value]",
		Short: "Write a setting to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Set(configPath, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List the known settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range config.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	})

	return cmd
}
