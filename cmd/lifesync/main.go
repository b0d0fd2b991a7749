package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/salatiso/lifesync/internal/api"
	"github.com/salatiso/lifesync/internal/backend"
	"github.com/salatiso/lifesync/internal/handler"
	appI18n "github.com/salatiso/lifesync/internal/i18n"
	"github.com/salatiso/lifesync/internal/llm"
	"github.com/salatiso/lifesync/internal/llm/prompts"
	"github.com/salatiso/lifesync/internal/model"
	"github.com/salatiso/lifesync/internal/session"
	"github.com/salatiso/lifesync/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lifesync",
		Short: "Couples compatibility assessment server",
	}

	serve := serveCmd()
	root.AddCommand(serve, backendCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `lifesync --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the guest-facing web server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("api-url", "http://localhost:8090", "Base URL of the assessment API")
	f.StringP("lang", "l", "en", "Default UI language (en, af, zu, xh)")
	f.Int("max-sessions", 256, "Maximum concurrent guest sessions")
	f.Duration("session-ttl", time.Hour, "Idle guest session lifetime")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func backendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Start the assessment API server",
		RunE:  runBackend,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8090", "HTTP listen address")
	f.String("db", "lifesync.db", "SQLite database path")
	f.StringSliceP("questions", "q", []string{"questions/guest_en.json"}, "Paths to questions JSON files (repeatable)")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty = rule-based feedback)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("feedback-tone", string(prompts.ToneNeutral), "Feedback prompt tone (encouraging, neutral, concise)")
	f.Duration("report-ttl", 7*24*time.Hour, "Guest report lifetime")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored guest reports as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "lifesync.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("LIFESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("lifesync")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/lifesync")
	v.AddConfigPath("/etc/lifesync")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	if !appI18n.Supported(lang) {
		return fmt.Errorf("unsupported language %q (have %v)", lang, appI18n.Languages())
	}

	cfg := model.ServeConfig{
		APIURL:      strings.TrimRight(v.GetString("api-url"), "/"),
		DefaultLang: lang,
		MaxSessions: v.GetInt("max-sessions"),
	}

	client := api.New(cfg.APIURL)
	registry := session.NewRegistry(client, cfg.MaxSessions, v.GetDuration("session-ttl"))
	h := handler.New(registry, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting guest server",
		"addr", addr,
		"api_url", cfg.APIURL,
		"lang", lang,
		"max_sessions", cfg.MaxSessions,
	)
	return http.ListenAndServe(addr, r)
}

func runBackend(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := loadQuestions(db, v.GetStringSlice("questions")); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if err := db.PurgeExpiredReports(); err != nil {
		return fmt.Errorf("purge expired reports: %w", err)
	}

	cfg := model.BackendConfig{
		DBPath:       v.GetString("db"),
		LLMURL:       v.GetString("llm-url"),
		LLMKey:       v.GetString("llm-key"),
		LLMModel:     v.GetString("llm-model"),
		FeedbackTone: strings.ToLower(strings.TrimSpace(v.GetString("feedback-tone"))),
		ReportTTL:    v.GetDuration("report-ttl"),
	}

	var llmClient backend.LLM
	if cfg.LLMURL != "" {
		if !prompts.IsValidTone(cfg.FeedbackTone) {
			slog.Warn("invalid feedback-tone, using neutral", "tone", cfg.FeedbackTone)
			cfg.FeedbackTone = string(prompts.ToneNeutral)
		}
		c, err := llm.New(cfg.LLMURL, cfg.LLMKey, cfg.LLMModel, cfg.FeedbackTone)
		if err != nil {
			return fmt.Errorf("create LLM client: %w", err)
		}
		if err := c.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", cfg.LLMURL, "model", cfg.LLMModel, "tone", cfg.FeedbackTone)
		llmClient = c
	} else {
		slog.Info("no LLM endpoint configured, using rule-based feedback")
	}

	backend.RegisterMetrics()
	srv := backend.New(db, llmClient, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: v.GetStringSlice("cors-origins"),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(backend.MetricsMiddleware())
	srv.Routes(r)
	r.Handle("/metrics", backend.MetricsHandler())

	addr := v.GetString("addr")
	slog.Info("starting assessment API",
		"addr", addr,
		"db", cfg.DBPath,
		"report_ttl", cfg.ReportTTL,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAllReports()
	if err != nil {
		return fmt.Errorf("export reports: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

// loadQuestions imports the question files, skipping the import when no
// file changed since the last run. A changed set replaces the stored
// one wholesale; stored reports keep their answer echoes either way.
func loadQuestions(db *store.Store, paths []string) error {
	var all []model.Question
	hashes := make(map[string]string, len(paths))
	changed := false

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		hashes[path] = hash
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash != hash {
			changed = true
		}

		questions, err := model.DecodeQuestions(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		all = append(all, questions...)
	}

	count, err := db.QuestionCount()
	if err != nil {
		return err
	}
	if !changed && count > 0 {
		slog.Info("question files unchanged, skipping import")
		return nil
	}

	if err := db.ReplaceQuestions(all); err != nil {
		return fmt.Errorf("replace questions: %w", err)
	}
	for path, hash := range hashes {
		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
	}
	slog.Info("imported questions", "files", len(paths), "count", len(all))
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
