package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/pavelanni/quizboard/internal/handler"
	appI18n "github.com/pavelanni/quizboard/internal/i18n"
	"github.com/pavelanni/quizboard/internal/llm"
	"github.com/pavelanni/quizboard/internal/model"
	"github.com/pavelanni/quizboard/internal/session"
	"github.com/pavelanni/quizboard/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizboard",
		Short: "Multiple-choice quiz server with a live scoreboard",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizboard --port ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.IntP("port", "p", 3000, "HTTP listen port (or set PORT)")
	f.String("data-dir", "data", "Directory holding the question and result files")
	f.String("questions", "", "Question bank JSON file (default <data-dir>/perguntas.json)")
	f.String("results", "", "Results JSON file (default <data-dir>/resultados.json)")
	f.StringP("lang", "l", "pt-BR", "UI language (pt-BR, en)")
	f.Bool("negotiate-lang", false, "Pick the UI language per request from ?lang= or Accept-Language")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /quiz)")
	f.String("session-backend", "memory", "Quiz session backend (memory, redis)")
	f.Duration("session-ttl", 24*time.Hour, "Lifetime of quiz sessions and their cookie")
	f.String("redis-addr", "localhost:6379", "Redis address for the redis session backend")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.Bool("secure-cookies", false, "Set Secure flag on session cookies")
	f.Bool("shuffle", false, "Randomize question order")
	f.IntP("num-questions", "n", 0, "Number of questions per quiz (0 = all matching)")
	f.String("llm-url", "", "OpenAI-compatible API base URL for drafting questions (empty disables)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export quiz attempts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("data-dir", "data", "Directory holding the result file")
	f.String("results", "", "Results JSON file (default <data-dir>/resultados.json)")
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

	v.SetEnvPrefix("QUIZBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Hosting platforms hand out the port as plain PORT.
	_ = v.BindEnv("port", "QUIZBOARD_PORT", "PORT")

	v.SetConfigName("quizboard")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizboard")
	v.AddConfigPath("/etc/quizboard")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// dataPath returns the value of key, or name inside the data directory.
func dataPath(v *viper.Viper, key, name string) string {
	if p := v.GetString(key); p != "" {
		return p
	}
	return filepath.Join(v.GetString("data-dir"), name)
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	questions := store.NewQuestionStore(dataPath(v, "questions", "perguntas.json"))
	if n := len(questions.Load()); n == 0 {
		slog.Warn("question bank is empty", "path", questions.Path())
	} else {
		slog.Info("question bank loaded", "path", questions.Path(), "count", n)
	}

	results, err := store.NewResultStore(dataPath(v, "results", "resultados.json"))
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer results.Close()

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	sessions, err := openSessionStore(ctx, v)
	if err != nil {
		return err
	}
	defer sessions.Close()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	quizCfg := model.QuizConfig{
		NumQuestions:  v.GetInt("num-questions"),
		Shuffle:       v.GetBool("shuffle"),
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		Lang:          lang,
	}
	manager := session.NewManager(sessions, v.GetDuration("session-ttl"), quizCfg.SecureCookies, basePath)

	var drafter handler.QuestionDrafter
	if url := v.GetString("llm-url"); url != "" {
		client := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"), languageName(lang))
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := client.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
		drafter = client
	}

	h, err := handler.New(questions, results, manager, drafter, quizCfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(v.GetBool("negotiate-lang")))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := ":" + strconv.Itoa(v.GetInt("port"))
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"questions", questions.Path(),
		"results", results.Path(),
		"session_backend", v.GetString("session-backend"),
		"num_questions", quizCfg.NumQuestions,
		"shuffle", quizCfg.Shuffle,
		"base_path", basePath,
		"llm", drafter != nil,
	)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openSessionStore(ctx context.Context, v *viper.Viper) (session.Store, error) {
	switch backend := strings.ToLower(v.GetString("session-backend")); backend {
	case "", "memory":
		return session.NewMemoryStore(time.Minute), nil
	case "redis":
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		s, err := session.NewRedisStore(connectCtx, v.GetString("redis-addr"), v.GetString("redis-password"), v.GetInt("redis-db"))
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q (want memory or redis)", backend)
	}
}

// languageName returns the English name of lang for LLM prompts, e.g.
// "Brazilian Portuguese" for pt-BR.
func languageName(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	return display.English.Tags().Name(tag)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	results, err := store.NewResultStore(dataPath(v, "results", "resultados.json"))
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer results.Close()

	export := model.NewAttemptsExport(results.ReadAll(), time.Now())

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

	slog.Info("exported attempts", "count", export.Count, "output", outPath)
	return nil
}
