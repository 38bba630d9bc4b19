package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/answersynth/internal/app"
	"github.com/hyperifyio/answersynth/internal/llm"
	"github.com/hyperifyio/answersynth/internal/metrics"
	"github.com/hyperifyio/answersynth/internal/repl"
	"github.com/hyperifyio/answersynth/internal/shell"
	"github.com/hyperifyio/answersynth/internal/web"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFiles   []string
	cfg        app.Config
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("answersynth failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps run outcomes to process status: 2 when the run produced no
// answer because nothing usable was found, 1 for every other failure.
func exitCode(err error) int {
	if errors.Is(err, app.ErrNoResults) || errors.Is(err, app.ErrNoUsableContent) {
		return 2
	}
	return 1
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{cfg: app.DefaultConfig()}

	root := &cobra.Command{
		Use:   "answersynth",
		Short: "Synthesize an answer from forum discussions found via web search",
		Long: `answersynth searches a forum (quora.com by default) through the Serper API,
collects answer text from the results and asks Gemini to write one composite answer.

Without a subcommand it starts an interactive terminal session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), opts.cfg, out)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Path to YAML or JSON config file")
	f.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")
	f.StringVar((*string)(&opts.cfg.Mode), "mode", string(opts.cfg.Mode), "Fragment source: snippets or scrape")
	f.StringVar(&opts.cfg.Site, "site", opts.cfg.Site, "Forum domain to restrict the search to")
	f.StringVar(&opts.cfg.Model, "model", "", "Model name (default gemini-2.5-flash)")
	f.StringVar(&opts.cfg.LLMBaseURL, "llm-base", "", "OpenAI-compatible base URL (default Gemini)")
	f.StringVar(&opts.cfg.SerperURL, "serper-url", "", "Serper search endpoint")
	f.StringVar(&opts.cfg.SearchFile, "search-file", "", "Read search results from a JSON file instead of Serper")
	f.IntVar(&opts.cfg.MaxResults, "max-results", opts.cfg.MaxResults, "Maximum number of links to use")
	f.StringVar(&opts.cfg.SelectorsPath, "selectors", "", "Selector configuration file for scrape mode")
	f.StringVar(&opts.cfg.Extractor, "extractor", opts.cfg.Extractor, "Scrape extractor: selectors or readability")
	f.DurationVar(&opts.cfg.FetchTimeout, "fetch-timeout", opts.cfg.FetchTimeout, "Per-page fetch timeout in scrape mode")
	f.BoolVar(&opts.cfg.RespectRobots, "respect-robots", false, "Skip pages disallowed by robots.txt in scrape mode")
	f.IntVar(&opts.cfg.MinSnippetChars, "min-snippet-chars", 0, "Drop results whose snippet is shorter than this")
	f.BoolVarP(&opts.cfg.Verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(newServeCmd(opts), newAskCmd(opts, out), newModelsCmd(opts, out), newVersionCmd(out))
	return root
}

// resolve layers configuration: explicit flags, then env, then the config
// file, then defaults.
func (o *rootOptions) resolve() error {
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	app.ApplyEnvToConfig(&o.cfg)
	if strings.TrimSpace(o.configPath) != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&o.cfg, fc)
	}
	if o.cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return app.ValidateConfig(o.cfg)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
	cmd.Flags().StringVar(&opts.cfg.ListenAddr, "addr", opts.cfg.ListenAddr, "Listen address")
	return cmd
}

func newAskCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.ApplyKeysFromEnv(&opts.cfg)
			return runAsk(cmd.Context(), opts.cfg, strings.Join(args, " "), out, cmd.ErrOrStderr())
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.cfg.OutputPath, "out", "", "Write the answer as Markdown to this path")
	f.StringVar(&opts.cfg.OutputPDFPath, "pdf", "", "Also render the answer as PDF to this path")
	f.StringVar(&opts.cfg.GeminiKey, "gemini-key", "", "Gemini API key (or GEMINI_API_KEY)")
	f.StringVar(&opts.cfg.SerperKey, "serper-key", "", "Serper API key (or SERPER_API_KEY)")
	return cmd
}

func newModelsCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models the Gemini key can use and check the configured one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.ApplyKeysFromEnv(&opts.cfg)
			if strings.TrimSpace(opts.cfg.GeminiKey) == "" {
				return fmt.Errorf("%w: Gemini API key (--gemini-key or %s)", shell.ErrMissingInput, app.EnvGeminiKey)
			}
			model := opts.cfg.Model
			if strings.TrimSpace(model) == "" {
				model = llm.DefaultModel
			}
			return listModels(cmd.Context(), llm.NewProvider(opts.cfg.GeminiKey, opts.cfg.LLMBaseURL, nil), model, out)
		},
	}
	cmd.Flags().StringVar(&opts.cfg.GeminiKey, "gemini-key", "", "Gemini API key (or GEMINI_API_KEY)")
	return cmd
}

// listModels prints every model id, marking the configured one. A configured
// model the endpoint does not list is an error.
func listModels(ctx context.Context, ml llm.ModelLister, model string, out io.Writer) error {
	list, err := ml.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	found := false
	for _, m := range list.Models {
		id := strings.TrimPrefix(m.ID, "models/")
		mark := " "
		if id == model {
			mark = "*"
			found = true
		}
		fmt.Fprintf(out, "%s %s\n", mark, id)
	}
	if !found {
		return fmt.Errorf("configured model %q is not offered by the endpoint", model)
	}
	return nil
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(out, app.VersionString())
		},
	}
}

func runAsk(ctx context.Context, cfg app.Config, question string, out, errOut io.Writer) error {
	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	sh := shell.New(a, nil, string(cfg.Mode))
	progress := app.ReporterFunc(func(m app.Message) {
		fmt.Fprintf(errOut, "[%s] %s\n", m.Level, m.Text)
	})
	outcome, err := sh.Submit(ctx, app.Request{Question: question, GeminiKey: cfg.GeminiKey, SerperKey: cfg.SerperKey}, progress)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n\n%s\n", app.AnswerHeading(cfg.SiteLabel(), outcome.Result.Model), outcome.Result.Text)
	if cfg.OutputPath != "" || cfg.OutputPDFPath != "" {
		return app.WriteOutputs(question, outcome, a.Config())
	}
	return nil
}

func runInteractive(ctx context.Context, cfg app.Config, out io.Writer) error {
	r, err := newInteractive(cfg, out)
	if err != nil {
		return err
	}
	return r.Loop(ctx)
}

// newInteractive builds the terminal session. Keys are always prompted for,
// never taken from the environment.
func newInteractive(cfg app.Config, out io.Writer) (*repl.REPL, error) {
	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	sh := shell.New(a, nil, string(cfg.Mode))
	return repl.New(sh, out, cfg.SiteLabel(), "", ""), nil
}

func runServe(ctx context.Context, cfg app.Config) error {
	rec := metrics.New()
	a, err := app.New(cfg, app.WithMetrics(rec))
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := web.NewRouter(shell.New(a, rec, string(cfg.Mode)), a.Config(), rec)
	if err != nil {
		return fmt.Errorf("init router: %w", err)
	}
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("mode", string(a.Config().Mode)).Str("site", a.Config().Site).Msg("serving web form")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
