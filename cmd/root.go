package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/larkin/modelgate/access"
	"github.com/larkin/modelgate/config"
	"github.com/larkin/modelgate/dispatch"
	"github.com/larkin/modelgate/providers/ai"
	"github.com/larkin/modelgate/providers/ai/fal"
	"github.com/larkin/modelgate/providers/ai/gemini"
	"github.com/larkin/modelgate/providers/ai/openrouter"
	"github.com/larkin/modelgate/registry"
	"github.com/larkin/modelgate/session"
	"github.com/larkin/modelgate/usage"
)

var (
	userID  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "modelgate",
	Short: "Chat with interchangeable AI backends through one gateway",
	Long: `modelgate routes chat messages to one of several AI backends (text and
image generation) while enforcing an operator allow-list and recording usage.

The --user flag identifies you to the access gate; only identifiers on the
configured allow-list (or the admin id) are served.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", os.Getenv("MODELGATE_USER_ID"), "user identifier presented to the access gate")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelsCmd)
}

// Execute is the entry point called from main.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles everything a command needs at runtime.
type app struct {
	cfg        *config.Config
	gate       *access.Gate
	registry   *registry.Registry
	sessions   *session.Store
	dispatcher *dispatch.Dispatcher
	closeSink  func() error
}

// buildApp loads configuration and assembles the core: gate, registry,
// session store, usage sink, dispatcher.
func buildApp() (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	models := reg.List()
	if len(models) == 0 {
		return nil, fmt.Errorf("no provider API keys configured, nothing to route to")
	}

	defaultModel := cfg.DefaultModel
	if !reg.Has(defaultModel) {
		defaultModel = models[0].ID
		logger.Warn("configured default model not registered, using first registered model",
			slog.String("configured", cfg.DefaultModel),
			slog.String("using", defaultModel),
		)
	}

	var sink usage.Sink
	closeSink := func() error { return nil }
	if cfg.UsageDBPath != "" {
		sqliteSink, err := usage.NewSQLiteSink(cfg.UsageDBPath)
		if err != nil {
			return nil, fmt.Errorf("usage sink: %w", err)
		}
		sink = sqliteSink
		closeSink = sqliteSink.Close
	} else {
		sink = usage.NewLogSink(logger)
	}

	gate := access.NewGate(cfg.AllowedUserIDs, cfg.AdminID)
	sessions := session.NewStore(reg, defaultModel, cfg.MaxTokens)
	dispatcher := dispatch.New(dispatch.Config{
		Gate:      gate,
		Sessions:  sessions,
		Registry:  reg,
		Sink:      sink,
		Logger:    logger,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.RequestTimeout,
	})

	return &app{
		cfg:        cfg,
		gate:       gate,
		registry:   reg,
		sessions:   sessions,
		dispatcher: dispatcher,
		closeSink:  closeSink,
	}, nil
}

// buildRegistry registers the routable models for every provider that has
// an API key configured. The descriptor id is what users select by; the
// wire name is what the provider expects.
func buildRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New()

	if cfg.OpenRouterAPIKey != "" {
		adapter := openrouter.New().WithAPIKey(cfg.OpenRouterAPIKey)
		descriptors := []registry.ModelDescriptor{
			{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", WireName: "openai/gpt-4o-mini", Modality: ai.ModalityText, MaxTokens: cfg.MaxTokens, Adapter: adapter},
			{ID: "claude-sonnet", DisplayName: "Claude Sonnet", WireName: "anthropic/claude-3.7-sonnet", Modality: ai.ModalityText, MaxTokens: cfg.MaxTokens, Adapter: adapter},
			{ID: "sonar", DisplayName: "Perplexity Sonar", WireName: "perplexity/sonar", Modality: ai.ModalityText, MaxTokens: cfg.MaxTokens, Adapter: adapter},
		}
		for _, d := range descriptors {
			if err := reg.Register(d); err != nil {
				return nil, err
			}
		}
	}

	if cfg.GeminiAPIKey != "" {
		adapter := gemini.New().WithAPIKey(cfg.GeminiAPIKey)
		if err := reg.Register(registry.ModelDescriptor{
			ID: "gemini-flash", DisplayName: "Gemini Flash", WireName: "gemini-2.0-flash",
			Modality: ai.ModalityText, MaxTokens: cfg.MaxTokens, Adapter: adapter,
		}); err != nil {
			return nil, err
		}
	}

	if cfg.FalAPIKey != "" {
		adapter := fal.New().WithAPIKey(cfg.FalAPIKey)
		if err := reg.Register(registry.ModelDescriptor{
			ID: "flux", DisplayName: "FLUX image generation", WireName: "fal-ai/flux/dev",
			Modality: ai.ModalityImage, MaxTokens: cfg.MaxTokens, Adapter: adapter,
		}); err != nil {
			return nil, err
		}
	}

	return reg, nil
}
