package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ingestbot/internal/config"
	"ingestbot/internal/domain"
)

// ProviderConstructor creates a provider from a config entry.
type ProviderConstructor func(ctx context.Context, pc config.ProviderConfig, logger *slog.Logger) (domain.Provider, error)

// Factory creates and caches LLM providers from config.
type Factory struct {
	cfg          *config.Config
	logger       *slog.Logger
	constructors map[string]ProviderConstructor
	cache        map[string]domain.Provider
	mu           sync.RWMutex
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	f := &Factory{
		cfg:          cfg,
		logger:       logger,
		constructors: make(map[string]ProviderConstructor),
		cache:        make(map[string]domain.Provider),
	}
	f.registerDefaults()
	return f
}

// RegisterConstructor adds (or replaces) a provider constructor by name.
func (f *Factory) RegisterConstructor(name string, ctor ProviderConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = ctor
}

func (f *Factory) registerDefaults() {
	f.constructors["gemini"] = func(ctx context.Context, pc config.ProviderConfig, logger *slog.Logger) (domain.Provider, error) {
		return NewGemini(ctx, GeminiConfig{APIKey: pc.APIKey, Model: pc.DefaultModel, Logger: logger})
	}
	f.constructors["openai"] = func(ctx context.Context, pc config.ProviderConfig, logger *slog.Logger) (domain.Provider, error) {
		return NewOpenAI(OpenAIConfig{APIKey: pc.APIKey, APIBase: pc.APIBase, Model: pc.DefaultModel, Logger: logger}), nil
	}
}

// Get returns the provider with the given name, or the default when name is
// empty. Created providers are cached; double-check locking avoids building
// the same provider twice.
func (f *Factory) Get(ctx context.Context, name string) (domain.Provider, error) {
	if name == "" {
		name = f.cfg.General.DefaultProvider
	}

	f.mu.RLock()
	if cached, ok := f.cache[name]; ok {
		f.mu.RUnlock()
		return cached, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.cache[name]; ok {
		return cached, nil
	}

	pc, ok := f.cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	if !pc.Enabled {
		return nil, fmt.Errorf("provider %s is disabled", name)
	}

	ctor, found := f.constructors[name]

	var p domain.Provider
	var err error
	if found {
		p, err = ctor(ctx, pc, f.logger)
	} else if pc.APIBase != "" && pc.APIKey != "" {
		// Fallback: treat unknown providers as OpenAI-compatible.
		p = NewOpenAI(OpenAIConfig{APIKey: pc.APIKey, APIBase: pc.APIBase, Model: pc.DefaultModel, Logger: f.logger})
	} else {
		return nil, fmt.Errorf("provider %s: no constructor registered and no API base/key configured", name)
	}
	if err != nil {
		return nil, fmt.Errorf("create provider %s: %w", name, err)
	}

	f.cache[name] = p
	return p, nil
}

// DefaultProvider returns the configured default provider.
func (f *Factory) DefaultProvider(ctx context.Context) (domain.Provider, error) {
	return f.Get(ctx, "")
}
