package analysis

import (
	"fmt"

	"legalyzer/internal/config"
	"legalyzer/internal/port"
)

// ProviderFactory creates an LLMProvider from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.LLMProvider, error)

// registry of provider factories, populated explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates an LLMProvider using the registered factory.
func NewProvider(cfg *config.ProviderConfig) (port.LLMProvider, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown analysis provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewProviderChain builds every configured provider and wraps them in a
// FallbackProvider in failover order.
func NewProviderChain(cfg *config.AnalysisConfig) (*FallbackProvider, error) {
	var (
		list  []port.LLMProvider
		names []string
	)
	for _, pc := range cfg.Providers() {
		p, err := NewProvider(pc)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
		names = append(names, pc.Provider)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no analysis providers configured")
	}
	return NewFallbackProvider(list, names, BreakerConfig{
		FailureThreshold: cfg.FailureThreshold,
		Recovery:         secondsOr(cfg.RecoverySecs, 120),
	}), nil
}
