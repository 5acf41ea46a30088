package parser

import (
	"fmt"

	"docsense/internal/config"
	"docsense/internal/port"
)

// ProviderFactory is a function that creates an ExtractionParser from a
// provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.ExtractionParser, error)

// registry of parser provider factories, populated by RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a parser provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewParser creates an ExtractionParser from a provider config using the
// registered factory.
func NewParser(cfg *config.ParserProviderConfig) (port.ExtractionParser, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown parser provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
