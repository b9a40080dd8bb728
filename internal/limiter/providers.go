package limiter

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderLimits maps a sending account's provider key to its daily send
// ceiling. Unknown providers fall back to Default.
type ProviderLimits struct {
	Default   int            `yaml:"default"`
	Providers map[string]int `yaml:"providers"`
}

// DefaultProviderLimits mirrors the ceilings shipped with the service:
// well-established providers get more headroom, everything else is capped
// conservatively.
func DefaultProviderLimits() *ProviderLimits {
	return &ProviderLimits{
		Default: 100,
		Providers: map[string]int{
			"gmail":   500,
			"outlook": 300,
		},
	}
}

// LoadProviderLimits reads ceilings from a YAML file. An empty path or a
// missing file yields the defaults.
func LoadProviderLimits(path string) (*ProviderLimits, error) {
	if path == "" {
		return DefaultProviderLimits(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProviderLimits(), nil
		}
		return nil, err
	}
	limits := DefaultProviderLimits()
	if err := yaml.Unmarshal(data, limits); err != nil {
		return nil, err
	}
	if limits.Default < 1 {
		limits.Default = DefaultProviderLimits().Default
	}
	return limits, nil
}

func (p *ProviderLimits) LimitFor(provider string) int {
	if limit, ok := p.Providers[provider]; ok {
		return limit
	}
	return p.Default
}
