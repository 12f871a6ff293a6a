package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Network is one gateway profile from networks.yaml.
type Network struct {
	ProxyURL  string `yaml:"proxy_url"`
	ChainID   string `yaml:"chain_id"`
	NumShards uint32 `yaml:"num_shards"`
}

// Networks holds the available gateway profiles and the default selection.
type Networks struct {
	Default  string             `yaml:"default"`
	Networks map[string]Network `yaml:"networks"`
}

// LoadNetworksFromPath loads gateway profiles from a specific path.
func LoadNetworksFromPath(path string) (*Networks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read networks config: %w", err)
	}

	var cfg Networks
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse networks config: %w", err)
	}

	for name, profile := range cfg.Networks {
		if profile.ProxyURL == "" {
			return nil, fmt.Errorf("network %s: proxy_url is required", name)
		}
		if profile.ChainID == "" {
			return nil, fmt.Errorf("network %s: chain_id is required", name)
		}
		if profile.NumShards == 0 {
			return nil, fmt.Errorf("network %s: num_shards is required", name)
		}
	}
	if cfg.Default != "" {
		if _, ok := cfg.Networks[cfg.Default]; !ok {
			return nil, fmt.Errorf("default network %s is not defined", cfg.Default)
		}
	}
	return &cfg, nil
}

// LoadNetworksOrDefault loads gateway profiles or returns the built-in
// profiles if the file is not found.
func LoadNetworksOrDefault(path string) *Networks {
	cfg, err := LoadNetworksFromPath(path)
	if err != nil {
		return DefaultNetworks()
	}
	return cfg
}

// DefaultNetworks returns the built-in gateway profiles.
func DefaultNetworks() *Networks {
	return &Networks{
		Default: "devnet",
		Networks: map[string]Network{
			"devnet": {
				ProxyURL:  "https://devnet-gateway.multiversx.com",
				ChainID:   "D",
				NumShards: 3,
			},
			"testnet": {
				ProxyURL:  "https://testnet-gateway.multiversx.com",
				ChainID:   "T",
				NumShards: 3,
			},
		},
	}
}

// Profile resolves a named profile, falling back to the file's default when
// name is empty.
func (n *Networks) Profile(name string) (Network, error) {
	if name == "" {
		name = n.Default
	}
	if name == "" {
		return Network{}, fmt.Errorf("no network selected and no default defined")
	}
	profile, ok := n.Networks[name]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q", name)
	}
	return profile, nil
}
