package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the deployment parameters of the market engine.
type Config struct {
	// Owner is the hex-encoded operator address fixed at construction.
	Owner string `toml:"Owner"`
	// Vault is the hex-encoded address holding custody and fee revenue.
	Vault string `toml:"Vault"`
	// ListingFee is the flat per-listing charge in the smallest value unit,
	// encoded as a decimal string to survive amounts beyond uint64.
	ListingFee string `toml:"ListingFee"`
	// DataDir is where the persistent listing store lives. Empty selects
	// the in-memory backend.
	DataDir string `toml:"DataDir"`
	// StartPaused engages the market switch before the first operation.
	StartPaused bool `toml:"StartPaused"`
}

// Load reads and validates a TOML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for structurally invalid values.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if _, err := decodeAddress(c.Owner); err != nil {
		return fmt.Errorf("config: owner: %w", err)
	}
	if _, err := decodeAddress(c.Vault); err != nil {
		return fmt.Errorf("config: vault: %w", err)
	}
	if _, err := c.ListingFeeAmount(); err != nil {
		return err
	}
	return nil
}

// OwnerAddress decodes the configured owner identity.
func (c *Config) OwnerAddress() ([20]byte, error) {
	return decodeAddress(c.Owner)
}

// VaultAddress decodes the configured vault identity.
func (c *Config) VaultAddress() ([20]byte, error) {
	return decodeAddress(c.Vault)
}

// ListingFeeAmount parses the configured fee. An empty string means zero.
func (c *Config) ListingFeeAmount() (*big.Int, error) {
	trimmed := strings.TrimSpace(c.ListingFee)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	fee, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("config: listing fee %q is not a decimal integer", c.ListingFee)
	}
	if fee.Sign() < 0 {
		return nil, fmt.Errorf("config: listing fee must be non-negative")
	}
	return fee, nil
}

func decodeAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if trimmed == "" {
		return addr, fmt.Errorf("address required")
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid hex address: %w", err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("address must be %d bytes, got %d", len(addr), len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}
