package market

import (
	"assetmarket/config"
)

// NewEngineFromConfig builds an engine from deployment configuration. The
// caller still wires the state backend and registry resolver via the
// setters.
func NewEngineFromConfig(cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	owner, err := cfg.OwnerAddress()
	if err != nil {
		return nil, err
	}
	vault, err := cfg.VaultAddress()
	if err != nil {
		return nil, err
	}
	fee, err := cfg.ListingFeeAmount()
	if err != nil {
		return nil, err
	}
	engine := NewEngine(owner, vault, fee)
	if cfg.StartPaused {
		engine.pauses.SetPaused(ModuleName, true)
	}
	return engine, nil
}
