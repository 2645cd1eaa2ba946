// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads and validates the daemon configuration file.
package config

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lockstone/lockstone/lockstone"
	"github.com/lockstone/lockstone/multiplier"
	"github.com/lockstone/lockstone/vault"
)

// Tier is one multiplier breakpoint in the config file, expressed in days.
type Tier struct {
	Days      uint64 `yaml:"days"`
	FactorBps uint64 `yaml:"factorBps"`
}

// Balance is one genesis token grant.
type Balance struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

// Config is the daemon configuration.
type Config struct {
	DataDir string `yaml:"dataDir"`
	APIAddr string `yaml:"apiAddr"`
	ChainID uint64 `yaml:"chainId"`

	Admin       string `yaml:"admin"`
	ClaimSigner string `yaml:"claimSigner"`

	MaxStakeAmount             string `yaml:"maxStakeAmount"`
	CooldownPeriod             uint64 `yaml:"cooldownPeriod"`             // seconds
	EarlyUnstakeCooldownPeriod uint64 `yaml:"earlyUnstakeCooldownPeriod"` // seconds
	EarlyUnstakePenaltyBps     uint64 `yaml:"earlyUnstakePenaltyBps"`

	Tiers []Tier `yaml:"tiers"`

	// Genesis balances minted into the in-memory token at startup. A real
	// deployment fronts an external token instead.
	Genesis []Balance `yaml:"genesis"`
}

// Default returns the configuration the daemon runs with when no file is
// given.
func Default() *Config {
	return &Config{
		DataDir:                    "/tmp/lockstone",
		APIAddr:                    "localhost:8669",
		ChainID:                    1,
		MaxStakeAmount:             "1000000000000000000000000",
		CooldownPeriod:             7 * lockstone.Day,
		EarlyUnstakeCooldownPeriod: lockstone.Day,
		EarlyUnstakePenaltyBps:     2500,
	}
}

// Load reads the yaml config at path, layered over defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for internal consistency.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("dataDir must be set")
	}
	if c.APIAddr == "" {
		return errors.New("apiAddr must be set")
	}
	if c.Admin != "" {
		if _, err := lockstone.ParseAddress(c.Admin); err != nil {
			return errors.Wrap(err, "invalid admin address")
		}
	}
	if c.ClaimSigner != "" {
		if _, err := lockstone.ParseAddress(c.ClaimSigner); err != nil {
			return errors.Wrap(err, "invalid claim signer address")
		}
	}
	if _, ok := new(big.Int).SetString(c.MaxStakeAmount, 10); !ok {
		return errors.Errorf("invalid maxStakeAmount %q", c.MaxStakeAmount)
	}
	tiers, err := c.MultiplierTiers()
	if err != nil {
		return err
	}
	if _, err := multiplier.New(tiers); err != nil {
		return errors.Wrap(err, "invalid tiers")
	}
	if _, err := c.VaultConfig(); err != nil {
		return err
	}
	if c.EarlyUnstakePenaltyBps > lockstone.BpsDenominator {
		return errors.New("earlyUnstakePenaltyBps cannot exceed 100%")
	}
	if c.CooldownPeriod == 0 || c.EarlyUnstakeCooldownPeriod == 0 {
		return errors.New("cooldown periods must be non-zero")
	}
	for _, b := range c.Genesis {
		if _, err := lockstone.ParseAddress(b.Address); err != nil {
			return errors.Wrapf(err, "invalid genesis address %q", b.Address)
		}
		if _, ok := new(big.Int).SetString(b.Amount, 10); !ok {
			return errors.Errorf("invalid genesis amount %q", b.Amount)
		}
	}
	return nil
}

// MaxStake returns the parsed maximum stake amount.
func (c *Config) MaxStake() *big.Int {
	v, _ := new(big.Int).SetString(c.MaxStakeAmount, 10)
	return v
}

// AdminAddress returns the parsed admin address, or zero if unset.
func (c *Config) AdminAddress() lockstone.Address {
	if c.Admin == "" {
		return lockstone.Address{}
	}
	return lockstone.MustParseAddress(c.Admin)
}

// ClaimSignerAddress returns the parsed claim signer address, or zero if
// unset.
func (c *Config) ClaimSignerAddress() lockstone.Address {
	if c.ClaimSigner == "" {
		return lockstone.Address{}
	}
	return lockstone.MustParseAddress(c.ClaimSigner)
}

// MultiplierTiers converts the configured tiers to engine breakpoints. An
// empty list means the built-in defaults.
func (c *Config) MultiplierTiers() ([]multiplier.Tier, error) {
	if len(c.Tiers) == 0 {
		return multiplier.DefaultTiers(), nil
	}
	tiers := make([]multiplier.Tier, 0, len(c.Tiers))
	for _, t := range c.Tiers {
		if t.Days == 0 {
			return nil, errors.New("tier days must be non-zero")
		}
		tiers = append(tiers, multiplier.Tier{
			Duration:  t.Days * lockstone.Day,
			FactorBps: t.FactorBps,
		})
	}
	return tiers, nil
}

// VaultConfig assembles the vault parameters.
func (c *Config) VaultConfig() (vault.Config, error) {
	maxStake, ok := new(big.Int).SetString(c.MaxStakeAmount, 10)
	if !ok {
		return vault.Config{}, errors.Errorf("invalid maxStakeAmount %q", c.MaxStakeAmount)
	}
	return vault.Config{
		MaximumStakeAmount:         maxStake,
		CooldownPeriod:             c.CooldownPeriod,
		EarlyUnstakeCooldownPeriod: c.EarlyUnstakeCooldownPeriod,
		EarlyUnstakePenaltyBps:     c.EarlyUnstakePenaltyBps,
	}, nil
}

// Grant is one parsed genesis token grant.
type Grant struct {
	Address lockstone.Address
	Amount  *big.Int
}

// GenesisBalances returns the parsed genesis grants.
func (c *Config) GenesisBalances() ([]Grant, error) {
	out := make([]Grant, 0, len(c.Genesis))
	for _, b := range c.Genesis {
		addr, err := lockstone.ParseAddress(b.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid genesis address %q", b.Address)
		}
		amount, ok := new(big.Int).SetString(b.Amount, 10)
		if !ok {
			return nil, errors.Errorf("invalid genesis amount %q", b.Amount)
		}
		out = append(out, Grant{addr, amount})
	}
	return out, nil
}
