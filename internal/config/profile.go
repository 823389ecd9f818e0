package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// ProfileFile is the on-disk form of a risk profile. Base names the built-in
// profile the file starts from; every other section overrides it.
type ProfileFile struct {
	Name      string                      `json:"name" yaml:"name"`
	Base      string                      `json:"base,omitempty" yaml:"base,omitempty"`
	Portfolio *risk.PortfolioRiskConfig   `json:"portfolio,omitempty" yaml:"portfolio,omitempty"`
	Sleeves   []risk.SleeveRiskConfig     `json:"sleeves,omitempty" yaml:"sleeves,omitempty"`
	Budget    *strategy.FuturesRiskBudget `json:"budget,omitempty" yaml:"budget,omitempty"`
	// MacroFutures fields left out of the file keep their default value
	MacroFutures *strategy.MacroFuturesSleeveConfig `json:"macro_futures,omitempty" yaml:"macro_futures,omitempty"`
}

// Profile is a resolved and validated risk profile
type Profile struct {
	Name         string
	Kernel       risk.KernelConfig
	Budget       strategy.FuturesRiskBudget
	MacroFutures strategy.MacroFuturesSleeveConfig
}

// BuiltinProfile resolves a named profile with the default budget and
// signal parameters. Unknown names fall back to starter_10k.
func BuiltinProfile(name string) Profile {
	resolved, kernel := risk.ResolveProfile(name)
	return Profile{
		Name:         resolved,
		Kernel:       kernel,
		Budget:       strategy.DefaultFuturesRiskBudget(),
		MacroFutures: strategy.DefaultMacroFuturesSleeveConfig(),
	}
}

// LoadProfileFile reads a .json, .yaml or .yml profile and validates it
func LoadProfileFile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.WrapError(err, errors.ErrorCategoryConfiguration, "config", "read_profile").
			WithContext("path", path)
	}

	macro := strategy.DefaultMacroFuturesSleeveConfig()
	file := ProfileFile{MacroFutures: &macro}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &file)
	default:
		return Profile{}, errors.NewConfigurationError("config", "read_profile", "profile file must be .json, .yaml or .yml").
			WithContext("path", path)
	}
	if err != nil {
		return Profile{}, errors.WrapError(err, errors.ErrorCategoryConfiguration, "config", "parse_profile").
			WithContext("path", path)
	}

	return file.Resolve()
}

// Resolve applies the file on top of its base profile and validates the result
func (f ProfileFile) Resolve() (Profile, error) {
	base := f.Base
	if base == "" {
		base = risk.ProfileStarter10k
	}
	kernel, err := risk.ProfileByName(base)
	if err != nil {
		return Profile{}, errors.WrapError(err, errors.ErrorCategoryConfiguration, "config", "resolve_profile")
	}

	p := Profile{
		Name:         f.Name,
		Kernel:       kernel,
		Budget:       strategy.DefaultFuturesRiskBudget(),
		MacroFutures: strategy.DefaultMacroFuturesSleeveConfig(),
	}
	if p.Name == "" {
		p.Name = strings.ToLower(base)
	}
	if f.Portfolio != nil {
		p.Kernel.Portfolio = *f.Portfolio
	}
	for _, override := range f.Sleeves {
		p.Kernel.Sleeves = replaceSleeve(p.Kernel.Sleeves, override)
	}
	if f.Budget != nil {
		p.Budget = *f.Budget
	}
	if f.MacroFutures != nil {
		p.MacroFutures = *f.MacroFutures
	}

	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks the kernel tables, the budget and the signal parameters
func (p Profile) Validate() error {
	if err := p.Kernel.Validate(); err != nil {
		return err
	}
	if err := p.Budget.Validate(); err != nil {
		return errors.WrapError(err, errors.ErrorCategoryConfiguration, "config", "validate_budget")
	}
	return p.MacroFutures.Validate()
}

func replaceSleeve(sleeves []risk.SleeveRiskConfig, override risk.SleeveRiskConfig) []risk.SleeveRiskConfig {
	out := make([]risk.SleeveRiskConfig, 0, len(sleeves)+1)
	replaced := false
	for _, s := range sleeves {
		if s.SleeveID == override.SleeveID {
			out = append(out, override)
			replaced = true
			continue
		}
		out = append(out, s)
	}
	if !replaced {
		out = append(out, override)
	}
	return out
}

// LoadProfile resolves the profile selected by cfg: the profile file when set,
// otherwise the built-in named profile.
func LoadProfile(cfg *Config) (Profile, error) {
	if cfg.ProfileFile != "" {
		return LoadProfileFile(cfg.ProfileFile)
	}
	p := BuiltinProfile(cfg.RiskProfile)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
