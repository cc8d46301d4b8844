package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/universe"
)

// AccountsFile is the layout of accounts.yaml.
type AccountsFile struct {
	Accounts []portfolio.Account `json:"accounts" yaml:"accounts"`
}

// UniverseFile is the layout of asset_universe.yaml: per-ticker metadata and
// the base target weights.
type UniverseFile struct {
	Assets  map[string]universe.AssetMeta `json:"assets" yaml:"assets"`
	Targets portfolio.TargetWeights       `json:"targets" yaml:"targets"`
}

// OverridesFile is the layout of targets.generated.yaml, written by strategy
// edits and merged over the base targets.
type OverridesFile struct {
	Comment string                  `json:"_comment,omitempty" yaml:"_comment,omitempty"`
	Targets portfolio.TargetWeights `json:"targets" yaml:"targets"`
}

// Paths locates the configuration files of one household.
type Paths struct {
	Policy    string
	Accounts  string
	Universe  string
	Overrides string
}

// DefaultPaths returns the standard file names inside dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Policy:    filepath.Join(dir, "global_policy.yaml"),
		Accounts:  filepath.Join(dir, "accounts.yaml"),
		Universe:  filepath.Join(dir, "asset_universe.yaml"),
		Overrides: filepath.Join(dir, "targets.generated.yaml"),
	}
}

// Bundle is everything loaded from a household's configuration directory.
type Bundle struct {
	Policy      Policy
	Accounts    []portfolio.Account
	Universe    universe.Universe
	BaseTargets portfolio.TargetWeights
	Overrides   portfolio.TargetWeights
}

// Targets returns the base targets with the generated overrides applied.
func (b *Bundle) Targets() portfolio.TargetWeights {
	return portfolio.ResolveTargets(b.BaseTargets, b.Overrides)
}

// Portfolio builds the portfolio snapshot from the loaded accounts.
func (b *Bundle) Portfolio() (*portfolio.Portfolio, error) {
	return portfolio.New(b.Accounts, b.Universe)
}

// Load reads every file named by paths. A missing overrides file is not an
// error.
func Load(paths Paths) (*Bundle, error) {
	pol, err := LoadFromFile(paths.Policy)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	accts, err := LoadAccounts(paths.Accounts)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	u, targets, err := LoadUniverse(paths.Universe)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	overrides := portfolio.TargetWeights{}
	if paths.Overrides != "" {
		overrides, err = LoadOverrides(paths.Overrides)
		if err != nil {
			return nil, fmt.Errorf("load overrides: %w", err)
		}
	}
	return &Bundle{
		Policy:      *pol,
		Accounts:    accts,
		Universe:    u,
		BaseTargets: targets,
		Overrides:   overrides,
	}, nil
}

func LoadAccounts(path string) ([]portfolio.Account, error) {
	f := AccountsFile{}
	if err := decodeFile(path, &f); err != nil {
		return nil, err
	}
	for i := range f.Accounts {
		if f.Accounts[i].Holdings == nil {
			f.Accounts[i].Holdings = map[string]float64{}
		}
	}
	return f.Accounts, nil
}

// LoadUniverse reads the asset table and base targets.
func LoadUniverse(path string) (universe.Universe, portfolio.TargetWeights, error) {
	f := UniverseFile{}
	if err := decodeFile(path, &f); err != nil {
		return universe.Universe{}, nil, err
	}
	tickers := make([]string, 0, len(f.Assets))
	for t := range f.Assets {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	metas := make([]universe.AssetMeta, 0, len(tickers))
	for _, t := range tickers {
		m := f.Assets[t]
		m.Ticker = t
		metas = append(metas, m)
	}
	u, err := universe.New(metas...)
	if err != nil {
		return universe.Universe{}, nil, fmt.Errorf("asset universe: %w", err)
	}
	if f.Targets == nil {
		f.Targets = portfolio.TargetWeights{}
	}
	return u, f.Targets, nil
}

// LoadOverrides reads a generated overrides file. A file that does not exist
// yields an empty layer.
func LoadOverrides(path string) (portfolio.TargetWeights, error) {
	f := OverridesFile{}
	if err := decodeFile(path, &f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return portfolio.TargetWeights{}, nil
		}
		return nil, err
	}
	if f.Targets == nil {
		f.Targets = portfolio.TargetWeights{}
	}
	return f.Targets, nil
}

// SaveOverrides writes the override layer that turns base into resolved.
func SaveOverrides(path string, base, resolved portfolio.TargetWeights) error {
	return encodeFile(path, OverridesFile{
		Comment: "Generated targets - overrides base asset_universe.yaml",
		Targets: portfolio.DiffTargets(base, resolved),
	})
}

// SaveAccounts writes accounts in the accounts.yaml layout.
func SaveAccounts(path string, accounts []portfolio.Account) error {
	return encodeFile(path, AccountsFile{Accounts: accounts})
}

// SaveUniverse writes the asset table and base targets.
func SaveUniverse(path string, u universe.Universe, targets portfolio.TargetWeights) error {
	f := UniverseFile{Assets: map[string]universe.AssetMeta{}, Targets: targets}
	for _, t := range u.Tickers() {
		m := u.Meta(t)
		m.Ticker = ""
		f.Assets[t] = m
	}
	return encodeFile(path, f)
}
