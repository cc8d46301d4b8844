package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/rebalance/errs"
	"gopkg.in/yaml.v3"
)

// Policy is the household investment policy: sleeve bounds, the stabilizer
// floor, growth-sleeve rules, drift bands and taxable-account rules. It is
// loaded once and passed by value into every planning call.
type Policy struct {
	Sleeves    SleevesConfig    `json:"sleeves" yaml:"sleeves"`
	Stabilizer StabilizerConfig `json:"stabilizer" yaml:"stabilizer"`
	Growth     GrowthConfig     `json:"growth" yaml:"growth"`
	Rebalance  RebalanceConfig  `json:"rebalance" yaml:"rebalance"`
	Taxable    TaxableConfig    `json:"taxable" yaml:"taxable"`
}

// SleevesConfig bounds the core and growth sleeves as fractions of the total.
type SleevesConfig struct {
	CoreTarget   float64 `json:"core_target" yaml:"core_target"`
	CoreMin      float64 `json:"core_min" yaml:"core_min"`
	GrowthTarget float64 `json:"growth_target" yaml:"growth_target"`
	GrowthMax    float64 `json:"growth_max" yaml:"growth_max"`
}

// StabilizerConfig is the bond-like floor.
type StabilizerConfig struct {
	MinPctTotal float64  `json:"min_pct_total" yaml:"min_pct_total"`
	Tickers     []string `json:"stabilizer_tickers" yaml:"stabilizer_tickers"`
}

// GrowthConfig holds the growth-sleeve concentration rules. A growth trim
// takes positions above TrimMultipleOfTarget times their target first.
type GrowthConfig struct {
	MaxSingleStockWeight float64  `json:"max_single_stock_weight" yaml:"max_single_stock_weight"`
	TrimMultipleOfTarget float64  `json:"trim_multiple_of_target" yaml:"trim_multiple_of_target"`
	ProhibitLeveraged    bool     `json:"prohibit_leveraged" yaml:"prohibit_leveraged"`
	QQQOrSPYGExclusive   bool     `json:"qqq_or_spyg_exclusive" yaml:"qqq_or_spyg_exclusive"`
	ExclusivePair        []string `json:"exclusive_pair,omitempty" yaml:"exclusive_pair,omitempty"`
}

// RebalanceConfig holds the drift bands. MinTrade drops dust trades.
type RebalanceConfig struct {
	DriftAbsolute float64 `json:"drift_absolute" yaml:"drift_absolute"`
	DriftRelative float64 `json:"drift_relative" yaml:"drift_relative"`
	MinTrade      float64 `json:"min_trade" yaml:"min_trade"`
}

// TaxableConfig governs trading in taxable accounts. AvoidShortTermDays is
// carried for file compatibility; accounts hold no lot dates to apply it to.
type TaxableConfig struct {
	BuyFirstSellLast   bool `json:"buy_first_sell_last" yaml:"buy_first_sell_last"`
	AvoidShortTermDays int  `json:"avoid_short_term_days" yaml:"avoid_short_term_days"`
}

// DefaultExclusivePair is used when the exclusivity rule is on and no pair is
// configured.
var DefaultExclusivePair = [2]string{"QQQ", "SPYG"}

// Pair returns the two growth tickers that may not be held together.
func (p Policy) Pair() [2]string {
	if len(p.Growth.ExclusivePair) == 2 {
		return [2]string{p.Growth.ExclusivePair[0], p.Growth.ExclusivePair[1]}
	}
	return DefaultExclusivePair
}

// IsStabilizerTicker reports whether ticker is in the configured stabilizer
// list. An empty list matches nothing.
func (p Policy) IsStabilizerTicker(ticker string) bool {
	for _, t := range p.Stabilizer.Tickers {
		if strings.EqualFold(t, ticker) {
			return true
		}
	}
	return false
}

// LoadFromFile loads a policy from a file (YAML, falling back to JSON) and
// validates it.
func LoadFromFile(path string) (*Policy, error) {
	p := &Policy{}
	if err := decodeFile(path, p); err != nil {
		return nil, err
	}
	if p.Rebalance.MinTrade == 0 {
		p.Rebalance.MinTrade = Default().Rebalance.MinTrade
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	return p, nil
}

// SaveToFile writes the policy as YAML or, for other extensions, JSON.
func (p *Policy) SaveToFile(path string) error {
	return encodeFile(path, p)
}

// Validate checks the policy for internal consistency.
func (p *Policy) Validate() error {
	fractions := []struct {
		name string
		v    float64
	}{
		{"sleeves.core_target", p.Sleeves.CoreTarget},
		{"sleeves.core_min", p.Sleeves.CoreMin},
		{"sleeves.growth_target", p.Sleeves.GrowthTarget},
		{"sleeves.growth_max", p.Sleeves.GrowthMax},
		{"stabilizer.min_pct_total", p.Stabilizer.MinPctTotal},
		{"growth.max_single_stock_weight", p.Growth.MaxSingleStockWeight},
		{"rebalance.drift_absolute", p.Rebalance.DriftAbsolute},
	}
	for _, f := range fractions {
		if f.v < 0 || f.v > 1 {
			return errs.Configuration("%s must be between 0 and 1, got %v", f.name, f.v)
		}
	}
	if p.Sleeves.CoreMin > p.Sleeves.CoreTarget {
		return errs.Configuration("sleeves.core_min %.4f exceeds core_target %.4f", p.Sleeves.CoreMin, p.Sleeves.CoreTarget)
	}
	if p.Sleeves.GrowthTarget > p.Sleeves.GrowthMax {
		return errs.Configuration("sleeves.growth_target %.4f exceeds growth_max %.4f", p.Sleeves.GrowthTarget, p.Sleeves.GrowthMax)
	}
	if s := p.Sleeves.CoreTarget + p.Sleeves.GrowthTarget; s > 1+1e-6 {
		return errs.Configuration("sleeves.core_target + growth_target is %.4f, more than 1", s)
	}
	if p.Rebalance.DriftAbsolute <= 0 {
		return errs.Configuration("rebalance.drift_absolute must be positive")
	}
	if p.Rebalance.DriftRelative <= 0 {
		return errs.Configuration("rebalance.drift_relative must be positive")
	}
	if p.Rebalance.MinTrade < 0 {
		return errs.Configuration("rebalance.min_trade must not be negative")
	}
	if n := len(p.Growth.ExclusivePair); n != 0 && n != 2 {
		return errs.Configuration("growth.exclusive_pair must name exactly two tickers, got %d", n)
	}
	if len(p.Growth.ExclusivePair) == 2 && strings.EqualFold(p.Growth.ExclusivePair[0], p.Growth.ExclusivePair[1]) {
		return errs.Configuration("growth.exclusive_pair names %s twice", p.Growth.ExclusivePair[0])
	}
	if p.Taxable.AvoidShortTermDays < 0 {
		return errs.Configuration("taxable.avoid_short_term_days must not be negative")
	}
	return nil
}

// Default returns the standard household policy: a 75/25
// core/growth split, a 15% stabilizer floor and 5%/20% drift bands.
func Default() *Policy {
	return &Policy{
		Sleeves: SleevesConfig{
			CoreTarget:   0.75,
			CoreMin:      0.65,
			GrowthTarget: 0.25,
			GrowthMax:    0.30,
		},
		Stabilizer: StabilizerConfig{
			MinPctTotal: 0.15,
			Tickers:     []string{"BND", "BNDX"},
		},
		Growth: GrowthConfig{
			MaxSingleStockWeight: 0.10,
			TrimMultipleOfTarget: 2.0,
			ProhibitLeveraged:    true,
			QQQOrSPYGExclusive:   true,
			ExclusivePair:        []string{"QQQ", "SPYG"},
		},
		Rebalance: RebalanceConfig{
			DriftAbsolute: 0.05,
			DriftRelative: 0.20,
			MinTrade:      1,
		},
		Taxable: TaxableConfig{
			BuyFirstSellLast:   true,
			AvoidShortTermDays: 365,
		},
	}
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, v); err != nil {
		if jerr := json.Unmarshal(data, v); jerr != nil {
			return &errs.ConfigurationError{Msg: "parse " + path + " (tried YAML and JSON)", Err: err}
		}
	}
	return nil
}

func encodeFile(path string, v any) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
