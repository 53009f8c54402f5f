package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/dropsim/internal/model"
)

// DateFormat is the layout of timestamps.start and timestamps.end.
const DateFormat = "2006-01-02"

// Config represents the top-level dropsim.yaml configuration.
type Config struct {
	Seed        int64            `yaml:"seed"`
	Data        DataConfig       `yaml:"data"`
	Output      OutputConfig     `yaml:"output"`
	Timestamps  TimestampsConfig `yaml:"timestamps"`
	Time        TimeConfig       `yaml:"time"`
	Inbound     InboundConfig    `yaml:"inbound"`
	Distributor RoleConfig       `yaml:"distributor"`
	Purchaser   RoleConfig       `yaml:"purchaser"`
}

// DataConfig locates the input dataset.
type DataConfig struct {
	Dir              string `yaml:"dir"`
	Accounts         string `yaml:"accounts"`
	ExternalAccounts string `yaml:"external_accounts"`
	Clients          string `yaml:"clients"`
	Devices          string `yaml:"devices"`
	Merchants        string `yaml:"merchants"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	CSV         bool   `yaml:"csv"`
	SQLitePath  string `yaml:"sqlite_path,omitempty"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
	LogLevel    string `yaml:"log_level"`
	LogJSON     bool   `yaml:"log_json"`
}

// TimestampsConfig spans the calendar transactions are placed in.
type TimestampsConfig struct {
	Start string        `yaml:"start"` // "YYYY-MM-DD", inclusive
	End   string        `yaml:"end"`   // "YYYY-MM-DD", inclusive
	Step  time.Duration `yaml:"step"`
}

// TimeConfig shapes a drop's activity periods.
type TimeConfig struct {
	Pause       time.Duration `yaml:"pause"`        // cooldown after a period cap, counted from the period start
	PauseJitter DurationRange `yaml:"pause_jitter"` // may be negative
	Gap         DurationRange `yaml:"gap"`          // between transactions inside a period
}

// InboundConfig parameterizes the truncated normal inbound amount.
type InboundConfig struct {
	Low   float64 `yaml:"low"`
	High  float64 `yaml:"high"`
	Mean  float64 `yaml:"mean"`
	Std   float64 `yaml:"std"`
	Round int64   `yaml:"round"`
}

// RoleConfig holds the limits and behavior knobs of one drop role.
type RoleConfig struct {
	Count        int               `yaml:"count"`
	InLim        int               `yaml:"in_lim"`
	OutLim       int               `yaml:"out_lim"`
	PeriodInLim  int               `yaml:"period_in_lim"`
	PeriodOutLim int               `yaml:"period_out_lim"`
	SplitRate    float64           `yaml:"split_rate"`
	Ceiling      int64             `yaml:"ceiling"` // largest amount sent in one operation without splitting
	ReduceShare  float64           `yaml:"reduce_share"`
	Round        int64             `yaml:"round"`
	RandRate     float64           `yaml:"rand_rate"`
	Chunks       ChunksConfig      `yaml:"chunks"`
	Attempts     AttemptsConfig    `yaml:"attempts"`
	FellowDrops  FellowDropsConfig `yaml:"fellow_drops,omitempty"`
	CryptoRate   float64           `yaml:"crypto_rate,omitempty"`
	Categories   []Category        `yaml:"categories,omitempty"`
}

// ChunksConfig describes partial amounts.
type ChunksConfig struct {
	ATMMin   int64      `yaml:"atm_min"`
	ATMShare FloatRange `yaml:"atm_share"`
	Tiers    []Tier     `yaml:"tiers"`
}

// Tier is a transfer chunk range used while the balance is at most UpTo.
// UpTo of 0 means no upper balance bound.
type Tier struct {
	UpTo int64 `yaml:"up_to"`
	Min  int64 `yaml:"min"`
	Max  int64 `yaml:"max"`
	Step int64 `yaml:"step"`
}

// AttemptsConfig bounds the retries a drop makes after its first decline.
type AttemptsConfig struct {
	Online  IntRange `yaml:"online"`
	Offline IntRange `yaml:"offline,omitempty"`
}

// FellowDropsConfig controls transfers to other drops inside the bank.
type FellowDropsConfig struct {
	Rate        float64 `yaml:"rate"`
	MinAccounts int     `yaml:"min_accounts"`
}

// Category is a weighted purchase category.
type Category struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// FloatRange is an inclusive float range.
type FloatRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// DurationRange is an inclusive duration range.
type DurationRange struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// Role returns the config of the given role.
func (c *Config) Role(role model.Role) *RoleConfig {
	if role == model.RolePurchaser {
		return &c.Purchaser
	}
	return &c.Distributor
}

// Range parses the configured calendar bounds. The end day is inclusive.
func (t TimestampsConfig) Range() (time.Time, time.Time, error) {
	start, err := time.Parse(DateFormat, t.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing timestamps.start %q: %w", t.Start, err)
	}
	end, err := time.Parse(DateFormat, t.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing timestamps.end %q: %w", t.End, err)
	}
	return start, end.Add(24*time.Hour - time.Second), nil
}

// Load reads a dropsim.yaml file from disk. Keys missing from the file keep
// their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

type envOverrides struct {
	Seed       int64  `env:"DROPSIM_SEED"`
	DataDir    string `env:"DROPSIM_DATA_DIR"`
	OutputDir  string `env:"DROPSIM_OUTPUT_DIR"`
	LogLevel   string `env:"DROPSIM_LOG_LEVEL"`
	SQLitePath string `env:"DROPSIM_SQLITE_PATH"`
}

// ApplyEnv overrides config values with DROPSIM_* environment variables.
func ApplyEnv(cfg *Config) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if ov.Seed != 0 {
		cfg.Seed = ov.Seed
	}
	if ov.DataDir != "" {
		cfg.Data.Dir = ov.DataDir
	}
	if ov.OutputDir != "" {
		cfg.Output.Dir = ov.OutputDir
	}
	if ov.LogLevel != "" {
		cfg.Output.LogLevel = ov.LogLevel
	}
	if ov.SQLitePath != "" {
		cfg.Output.SQLitePath = ov.SQLitePath
	}
	return nil
}

// Validate checks that the simulation parameters are usable.
func (c *Config) Validate() error {
	var errs []error
	if _, _, err := c.Timestamps.Range(); err != nil {
		errs = append(errs, err)
	}
	if c.Timestamps.Step <= 0 {
		errs = append(errs, errors.New("timestamps.step must be positive"))
	}
	if c.Time.Gap.Min < time.Second {
		errs = append(errs, errors.New("time.gap.min must be at least 1s"))
	}
	if c.Time.Gap.Max < c.Time.Gap.Min {
		errs = append(errs, errors.New("time.gap.max must not be below time.gap.min"))
	}
	if c.Time.PauseJitter.Max < c.Time.PauseJitter.Min {
		errs = append(errs, errors.New("time.pause_jitter.max must not be below time.pause_jitter.min"))
	}
	if c.Inbound.Std <= 0 {
		errs = append(errs, errors.New("inbound.std must be positive"))
	}
	if c.Inbound.High <= c.Inbound.Low {
		errs = append(errs, errors.New("inbound.high must exceed inbound.low"))
	}
	if c.Inbound.Round <= 0 {
		errs = append(errs, errors.New("inbound.round must be positive"))
	} else if c.Inbound.Low < float64(c.Inbound.Round) {
		errs = append(errs, errors.New("inbound.low must be at least inbound.round"))
	}
	if c.Inbound.Mean < c.Inbound.Low || c.Inbound.Mean > c.Inbound.High {
		errs = append(errs, errors.New("inbound.mean must be within [inbound.low, inbound.high]"))
	}
	if c.Time.Pause < 0 {
		errs = append(errs, errors.New("time.pause must not be negative"))
	}
	errs = append(errs, c.Distributor.validate(model.RoleDistributor)...)
	errs = append(errs, c.Purchaser.validate(model.RolePurchaser)...)
	return errors.Join(errs...)
}

func (r *RoleConfig) validate(role model.Role) []error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s.%s", role, fmt.Sprintf(format, args...)))
	}
	if r.Count < 0 {
		bad("count must not be negative")
	}
	if r.InLim <= 0 || r.OutLim <= 0 {
		bad("in_lim and out_lim must be positive")
	}
	if r.PeriodInLim <= 0 || r.PeriodOutLim <= 0 {
		bad("period_in_lim and period_out_lim must be positive")
	}
	rates := []struct {
		name string
		p    float64
	}{
		{"split_rate", r.SplitRate},
		{"reduce_share", r.ReduceShare},
		{"rand_rate", r.RandRate},
		{"crypto_rate", r.CryptoRate},
		{"fellow_drops.rate", r.FellowDrops.Rate},
	}
	for _, rate := range rates {
		if rate.p < 0 || rate.p > 1 {
			bad("%s must be within [0, 1]", rate.name)
		}
	}
	if r.Round <= 0 {
		bad("round must be positive")
	}
	if r.Ceiling <= 0 {
		bad("ceiling must be positive")
	}
	if r.Chunks.ATMMin <= 0 {
		bad("chunks.atm_min must be positive")
	}
	if len(r.Chunks.Tiers) == 0 {
		bad("chunks.tiers must not be empty")
	}
	for i, t := range r.Chunks.Tiers {
		if t.Min <= 0 || t.Max < t.Min {
			bad("chunks.tiers[%d] needs 0 < min <= max", i)
		}
		if i < len(r.Chunks.Tiers)-1 && t.UpTo == 0 {
			bad("chunks.tiers[%d] must set up_to, only the last tier may be unbounded", i)
		}
	}
	if r.Chunks.ATMShare.Min <= 0 || r.Chunks.ATMShare.Max > 1 || r.Chunks.ATMShare.Max < r.Chunks.ATMShare.Min {
		bad("chunks.atm_share needs 0 < min <= max <= 1")
	}
	if r.Attempts.Online.Min < 0 || r.Attempts.Online.Max < r.Attempts.Online.Min {
		bad("attempts.online needs 0 <= min <= max")
	}
	if r.Attempts.Offline.Min < 0 || r.Attempts.Offline.Max < r.Attempts.Offline.Min {
		bad("attempts.offline needs 0 <= min <= max")
	}
	if role == model.RolePurchaser {
		if len(r.Categories) == 0 {
			bad("categories must not be empty")
		}
		for i, c := range r.Categories {
			if c.Name == "" || c.Weight <= 0 {
				bad("categories[%d] needs a name and a positive weight", i)
			}
		}
	}
	return errs
}
