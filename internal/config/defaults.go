package config

import "time"

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Seed: 0,
		Data: DataConfig{
			Dir:              "data",
			Accounts:         "accounts.csv",
			ExternalAccounts: "external_accounts.csv",
			Clients:          "clients.csv",
			Devices:          "devices.csv",
			Merchants:        "merchants.csv",
		},
		Output: OutputConfig{
			Dir:      "output",
			CSV:      true,
			LogLevel: "info",
		},
		Timestamps: TimestampsConfig{
			Start: "2025-01-01",
			End:   "2025-12-31",
			Step:  time.Minute,
		},
		Time: TimeConfig{
			Pause:       24 * time.Hour,
			PauseJitter: DurationRange{Min: -3 * time.Hour, Max: 3 * time.Hour},
			Gap:         DurationRange{Min: 2 * time.Minute, Max: 45 * time.Minute},
		},
		Inbound: InboundConfig{
			Low:   5000,
			High:  100000,
			Mean:  30000,
			Std:   20000,
			Round: 500,
		},
		Distributor: defaultDistributor(),
		Purchaser:   defaultPurchaser(),
	}
}

func defaultDistributor() RoleConfig {
	return RoleConfig{
		Count:        20,
		InLim:        5,
		OutLim:       20,
		PeriodInLim:  2,
		PeriodOutLim: 6,
		SplitRate:    0.6,
		Ceiling:      50000,
		ReduceShare:  0.3,
		Round:        500,
		RandRate:     0.9,
		Chunks: ChunksConfig{
			ATMMin:   10000,
			ATMShare: FloatRange{Min: 0.3, Max: 0.6},
			Tiers: []Tier{
				{UpTo: 20000, Min: 2000, Max: 10000, Step: 1000},
				{UpTo: 60000, Min: 5000, Max: 25000, Step: 2500},
				{UpTo: 0, Min: 10000, Max: 50000, Step: 5000},
			},
		},
		Attempts: AttemptsConfig{
			Online:  IntRange{Min: 0, Max: 3},
			Offline: IntRange{Min: 0, Max: 2},
		},
		FellowDrops: FellowDropsConfig{Rate: 0.15, MinAccounts: 3},
		CryptoRate:  0.1,
	}
}

func defaultPurchaser() RoleConfig {
	return RoleConfig{
		Count:        10,
		InLim:        4,
		OutLim:       15,
		PeriodInLim:  2,
		PeriodOutLim: 5,
		SplitRate:    0.7,
		Ceiling:      30000,
		ReduceShare:  0.3,
		Round:        100,
		RandRate:     0.9,
		Chunks: ChunksConfig{
			ATMMin:   10000,
			ATMShare: FloatRange{Min: 0.3, Max: 0.6},
			Tiers: []Tier{
				{UpTo: 0, Min: 1000, Max: 15000, Step: 500},
			},
		},
		Attempts: AttemptsConfig{
			Online: IntRange{Min: 1, Max: 3},
		},
		Categories: []Category{
			{Name: "electronics", Weight: 0.4},
			{Name: "gift_cards", Weight: 0.25},
			{Name: "jewelry", Weight: 0.2},
			{Name: "luxury_goods", Weight: 0.15},
		},
	}
}
