/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kyc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// LevelPolicy is the YAML shape of one verification level. An empty
// transaction_ceiling means no per-transaction ceiling.
type LevelPolicy struct {
	Level              Level    `yaml:"level"`
	TransactionCeiling string   `yaml:"transaction_ceiling"`
	DailyLimit         string   `yaml:"daily_limit"`
	RequiredDocuments  []string `yaml:"required_documents"`

	ceiling    decimal.Decimal
	hasCeiling bool
	dailyLimit decimal.Decimal
}

// Config is loaded once at startup and passed to the gate by reference.
type Config struct {
	Levels           []LevelPolicy `yaml:"levels"`
	MaxFileSizeMB    int           `yaml:"max_file_size_mb"`
	AllowedFileTypes []string      `yaml:"allowed_file_types"`

	byLevel map[Level]*LevelPolicy
}

func DefaultConfig() *Config {
	basicDocs := []string{"ID_FRONT", "ID_BACK", "PROOF_OF_ADDRESS", "SELFIE"}
	enhancedDocs := append(append([]string{}, basicDocs...), "BANK_STATEMENT")
	premiumDocs := append(append([]string{}, enhancedDocs...), "EMPLOYMENT_LETTER")

	cfg := &Config{
		Levels: []LevelPolicy{
			{Level: LevelBasic, TransactionCeiling: "10000", DailyLimit: "10000", RequiredDocuments: basicDocs},
			{Level: LevelEnhanced, TransactionCeiling: "50000", DailyLimit: "50000", RequiredDocuments: enhancedDocs},
			{Level: LevelPremium, TransactionCeiling: "", DailyLimit: "500000", RequiredDocuments: premiumDocs},
		},
		MaxFileSizeMB:    5,
		AllowedFileTypes: []string{"jpg", "jpeg", "png", "pdf"},
	}
	if err := cfg.compile(); err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig reads a policy file. An empty path yields DefaultConfig.
func LoadConfig(policyFile string) (*Config, error) {
	if policyFile == "" {
		return DefaultConfig(), nil
	}

	var policyPath string
	if filepath.IsAbs(policyFile) {
		policyPath = policyFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		policyPath = filepath.Join(wd, policyFile)
	}

	data, err := os.ReadFile(policyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", policyFile, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse KYC policy: %w", err)
	}
	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) compile() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("KYC policy defines no levels")
	}
	c.byLevel = make(map[Level]*LevelPolicy, len(c.Levels))
	for i := range c.Levels {
		lp := &c.Levels[i]
		if _, err := ParseLevel(string(lp.Level)); err != nil {
			return fmt.Errorf("level at index %d: %w", i, err)
		}
		if _, dup := c.byLevel[lp.Level]; dup {
			return fmt.Errorf("level %s defined twice", lp.Level)
		}
		if lp.TransactionCeiling != "" {
			d, err := decimal.NewFromString(lp.TransactionCeiling)
			if err != nil {
				return fmt.Errorf("level %s: invalid transaction_ceiling %q", lp.Level, lp.TransactionCeiling)
			}
			lp.ceiling, lp.hasCeiling = d, true
		}
		if lp.DailyLimit == "" {
			return fmt.Errorf("level %s missing daily_limit", lp.Level)
		}
		d, err := decimal.NewFromString(lp.DailyLimit)
		if err != nil {
			return fmt.Errorf("level %s: invalid daily_limit %q", lp.Level, lp.DailyLimit)
		}
		lp.dailyLimit = d
		c.byLevel[lp.Level] = lp
	}
	for _, lv := range Levels {
		if _, ok := c.byLevel[lv]; !ok {
			return fmt.Errorf("KYC policy missing level %s", lv)
		}
	}
	return nil
}

func (c *Config) policy(l Level) *LevelPolicy { return c.byLevel[l] }

// RequiredDocuments lists the document types required for a level.
func (c *Config) RequiredDocuments(l Level) []string {
	if lp := c.policy(l); lp != nil {
		return lp.RequiredDocuments
	}
	return nil
}
