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
	"time"

	"github.com/shopspring/decimal"
)

// Decision is the outcome of Authorize. It never carries side effects.
type Decision struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason"`
	UpgradeRequired bool   `json:"upgrade_required"`
	UpgradeReason   string `json:"upgrade_reason,omitempty"`
	RequiredLevel   Level  `json:"required_level,omitempty"`
}

// Authorize maps (verification state, amount) to an allow/deny decision.
// Rules are evaluated in order: profile present, status approved, then the
// per-transaction ceiling of the approved level.
func Authorize(cfg *Config, state State, amount decimal.Decimal) Decision {
	profile, ok := state.Profile()
	if !ok {
		return Decision{
			Reason:          "KYC profile required for transactions",
			UpgradeRequired: true,
			UpgradeReason:   "KYC profile required",
			RequiredLevel:   LevelBasic,
		}
	}

	if profile.Status != StatusApproved {
		return Decision{
			Reason:          fmt.Sprintf("KYC verification required. Current status: %s", profile.Status),
			UpgradeRequired: true,
			UpgradeReason:   "KYC verification required",
			RequiredLevel:   LevelBasic,
		}
	}

	decision := Decision{Allowed: true, Reason: "Transaction allowed"}
	if up, reason, next := upgradeFor(cfg, profile.Level, amount); up {
		decision.UpgradeRequired = true
		decision.UpgradeReason = reason
		decision.RequiredLevel = next
	}

	lp := cfg.policy(profile.Level)
	if lp == nil {
		decision.Allowed = false
		decision.Reason = fmt.Sprintf("KYC level %s is not configured", profile.Level)
		return decision
	}
	if lp.hasCeiling && amount.GreaterThan(lp.ceiling) {
		next, ok := profile.Level.Next()
		decision.Allowed = false
		if !ok {
			decision.Reason = fmt.Sprintf("Transactions above %s exceed the %s ceiling",
				lp.ceiling.StringFixed(2), profile.Level.Display())
			return decision
		}
		decision.Reason = fmt.Sprintf("%s verification required for transactions above %s",
			next.Display(), lp.ceiling.StringFixed(2))
		decision.UpgradeRequired = true
		decision.UpgradeReason = fmt.Sprintf("%s verification required", next.Display())
		decision.RequiredLevel = next
	}
	return decision
}

// upgradeFor fires when the amount exceeds the level's daily limit and a
// higher level exists.
func upgradeFor(cfg *Config, level Level, amount decimal.Decimal) (bool, string, Level) {
	next, ok := level.Next()
	if !ok {
		return false, "", ""
	}
	if amount.GreaterThan(DailyLimitFor(cfg, level)) {
		return true, fmt.Sprintf("%s verification required", next.Display()), next
	}
	return false, "", ""
}

// DailyLimit is the daily transaction limit of the state; zero when the
// user is not verified.
func DailyLimit(cfg *Config, state State) decimal.Decimal {
	level, ok := state.Level()
	if !ok {
		return decimal.Zero
	}
	return DailyLimitFor(cfg, level)
}

func DailyLimitFor(cfg *Config, level Level) decimal.Decimal {
	if lp := cfg.policy(level); lp != nil {
		return lp.dailyLimit
	}
	return decimal.Zero
}

// NextStep is the user-facing hint for completing verification.
func NextStep(state State) string {
	profile, ok := state.Profile()
	if !ok {
		return "Create KYC profile"
	}
	switch profile.Status {
	case StatusPending:
		return "Upload required documents"
	case StatusUnderReview:
		return "Wait for review completion"
	case StatusApproved:
		switch profile.Level {
		case LevelBasic:
			return "Upgrade to Enhanced KYC for higher limits"
		case LevelEnhanced:
			return "Upgrade to Premium KYC for highest limits"
		default:
			return "KYC fully completed"
		}
	case StatusRejected:
		return "Address rejection reason: " + profile.RejectionReason
	case StatusRequiresUpdate:
		return "Update profile information as requested"
	}
	return "Contact support for assistance"
}

type Summary struct {
	HasProfile        bool            `json:"has_profile"`
	Status            Status          `json:"status,omitempty"`
	Level             Level           `json:"level,omitempty"`
	IsVerified        bool            `json:"is_verified"`
	DailyLimit        decimal.Decimal `json:"daily_limit"`
	ReviewedAt        *time.Time      `json:"reviewed_at,omitempty"`
	NextStep          string          `json:"next_step"`
	RequiredDocuments []string        `json:"required_documents"`
	UploadedDocuments []string        `json:"uploaded_documents"`
	MissingDocuments  []string        `json:"missing_documents"`
	DocumentsComplete bool            `json:"documents_complete"`
}

// Summarize builds the status view for a user. Required documents follow
// the profile's level; users without a profile see none.
func Summarize(cfg *Config, state State, uploaded []string) Summary {
	summary := Summary{
		HasProfile:        state.HasProfile(),
		IsVerified:        state.Verified(),
		DailyLimit:        DailyLimit(cfg, state),
		NextStep:          NextStep(state),
		RequiredDocuments: []string{},
		UploadedDocuments: []string{},
		MissingDocuments:  []string{},
	}
	profile, ok := state.Profile()
	if !ok {
		return summary
	}

	summary.Status = profile.Status
	summary.Level = profile.Level
	summary.ReviewedAt = profile.ReviewedAt
	if uploaded != nil {
		summary.UploadedDocuments = uploaded
	}

	have := make(map[string]bool, len(uploaded))
	for _, doc := range uploaded {
		have[doc] = true
	}
	if required := cfg.RequiredDocuments(profile.Level); required != nil {
		summary.RequiredDocuments = required
		for _, doc := range required {
			if !have[doc] {
				summary.MissingDocuments = append(summary.MissingDocuments, doc)
			}
		}
	}
	summary.DocumentsComplete = len(summary.MissingDocuments) == 0
	return summary
}
