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

package models

import (
	"github.com/shopspring/decimal"
)

// PiggyBankView is a pool plus its derived, informational fields
type PiggyBankView struct {
	PiggyBank
	CreatorUsername    string          `json:"creator_username"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage"`
	IsTargetReached    bool            `json:"is_target_reached"`
	MembersCount       int             `json:"members_count"`
	ContributionsCount int             `json:"contributions_count"`
}

// TransferResult carries both legs of a paired transfer
type TransferResult struct {
	Out Entry `json:"transfer_out"`
	In  Entry `json:"transfer_in"`
}

// UserSummary is the bot API view of a user
type UserSummary struct {
	User         User            `json:"user"`
	Wallets      []Wallet        `json:"wallets"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	PiggyBanks   int             `json:"piggy_banks_count"`
}

// Stats is the bot API system overview
type Stats struct {
	Users            int             `json:"users"`
	ActiveWallets    int             `json:"active_wallets"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
	ActivePiggyBanks int             `json:"active_piggy_banks"`
	TotalPooled      decimal.Decimal `json:"total_pooled"`
	CompletedEntries int             `json:"completed_entries"`
	VerifiedKYCUsers int             `json:"verified_kyc_users"`
}
