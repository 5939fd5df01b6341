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
	"time"

	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	EntryDeposit      EntryKind = "DEPOSIT"
	EntryWithdrawal   EntryKind = "WITHDRAWAL"
	EntryTransferOut  EntryKind = "TRANSFER_OUT"
	EntryTransferIn   EntryKind = "TRANSFER_IN"
	EntryContribution EntryKind = "CONTRIBUTION"
)

type EntryStatus string

const (
	StatusPending   EntryStatus = "PENDING"
	StatusCompleted EntryStatus = "COMPLETED"
	StatusFailed    EntryStatus = "FAILED"
	StatusCancelled EntryStatus = "CANCELLED"
)

// User represents a registered account holder
type User struct {
	Id        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Wallet holds the mutable balance (hot data)
type Wallet struct {
	Id        string          `db:"id" json:"id"`
	UserId    string          `db:"user_id" json:"user_id"`
	Name      string          `db:"name" json:"name"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Version   int64           `db:"version" json:"-"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Entry is one immutable, single-sided money movement (cold data)
type Entry struct {
	Id                  string          `db:"id" json:"id"`
	WalletId            string          `db:"wallet_id" json:"wallet_id"`
	Kind                EntryKind       `db:"kind" json:"kind"`
	Amount              decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore       decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter        decimal.Decimal `db:"balance_after" json:"balance_after"`
	Status              EntryStatus     `db:"status" json:"status"`
	Description         string          `db:"description" json:"description"`
	ReferenceId         string          `db:"reference_id" json:"reference_id,omitempty"`
	IdempotencyKey      string          `db:"idempotency_key" json:"-"`
	CounterpartWalletId string          `db:"counterpart_wallet_id" json:"counterpart_wallet_id,omitempty"`
	CounterpartEntryId  string          `db:"counterpart_entry_id" json:"counterpart_entry_id,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// PiggyBank is a shared pool; CurrentAmount is its sole balance record
type PiggyBank struct {
	Id            string          `db:"id" json:"id"`
	CreatorId     string          `db:"creator_id" json:"creator_id"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description"`
	TargetAmount  decimal.Decimal `db:"target_amount" json:"target_amount"`
	CurrentAmount decimal.Decimal `db:"current_amount" json:"current_amount"`
	Version       int64           `db:"version" json:"-"`
	Active        bool            `db:"active" json:"active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

type Membership struct {
	Id          string    `db:"id" json:"id"`
	PiggyBankId string    `db:"piggy_bank_id" json:"piggy_bank_id"`
	UserId      string    `db:"user_id" json:"user_id"`
	Username    string    `db:"-" json:"username,omitempty"`
	Active      bool      `db:"active" json:"active"`
	InvitedAt   time.Time `db:"invited_at" json:"invited_at"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

type Contribution struct {
	Id          string          `db:"id" json:"id"`
	PiggyBankId string          `db:"piggy_bank_id" json:"piggy_bank_id"`
	UserId      string          `db:"user_id" json:"user_id"`
	WalletId    string          `db:"wallet_id" json:"wallet_id"`
	EntryId     string          `db:"entry_id" json:"entry_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Disbursement is the audit row of a creator payment out of a pool
type Disbursement struct {
	Id                string          `db:"id" json:"id"`
	PiggyBankId       string          `db:"piggy_bank_id" json:"piggy_bank_id"`
	ActorId           string          `db:"actor_id" json:"actor_id"`
	RecipientWalletId string          `db:"recipient_wallet_id" json:"recipient_wallet_id"`
	EntryId           string          `db:"entry_id" json:"entry_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// APIKey authenticates the bot read API. Only the SHA-256 hash is stored.
type APIKey struct {
	Id         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	KeyHash    string     `db:"key_hash" json:"-"`
	Active     bool       `db:"active" json:"active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
}
