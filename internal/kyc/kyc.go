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
)

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusUnderReview    Status = "UNDER_REVIEW"
	StatusApproved       Status = "APPROVED"
	StatusRejected       Status = "REJECTED"
	StatusRequiresUpdate Status = "REQUIRES_UPDATE"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusRequiresUpdate:
		return st, nil
	}
	return "", fmt.Errorf("unknown KYC status %q", s)
}

type Level string

const (
	LevelBasic    Level = "BASIC"
	LevelEnhanced Level = "ENHANCED"
	LevelPremium  Level = "PREMIUM"
)

// Levels in ascending order of trust.
var Levels = []Level{LevelBasic, LevelEnhanced, LevelPremium}

func ParseLevel(s string) (Level, error) {
	switch lv := Level(s); lv {
	case LevelBasic, LevelEnhanced, LevelPremium:
		return lv, nil
	}
	return "", fmt.Errorf("unknown KYC level %q", s)
}

// Next returns the level above l, or false when l is the highest.
func (l Level) Next() (Level, bool) {
	for i, lv := range Levels {
		if lv == l && i+1 < len(Levels) {
			return Levels[i+1], true
		}
	}
	return "", false
}

// Display is the human form used in denial reasons ("Enhanced").
func (l Level) Display() string {
	switch l {
	case LevelBasic:
		return "Basic"
	case LevelEnhanced:
		return "Enhanced"
	case LevelPremium:
		return "Premium"
	}
	return string(l)
}

// Profile is the verification record of one user.
type Profile struct {
	UserId          string     `json:"user_id"`
	Status          Status     `json:"status"`
	Level           Level      `json:"level"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// State is the KYC input to the policy gate: either Unverified (no profile
// on record) or a profile with its status and level.
type State struct {
	profile *Profile
}

func Unverified() State { return State{} }

// FromProfile wraps an optional profile; nil yields Unverified.
func FromProfile(p *Profile) State { return State{profile: p} }

func (s State) Profile() (*Profile, bool) { return s.profile, s.profile != nil }

func (s State) HasProfile() bool { return s.profile != nil }

// Verified reports whether a profile exists and is APPROVED.
func (s State) Verified() bool {
	return s.profile != nil && s.profile.Status == StatusApproved
}

// Level returns the approved level. Unapproved profiles have no level.
func (s State) Level() (Level, bool) {
	if !s.Verified() {
		return "", false
	}
	return s.profile.Level, true
}
