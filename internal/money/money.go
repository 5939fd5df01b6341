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

// Package money holds the fixed two-decimal amount rules shared by the
// ledger, the stores and the HTTP layer.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fraction digits carried by every amount.
	Scale = 2
	// MaxDigits bounds the total number of digits (integer + fraction).
	MaxDigits = 12
)

var (
	ErrMalformed   = errors.New("malformed amount")
	ErrPrecision   = errors.New("amount has more than 2 decimal places")
	ErrTooLarge    = errors.New("amount exceeds 12 digits")
	ErrNotPositive = errors.New("amount must be greater than zero")
	ErrNegative    = errors.New("amount must not be negative")
)

var maxValue = decimal.New(1, MaxDigits-Scale)

// Parse converts a decimal string into an amount rounded to Scale.
// "10.5" and "10.500" are accepted, "10.505" is not.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrMalformed)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return Normalize(d)
}

// Normalize checks precision and magnitude and returns the amount at Scale.
func Normalize(d decimal.Decimal) (decimal.Decimal, error) {
	rounded := d.Round(Scale)
	if !rounded.Equal(d) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPrecision, d.String())
	}
	if rounded.Abs().GreaterThanOrEqual(maxValue) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrTooLarge, d.String())
	}
	return rounded, nil
}

// ParsePositive is Parse followed by RequirePositive.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := RequirePositive(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// RequirePositive enforces the entry amount invariant (> 0).
func RequirePositive(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s", ErrNotPositive, Format(d))
	}
	return nil
}

// RequireNonNegative enforces the balance invariant (>= 0).
func RequireNonNegative(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegative, Format(d))
	}
	return nil
}

// Format renders an amount with exactly two fraction digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// FromStorage parses a stored amount column. Stored values are always
// written by Format, so any failure indicates corruption.
func FromStorage(column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s '%s': %w", column, raw, err)
	}
	return d, nil
}

// Progress returns min(current/target*100, 100) rounded to two places.
func Progress(current, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	pct := current.Mul(hundred).DivRound(target, Scale)
	if pct.GreaterThan(hundred) {
		return hundred.Round(Scale)
	}
	return pct
}
