package kyc

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func approved(level Level) State {
	return FromProfile(&Profile{UserId: "user1", Status: StatusApproved, Level: level})
}

func TestAuthorize_Rules(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name          string
		state         State
		amount        string
		allowed       bool
		reasonContain string
		upgrade       bool
		requiredLevel Level
	}{
		{"no profile", Unverified(), "10", false, "KYC profile required", true, LevelBasic},
		{"pending", FromProfile(&Profile{Status: StatusPending, Level: LevelBasic}), "10", false, "Current status: PENDING", true, LevelBasic},
		{"rejected", FromProfile(&Profile{Status: StatusRejected, Level: LevelPremium}), "10", false, "Current status: REJECTED", true, LevelBasic},
		{"basic at ceiling", approved(LevelBasic), "10000.00", true, "Transaction allowed", false, ""},
		{"basic above ceiling", approved(LevelBasic), "10000.01", false, "Enhanced verification required", true, LevelEnhanced},
		{"enhanced at ceiling", approved(LevelEnhanced), "50000", true, "Transaction allowed", false, ""},
		{"enhanced above ceiling", approved(LevelEnhanced), "50000.01", false, "Premium verification required", true, LevelPremium},
		{"premium unlimited", approved(LevelPremium), "9999999.99", true, "Transaction allowed", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(cfg, tt.state, decimal.RequireFromString(tt.amount))
			if d.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v (reason %q)", d.Allowed, tt.allowed, d.Reason)
			}
			if !strings.Contains(d.Reason, tt.reasonContain) {
				t.Errorf("Reason = %q, want it to contain %q", d.Reason, tt.reasonContain)
			}
			if d.UpgradeRequired != tt.upgrade {
				t.Errorf("UpgradeRequired = %v, want %v", d.UpgradeRequired, tt.upgrade)
			}
			if d.RequiredLevel != tt.requiredLevel {
				t.Errorf("RequiredLevel = %q, want %q", d.RequiredLevel, tt.requiredLevel)
			}
		})
	}
}

func TestAuthorize_DoesNotMutateProfile(t *testing.T) {
	cfg := DefaultConfig()
	p := &Profile{UserId: "u", Status: StatusApproved, Level: LevelBasic}
	before := *p
	for i := 0; i < 3; i++ {
		Authorize(cfg, FromProfile(p), decimal.NewFromInt(20000))
	}
	if *p != before {
		t.Errorf("profile mutated: %+v", *p)
	}
}

func TestDailyLimit(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		state State
		want  int64
	}{
		{Unverified(), 0},
		{FromProfile(&Profile{Status: StatusUnderReview, Level: LevelPremium}), 0},
		{approved(LevelBasic), 10000},
		{approved(LevelEnhanced), 50000},
		{approved(LevelPremium), 500000},
	}
	for _, tt := range tests {
		if got := DailyLimit(cfg, tt.state); !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Errorf("DailyLimit = %s, want %d", got, tt.want)
		}
	}
}

func TestUpgradeSignal_PremiumHasNoHigherLevel(t *testing.T) {
	d := Authorize(DefaultConfig(), approved(LevelPremium), decimal.NewFromInt(600000))
	if !d.Allowed || d.UpgradeRequired {
		t.Errorf("expected allowed without upgrade, got %+v", d)
	}
}

func TestNextStep(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Unverified(), "Create KYC profile"},
		{FromProfile(&Profile{Status: StatusPending}), "Upload required documents"},
		{FromProfile(&Profile{Status: StatusUnderReview}), "Wait for review completion"},
		{approved(LevelBasic), "Upgrade to Enhanced KYC for higher limits"},
		{approved(LevelEnhanced), "Upgrade to Premium KYC for highest limits"},
		{approved(LevelPremium), "KYC fully completed"},
		{FromProfile(&Profile{Status: StatusRejected, RejectionReason: "blurry ID"}), "Address rejection reason: blurry ID"},
		{FromProfile(&Profile{Status: StatusRequiresUpdate}), "Update profile information as requested"},
	}
	for _, tt := range tests {
		if got := NextStep(tt.state); got != tt.want {
			t.Errorf("NextStep = %q, want %q", got, tt.want)
		}
	}
}

func TestSummarize_MissingDocuments(t *testing.T) {
	cfg := DefaultConfig()
	state := FromProfile(&Profile{Status: StatusPending, Level: LevelEnhanced})

	summary := Summarize(cfg, state, []string{"ID_FRONT", "SELFIE"})
	if len(summary.RequiredDocuments) != 5 {
		t.Fatalf("expected 5 required documents, got %v", summary.RequiredDocuments)
	}
	want := []string{"ID_BACK", "PROOF_OF_ADDRESS", "BANK_STATEMENT"}
	if strings.Join(summary.MissingDocuments, ",") != strings.Join(want, ",") {
		t.Errorf("MissingDocuments = %v, want %v", summary.MissingDocuments, want)
	}
	if summary.DocumentsComplete {
		t.Error("expected documents to be incomplete")
	}

	empty := Summarize(cfg, Unverified(), nil)
	if empty.HasProfile || len(empty.RequiredDocuments) != 0 || !empty.DailyLimit.IsZero() {
		t.Errorf("unexpected summary for unverified user: %+v", empty)
	}
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
levels:
  - level: BASIC
    transaction_ceiling: "500"
    daily_limit: "1000"
    required_documents: [ID_FRONT]
  - level: ENHANCED
    transaction_ceiling: "5000"
    daily_limit: "10000"
    required_documents: [ID_FRONT, BANK_STATEMENT]
  - level: PREMIUM
    daily_limit: "100000"
    required_documents: [ID_FRONT, BANK_STATEMENT, EMPLOYMENT_LETTER]
max_file_size_mb: 10
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	d := Authorize(cfg, approved(LevelBasic), decimal.NewFromInt(501))
	if d.Allowed {
		t.Error("expected custom BASIC ceiling of 500 to deny 501")
	}
	if !strings.Contains(d.Reason, "500.00") {
		t.Errorf("expected reason to name the ceiling, got %q", d.Reason)
	}
	if cfg.MaxFileSizeMB != 10 {
		t.Errorf("expected max file size 10, got %d", cfg.MaxFileSizeMB)
	}

	if _, err := ParseConfig([]byte("levels:\n  - level: BASIC\n    daily_limit: \"1\"\n")); err == nil {
		t.Error("expected error for policy missing ENHANCED and PREMIUM")
	}
	if _, err := ParseConfig([]byte("levels:\n  - level: GOLD\n    daily_limit: \"1\"\n")); err == nil {
		t.Error("expected error for unknown level")
	}
}
