package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"wallet-ledger-go/internal/common"
	"wallet-ledger-go/internal/config"
	"wallet-ledger-go/internal/kyc"
	"wallet-ledger-go/internal/money"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

func printSummary(username string, summary *kyc.Summary) {
	fmt.Println()
	common.PrintHeader("KYC STATUS: "+username, common.DefaultWidth)
	if !summary.HasProfile {
		common.PrintField("Profile", "none")
	} else {
		common.PrintField("Status", summary.Status)
		common.PrintField("Level", summary.Level)
	}
	common.PrintField("Verified", summary.IsVerified)
	common.PrintField("Daily limit", money.Format(summary.DailyLimit))
	common.PrintField("Next step", summary.NextStep)

	fmt.Println("Documents:")
	for i, doc := range summary.RequiredDocuments {
		state := "missing"
		for _, up := range summary.UploadedDocuments {
			if up == doc {
				state = "uploaded"
				break
			}
		}
		fmt.Printf("%s %-20s %s\n", common.BoxPrefix(i == len(summary.RequiredDocuments)-1), doc, state)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	usernameFlag := flag.String("username", "", "User to update (required)")
	statusFlag := flag.String("status", "", "New status: PENDING, UNDER_REVIEW, APPROVED, REJECTED, REQUIRES_UPDATE")
	levelFlag := flag.String("level", "BASIC", "Verification level: BASIC, ENHANCED, PREMIUM")
	reasonFlag := flag.String("reason", "", "Rejection reason")
	documentsFlag := flag.String("documents", "", "Comma-separated document types to record, e.g. ID_FRONT,ID_BACK")
	flag.Parse()

	if *usernameFlag == "" {
		zap.L().Fatal("--username is required")
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := services.DbService.GetUserByUsername(ctx, *usernameFlag)
	if err != nil {
		zap.L().Fatal("User not found", zap.String("username", *usernameFlag), zap.Error(err))
	}

	if *statusFlag != "" {
		status, err := kyc.ParseStatus(strings.ToUpper(*statusFlag))
		if err != nil {
			zap.L().Fatal("Invalid status", zap.Error(err))
		}
		level, err := kyc.ParseLevel(strings.ToUpper(*levelFlag))
		if err != nil {
			zap.L().Fatal("Invalid level", zap.Error(err))
		}

		params := store.UpsertKYCProfileParams{
			UserId:          user.Id,
			Status:          status,
			Level:           level,
			RejectionReason: *reasonFlag,
		}
		if status == kyc.StatusApproved || status == kyc.StatusRejected {
			reviewed := time.Now()
			params.ReviewedAt = &reviewed
		}

		profile, err := services.DbService.UpsertKYCProfile(ctx, params)
		if err != nil {
			zap.L().Fatal("Failed to update KYC profile", zap.Error(err))
		}
		zap.L().Info("KYC profile updated",
			zap.String("user_id", user.Id),
			zap.String("status", string(profile.Status)),
			zap.String("level", string(profile.Level)))
	}

	if *documentsFlag != "" {
		for _, doc := range strings.Split(*documentsFlag, ",") {
			doc = strings.ToUpper(strings.TrimSpace(doc))
			if doc == "" {
				continue
			}
			if err := services.DbService.RecordKYCDocument(ctx, user.Id, doc); err != nil {
				zap.L().Fatal("Failed to record document", zap.String("document", doc), zap.Error(err))
			}
			zap.L().Info("KYC document recorded", zap.String("user_id", user.Id), zap.String("document", doc))
		}
	}

	summary, err := services.Engine.KYCStatus(ctx, user.Id)
	if err != nil {
		zap.L().Fatal("Failed to load KYC status", zap.Error(err))
	}
	printSummary(user.Username, summary)
}
