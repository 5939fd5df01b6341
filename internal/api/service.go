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

package api

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"wallet-ledger-go/internal/ledger"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Server exposes the ledger engine over HTTP
type Server struct {
	engine    *ledger.Engine
	store     store.LedgerStore
	validator *validator.Validate
	cfg       models.ServerConfig
	jwtSecret []byte
}

type pinger interface {
	Ping(ctx context.Context) error
}

func NewServer(engine *ledger.Engine, cfg models.ServerConfig, auth models.AuthConfig) *Server {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if auth.JWTSecret == "" {
		zap.L().Warn("JWT_SECRET is not set; user API requests will be rejected")
	}

	return &Server{
		engine:    engine,
		store:     engine.Store(),
		validator: v,
		cfg:       cfg,
		jwtSecret: []byte(auth.JWTSecret),
	}
}

func (s *Server) HealthCheck(ctx context.Context) error {
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
		return nil
	}
	if _, err := s.store.GetUsers(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Routes builds the user API under /api/v1 and the bot API under /bot/v1.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleStatus)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.RequireUser)

		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", s.handleCreateWallet)
			r.Get("/", s.handleListWallets)
			r.Route("/{walletId}", func(r chi.Router) {
				r.Get("/", s.handleGetWallet)
				r.Delete("/", s.handleDeactivateWallet)
				r.Post("/deposit", s.handleDeposit)
				r.Post("/transfer", s.handleTransfer)
				r.Get("/transactions", s.handleListTransactions)
			})
		})

		r.Route("/piggybanks", func(r chi.Router) {
			r.Post("/", s.handleCreatePiggyBank)
			r.Get("/", s.handleListPiggyBanks)
			r.Route("/{poolId}", func(r chi.Router) {
				r.Get("/", s.handleGetPiggyBank)
				r.Delete("/", s.handleDeactivatePiggyBank)
				r.Get("/members", s.handleListMembers)
				r.Post("/members", s.handleAddMember)
				r.Post("/contribute", s.handleContribute)
				r.Get("/contributions", s.handleListContributions)
				r.Post("/pay", s.handlePay)
			})
		})

		r.Get("/kyc/status", s.handleKYCStatus)
	})

	r.Route("/bot/v1", func(r chi.Router) {
		r.Use(s.RequireAPIKey)

		r.Get("/status", s.handleStatus)
		r.Get("/stats", s.handleStats)
		r.Get("/users/search", s.handleSearchUsers)
		r.Get("/users/{userId}/summary", s.handleUserSummary)
		r.Get("/users/{userId}/wallets", s.handleUserWallets)
		r.Get("/users/{userId}/kyc-status", s.handleUserKYCStatus)
		r.Get("/wallets/{walletId}/transactions", s.handleBotTransactions)
		r.Get("/piggybanks/{poolId}", s.handleBotPiggyBank)
		r.Post("/validate-transaction", s.handleValidateTransaction)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
