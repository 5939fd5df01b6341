package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/access"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/money"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func (e *Engine) CreatePiggyBank(ctx context.Context, actorId, name, description string, target decimal.Decimal) (*models.PiggyBankView, error) {
	if err := validate(target); err != nil {
		return nil, err
	}
	pool, err := e.store.CreatePiggyBank(ctx, store.CreatePiggyBankParams{
		CreatorId:    actorId,
		Name:         strings.TrimSpace(name),
		Description:  strings.TrimSpace(description),
		TargetAmount: target,
	})
	if err != nil {
		return nil, err
	}
	return e.view(ctx, pool)
}

// ListPiggyBanks returns the active pools the actor created or joined.
func (e *Engine) ListPiggyBanks(ctx context.Context, actorId string) ([]models.PiggyBankView, error) {
	pools, err := e.store.GetUserPiggyBanks(ctx, actorId)
	if err != nil {
		return nil, err
	}
	views := make([]models.PiggyBankView, 0, len(pools))
	for i := range pools {
		v, err := e.view(ctx, &pools[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// GetPiggyBank is visible to the creator and active members only.
func (e *Engine) GetPiggyBank(ctx context.Context, actorId, poolId string) (*models.PiggyBankView, error) {
	pool, err := e.visiblePool(ctx, actorId, poolId)
	if err != nil {
		return nil, err
	}
	return e.view(ctx, pool)
}

// PiggyBankView builds the derived view without an access check. Used by
// trusted readers such as the bot API.
func (e *Engine) PiggyBankView(ctx context.Context, poolId string) (*models.PiggyBankView, error) {
	pool, err := e.store.GetPiggyBank(ctx, poolId)
	if err != nil {
		return nil, err
	}
	return e.view(ctx, pool)
}

func (e *Engine) DeactivatePiggyBank(ctx context.Context, actorId, poolId string) error {
	return e.store.DeactivatePiggyBank(ctx, actorId, poolId)
}

// AddMember invites a user by username. Only the creator gets to learn
// whether a username exists.
func (e *Engine) AddMember(ctx context.Context, actorId, poolId, username string) (*models.Membership, error) {
	pool, err := e.store.GetPiggyBank(ctx, poolId)
	if err != nil {
		return nil, err
	}
	if err := access.CanManagePool(actorId, pool); err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", store.ErrNotFound)
	}
	user, err := e.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return e.store.AddMember(ctx, actorId, poolId, user.Id)
}

func (e *Engine) Members(ctx context.Context, actorId, poolId string) ([]models.Membership, error) {
	if _, err := e.visiblePool(ctx, actorId, poolId); err != nil {
		return nil, err
	}
	return e.store.GetMembers(ctx, poolId)
}

func (e *Engine) Contributions(ctx context.Context, actorId, poolId string) ([]models.Contribution, error) {
	if _, err := e.visiblePool(ctx, actorId, poolId); err != nil {
		return nil, err
	}
	return e.store.GetContributions(ctx, poolId)
}

func (e *Engine) Contribute(ctx context.Context, actorId, poolId, walletId string, amount decimal.Decimal) (*models.Contribution, error) {
	if err := validate(amount); err != nil {
		return nil, err
	}
	if err := e.authorize(ctx, actorId, amount); err != nil {
		return nil, err
	}
	return e.store.Contribute(ctx, store.ContributeParams{
		ActorId:     actorId,
		PiggyBankId: poolId,
		WalletId:    walletId,
		Amount:      amount,
	})
}

// Disburse pays from a pool. Only the creator can pay; a non-creator is
// rejected before the gate or the pool balance are consulted.
func (e *Engine) Disburse(ctx context.Context, actorId, poolId, recipientWalletId string, amount decimal.Decimal, description string) (*models.Entry, error) {
	if err := validate(amount); err != nil {
		return nil, err
	}

	pool, err := e.store.GetPiggyBank(ctx, poolId)
	if err != nil {
		return nil, err
	}
	if err := access.CanDisburse(actorId, pool); err != nil {
		return nil, err
	}
	if err := e.authorize(ctx, actorId, amount); err != nil {
		return nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultPaymentDescription
	}
	return e.store.Disburse(ctx, store.DisburseParams{
		ActorId:           actorId,
		PiggyBankId:       poolId,
		RecipientWalletId: recipientWalletId,
		Amount:            amount,
		Description:       description,
	})
}

func (e *Engine) visiblePool(ctx context.Context, actorId, poolId string) (*models.PiggyBank, error) {
	pool, err := e.store.GetPiggyBank(ctx, poolId)
	if err != nil {
		return nil, err
	}
	if !pool.Active {
		return nil, fmt.Errorf("%w: piggy bank %s", store.ErrNotFound, poolId)
	}

	var membership *models.Membership
	if pool.CreatorId != actorId {
		membership, err = e.store.GetMembership(ctx, poolId, actorId)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if err := access.CanViewPool(actorId, pool, membership); err != nil {
		return nil, err
	}
	return pool, nil
}

func (e *Engine) view(ctx context.Context, pool *models.PiggyBank) (*models.PiggyBankView, error) {
	creator, err := e.store.GetUserById(ctx, pool.CreatorId)
	if err != nil {
		return nil, err
	}
	members, err := e.store.GetMembers(ctx, pool.Id)
	if err != nil {
		return nil, err
	}
	contributions, err := e.store.GetContributions(ctx, pool.Id)
	if err != nil {
		return nil, err
	}

	return &models.PiggyBankView{
		PiggyBank:          *pool,
		CreatorUsername:    creator.Username,
		ProgressPercentage: money.Progress(pool.CurrentAmount, pool.TargetAmount),
		IsTargetReached:    pool.CurrentAmount.GreaterThanOrEqual(pool.TargetAmount),
		MembersCount:       len(members),
		ContributionsCount: len(contributions),
	}, nil
}
