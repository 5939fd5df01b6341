// Package access decides who may move money out of wallets and pools.
// Checks are pure and are evaluated by the stores against rows that are
// already locked, so the decision and the mutation see the same state.
package access

import (
	"fmt"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"
)

// CanOperateWallet requires the actor to own an active wallet. It guards
// deposits into and debits from the actor's own wallets.
func CanOperateWallet(actorId string, wallet *models.Wallet) error {
	if wallet.UserId != actorId {
		return fmt.Errorf("%w: wallet %s is not owned by the actor", store.ErrForbidden, wallet.Id)
	}
	if !wallet.Active {
		return fmt.Errorf("%w: wallet %s is deactivated", store.ErrInactive, wallet.Id)
	}
	return nil
}

// CanCreditWallet requires the counterpart wallet to be active. An inactive
// counterpart is reported as not found.
func CanCreditWallet(wallet *models.Wallet) error {
	if !wallet.Active {
		return fmt.Errorf("%w: wallet %s", store.ErrNotFound, wallet.Id)
	}
	return nil
}

// CanContribute allows the creator or an active member of an active pool.
func CanContribute(actorId string, pool *models.PiggyBank, membership *models.Membership) error {
	if !pool.Active {
		return fmt.Errorf("%w: piggy bank %s", store.ErrNotFound, pool.Id)
	}
	if pool.CreatorId == actorId {
		return nil
	}
	if membership == nil || !membership.Active {
		return fmt.Errorf("%w: only the creator or members can contribute to piggy bank %s", store.ErrForbidden, pool.Id)
	}
	return nil
}

// CanDisburse allows exactly the creator. There is no delegation.
func CanDisburse(actorId string, pool *models.PiggyBank) error {
	if pool.CreatorId != actorId {
		return fmt.Errorf("%w: only the creator can pay from piggy bank %s", store.ErrForbidden, pool.Id)
	}
	if !pool.Active {
		return fmt.Errorf("%w: piggy bank %s", store.ErrNotFound, pool.Id)
	}
	return nil
}

// CanManagePool covers inviting members and deactivation.
func CanManagePool(actorId string, pool *models.PiggyBank) error {
	if !pool.Active {
		return fmt.Errorf("%w: piggy bank %s", store.ErrNotFound, pool.Id)
	}
	if pool.CreatorId != actorId {
		return fmt.Errorf("%w: only the creator can manage piggy bank %s", store.ErrForbidden, pool.Id)
	}
	return nil
}

// CanViewPool allows the creator and active members to read pool details,
// members and contributions.
func CanViewPool(actorId string, pool *models.PiggyBank, membership *models.Membership) error {
	if pool.CreatorId == actorId {
		return nil
	}
	if membership != nil && membership.Active {
		return nil
	}
	return fmt.Errorf("%w: piggy bank %s is visible to its creator and members only", store.ErrForbidden, pool.Id)
}

// CanViewWallet allows only the owner.
func CanViewWallet(actorId string, wallet *models.Wallet) error {
	if wallet.UserId != actorId {
		return fmt.Errorf("%w: wallet %s is not owned by the actor", store.ErrForbidden, wallet.Id)
	}
	return nil
}
