/*
Package wallet owns every mutation of a wallet balance.

Balance-affecting workflows run inside a repositories.LedgerRepository unit of
work and follow the same steps:

	unlock, err := locker.Lock(ctx, userID)
	...
	err = repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
	    w, err := tx.GetWalletForUpdate(ctx, userID)
	    if !wallet.CanAfford(w, price) { return apperrors.ErrInsufficientBalance }
	    _, err = wallet.Record(ctx, tx, w, wallet.Entry{...})
	    return err
	})

CanAfford is only meaningful against a wallet read under the row lock. Record
writes the immutable ledger entry with balance before/after and then applies
the delta to the wallet row; it is the only code path that changes Balance.

Service adds deposits (idempotent on the provider reference), cached balance
reads and transaction history on top of these primitives.
*/
package wallet
