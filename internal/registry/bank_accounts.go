package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/docstore"
)

// BankAccount is a seller's payout account. Only its existence matters to
// the authoring flow: bank-transfer payment cannot be offered without one.
type BankAccount struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	BankName      string `json:"bank_name"`
	Branch        string `json:"branch"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

type BankAccounts struct {
	store docstore.Store
}

func NewBankAccounts(store docstore.Store) *BankAccounts {
	return &BankAccounts{store: store}
}

// ForUser returns the user's payout accounts.
func (b *BankAccounts) ForUser(ctx context.Context, userID string) ([]BankAccount, error) {
	docs, err := b.store.Query(ctx, docstore.CollectionBankAccounts, map[string]any{"owner_id": userID})
	if err != nil {
		return nil, fmt.Errorf("query bank accounts: %w", err)
	}

	accounts := make([]BankAccount, 0, len(docs))
	for _, doc := range docs {
		var acc BankAccount
		if err := json.Unmarshal(doc.Payload, &acc); err != nil {
			return nil, fmt.Errorf("decode bank account %s: %w", doc.ID, err)
		}
		acc.ID = doc.ID
		accounts = append(accounts, acc)
	}

	return accounts, nil
}

// HasAny reports whether the user has at least one payout account on file.
func (b *BankAccounts) HasAny(ctx context.Context, userID string) (bool, error) {
	accounts, err := b.ForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}
