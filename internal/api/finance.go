package api

import (
	"context"
	"fmt"
	"net/url"
)

// BankAccount is a facility bank account managed by the finance office.
type BankAccount struct {
	ID            string `json:"id"`
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	Branch        string `json:"branch,omitempty"`
	Currency      string `json:"currency,omitempty"` // GHS unless stated
	Active        bool   `json:"active"`
}

// ListBankAccountsResponse is the response from GET /finance/bank-accounts.
type ListBankAccountsResponse struct {
	Accounts []BankAccount `json:"accounts"`
}

// ListBankAccounts lists the facility's bank accounts.
func (c *Client) ListBankAccounts(ctx context.Context) (*ListBankAccountsResponse, error) {
	var resp ListBankAccountsResponse
	if err := c.get(ctx, "/finance/bank-accounts", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddBankAccountRequest is the request body for POST /finance/bank-accounts.
type AddBankAccountRequest struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	Branch        string `json:"branch,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

// BankAccountResponse wraps a single bank account.
type BankAccountResponse struct {
	Account BankAccount `json:"account"`
}

// AddBankAccount registers a bank account.
func (c *Client) AddBankAccount(ctx context.Context, req *AddBankAccountRequest) (*BankAccountResponse, error) {
	var resp BankAccountResponse
	if err := c.post(ctx, "/finance/bank-accounts", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeactivateBankAccount disables a bank account. Returns nil response if
// the account was already gone (404).
func (c *Client) DeactivateBankAccount(ctx context.Context, accountID string) (*BankAccountResponse, error) {
	var resp BankAccountResponse
	path := fmt.Sprintf("/finance/bank-accounts/%s", url.PathEscape(accountID))
	if err := c.delete(ctx, path, &resp); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &resp, nil
}
