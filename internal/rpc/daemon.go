package rpc

import (
	"context"
	"encoding/json"
)

// BlockTransaction is one transaction inside a fetched block. Values are
// in the ledger's base units.
type BlockTransaction struct {
	Hash        string `json:"hash"`
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Value       int64  `json:"value"`
	Fee         int64  `json:"fee"`
}

// Block is the subset of the daemon's block representation the bot reads.
type Block struct {
	Number       int64              `json:"number"`
	Transactions []BlockTransaction `json:"transactions"`
}

// TransactionRequest is the single mutating payload the bot submits.
type TransactionRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value int64  `json:"value"`
	Fee   int64  `json:"fee"`
}

// CreateAccount asks the daemon for a freshly created wallet account and
// returns its address.
func (c *Client) CreateAccount(ctx context.Context) (string, error) {
	raw, err := c.Call(ctx, "createAccount")
	if err != nil {
		return "", err
	}
	var account struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &account); err != nil {
		return "", &Error{Kind: KindProtocol, Method: "createAccount", Message: err.Error()}
	}
	return account.Address, nil
}

// GetBalance returns the daemon's raw balance for address, in base units,
// with no confirmation adjustment.
func (c *Client) GetBalance(ctx context.Context, address string) (int64, error) {
	raw, err := c.Call(ctx, "getBalance", address)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := json.Unmarshal(raw, &balance); err != nil {
		return 0, &Error{Kind: KindProtocol, Method: "getBalance", Message: err.Error()}
	}
	return balance, nil
}

// BlockNumber returns the current chain height.
func (c *Client) BlockNumber(ctx context.Context) (int64, error) {
	raw, err := c.Call(ctx, "blockNumber")
	if err != nil {
		return 0, err
	}
	var height int64
	if err := json.Unmarshal(raw, &height); err != nil {
		return 0, &Error{Kind: KindProtocol, Method: "blockNumber", Message: err.Error()}
	}
	return height, nil
}

// GetBlockByNumber fetches one block, optionally with its full
// transaction list.
func (c *Client) GetBlockByNumber(ctx context.Context, height int64, includeTransactions bool) (Block, error) {
	raw, err := c.Call(ctx, "getBlockByNumber", height, includeTransactions)
	if err != nil {
		return Block{}, err
	}
	var block Block
	if err := json.Unmarshal(raw, &block); err != nil {
		return Block{}, &Error{Kind: KindProtocol, Method: "getBlockByNumber", Message: err.Error()}
	}
	return block, nil
}

// GetAccount resolves address on the ledger. The daemon rejects addresses
// it does not know, so a nil error doubles as an existence check.
func (c *Client) GetAccount(ctx context.Context, address string) error {
	_, err := c.Call(ctx, "getAccount", address)
	return err
}

// SendTransaction submits one transfer and returns the transaction hash.
func (c *Client) SendTransaction(ctx context.Context, tx TransactionRequest) (string, error) {
	raw, err := c.Call(ctx, "sendTransaction", tx)
	if err != nil {
		return "", err
	}
	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", &Error{Kind: KindProtocol, Method: "sendTransaction", Message: err.Error()}
	}
	return hash, nil
}
