package dto

// CreateWalletRequest is the request body for wallet creation.
// Only USD is accepted for now.
type CreateWalletRequest struct {
	Currency string `json:"currency" binding:"required,oneof=USD"`
}

// FundRequest is the request body for funding a wallet.
type FundRequest struct {
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Reference string `json:"reference,omitempty" binding:"omitempty,max=100"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	FromWalletID string `json:"from_wallet_id" binding:"required,uuid4"`
	ToWalletID   string `json:"to_wallet_id" binding:"required,uuid4"`
	Amount       int64  `json:"amount" binding:"required,gt=0"`
	Reference    string `json:"reference,omitempty" binding:"omitempty,max=100"`
}

// WalletResponse is the response body for wallet state.
type WalletResponse struct {
	ID        string `json:"id"`
	Currency  string `json:"currency"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TransactionResponse is the response body for a ledger entry.
type TransactionResponse struct {
	ID        string  `json:"id"`
	WalletID  string  `json:"wallet_id"`
	Amount    int64   `json:"amount"`
	Type      string  `json:"type"`
	Reference *string `json:"reference,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// WalletDetailResponse is a wallet together with its ledger history.
type WalletDetailResponse struct {
	WalletResponse
	Transactions []TransactionResponse `json:"transactions"`
}

// TransferResponse is the response body for transfer results.
type TransferResponse struct {
	Status       string `json:"status"`
	FromWalletID string `json:"from_wallet_id,omitempty"`
	ToWalletID   string `json:"to_wallet_id,omitempty"`
	Amount       int64  `json:"amount,omitempty"`
	Reference    string `json:"reference,omitempty"`
}
