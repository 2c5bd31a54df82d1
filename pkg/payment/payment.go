package payment

import (
	"context"
	"time"
)

// TransferRequest asks the gateway to send money to a phone number.
// PhoneNumber must already be in gateway format (254XXXXXXXXX).
type TransferRequest struct {
	AmountCents int64
	PhoneNumber string
	Reference   string // unique order id, e.g. wd-<uuid>
	Description string
	Remarks     string
	CallbackURL string
}

// TransferResponse is the gateway's synchronous answer to a transfer.
// RawBody keeps the unparsed provider payload for the transaction record.
type TransferResponse struct {
	Success       bool
	TransactionID string
	Status        string
	Message       string
	RawBody       string
}

// TransferStatus is the result of a status lookup for an earlier transfer.
type TransferStatus struct {
	Status        string
	AmountCents   int64
	Timestamp     time.Time
	FailureReason string
}

// Provider is the payment gateway the settlement engine talks to.
type Provider interface {
	InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResponse, error)
	CheckStatus(ctx context.Context, transactionID string) (*TransferStatus, error)
}

// method -> gateway fee rate. Informational only: the withdrawal path
// always records fees=0 for the artist.
var feeRates = map[string]float64{
	"MPESA_TRANSFER": 0.01,
	"BANK_TRANSFER":  0.015,
	"MANUAL":         0,
}

// FeeFor returns the gateway fee in cents for a transfer of amountCents
// via the given method. Unknown methods cost nothing.
func FeeFor(method string, amountCents int64) int64 {
	rate, ok := feeRates[method]
	if !ok {
		return 0
	}
	return int64(float64(amountCents) * rate)
}
