package payment

import (
	"context"
	"fmt"
	"time"
)

// StubProvider approves every transfer without touching the network; used
// in development when no gateway credentials are configured.
type StubProvider struct{}

func (s *StubProvider) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	return &TransferResponse{
		Success:       true,
		TransactionID: fmt.Sprintf("stub_%d", time.Now().UnixNano()),
		Status:        "COMPLETED",
		Message:       "stub transfer accepted",
	}, nil
}

func (s *StubProvider) CheckStatus(ctx context.Context, transactionID string) (*TransferStatus, error) {
	return &TransferStatus{Status: "COMPLETED", Timestamp: time.Now()}, nil
}
