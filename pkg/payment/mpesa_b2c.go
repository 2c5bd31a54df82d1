package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// MpesaB2CProvider sends B2C (business-to-customer) transfers through the
// aggregator's card API.
type MpesaB2CProvider struct {
	BaseURL     string
	Email       string
	Password    string
	WebhookBase string
	client      *http.Client
}

func NewMpesaB2CProvider(baseURL, email, password, webhookBase string) *MpesaB2CProvider {
	return &MpesaB2CProvider{
		BaseURL:     baseURL,
		Email:       email,
		Password:    password,
		WebhookBase: webhookBase,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type b2cLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type b2cLoginResp struct {
	Token string `json:"token"`
}

// getToken logs in and returns a fresh token (per transaction as recommended).
func (p *MpesaB2CProvider) getToken(ctx context.Context) (string, error) {
	body, _ := json.Marshal(b2cLoginReq{Email: p.Email, Password: p.Password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1/merchants/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %d", resp.StatusCode)
	}
	var out b2cLoginResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

type b2cResp struct {
	UUID                     string `json:"uuid"`
	OrderID                  string `json:"order_id"`
	OriginatorConversationID string `json:"originator_conversation_id"`
	ConversationID           string `json:"conversation_id"`
	Amount                   int    `json:"amount"`
	PhoneNumber              string `json:"phone_number"`
	Status                   string `json:"status"`
	ResponseCode             string `json:"response_code"`
	ResponseDescription      string `json:"response_description"`
	CreatedAt                string `json:"created_at"`
}

// InitiateTransfer calls the M-Pesa B2C API to send money to a phone number.
func (p *MpesaB2CProvider) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("b2c login: %w", err)
	}
	callbackURL := req.CallbackURL
	if callbackURL == "" && p.WebhookBase != "" {
		base := p.WebhookBase
		if len(base) > 0 && base[0] != 'h' {
			base = "https://" + base
		}
		callbackURL = base + "/api/v1/webhooks/withdrawal"
	}
	body := map[string]string{
		"amount":       strconv.FormatInt(req.AmountCents/100, 10), // API wants whole KES
		"phone_number": req.PhoneNumber,
		"description":  req.Description,
		"remarks":      req.Remarks,
		"order_id":     req.Reference,
		"callback_url": callbackURL,
	}
	if body["description"] == "" {
		body["description"] = "B2C payment"
	}
	if body["remarks"] == "" {
		body["remarks"] = "Withdrawal payment"
	}
	bodyBytes, _ := json.Marshal(body)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1/transactions/mpesa/b2c", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+token)
	log.Printf("[MPESA B2C] POST %s/transactions/mpesa/b2c order_id=%s amount=%d phone=%s", p.BaseURL, req.Reference, req.AmountCents/100, req.PhoneNumber)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("[MPESA B2C] response status=%d body=%s", resp.StatusCode, string(respBody))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &TransferResponse{
			Success: false,
			Status:  "FAILED",
			Message: fmt.Sprintf("b2c api: %d", resp.StatusCode),
			RawBody: string(respBody),
		}, nil
	}
	var out b2cResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &TransferResponse{
		Success:       out.Status != "FAILED" && out.ResponseCode == "0",
		TransactionID: out.UUID,
		Status:        out.Status,
		Message:       out.ResponseDescription,
		RawBody:       string(respBody),
	}, nil
}

type b2cStatusResp struct {
	UUID              string `json:"uuid"`
	Status            string `json:"status"`
	Amount            int64  `json:"amount"`
	StatusDescription string `json:"status_description"`
	UpdatedAt         string `json:"updated_at"`
}

// CheckStatus looks up an earlier transfer by its transaction UUID.
func (p *MpesaB2CProvider) CheckStatus(ctx context.Context, transactionID string) (*TransferStatus, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("b2c login: %w", err)
	}
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/api/v1/transactions/"+transactionID, nil)
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Authorization", "Bearer "+token)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status api: %d", resp.StatusCode)
	}
	var out b2cStatusResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	ts := time.Now()
	if t, err := time.Parse(time.RFC3339, out.UpdatedAt); err == nil {
		ts = t
	}
	st := &TransferStatus{
		Status:      out.Status,
		AmountCents: out.Amount * 100,
		Timestamp:   ts,
	}
	if out.Status == "FAILED" {
		st.FailureReason = out.StatusDescription
	}
	return st, nil
}
