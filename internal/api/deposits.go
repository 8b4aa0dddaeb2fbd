package api

import (
	"context"
	"net/http"
)

// Create opens a QRIS deposit for amount rupiah. Not idempotent.
func (s DepositsService) Create(ctx context.Context, amount int64) (*DepositResponse, error) {
	var result DepositResponse
	err := s.do(ctx, request{
		op:     "deposits.create",
		method: http.MethodPost,
		url:    s.endpoints().Deposits(),
		body:   DepositRequest{Amount: amount},
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshStatus re-checks a deposit with the payment gateway.
func (s DepositsService) RefreshStatus(ctx context.Context, id int) (*DepositResponse, error) {
	var result DepositResponse
	err := refresh(ctx, s.Requester, request{
		op:     "deposits.refresh_status",
		method: http.MethodGet,
		url:    s.endpoints().DepositStatus(id),
		auth:   true,
	}, &result, func() bool { return result.Data != nil })
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Topup requests a balance top-up through the given payment method.
func (s DepositsService) Topup(ctx context.Context, amount int64, method string) (*DepositResponse, error) {
	var result DepositResponse
	err := s.do(ctx, request{
		op:     "deposits.topup",
		method: http.MethodPost,
		url:    s.endpoints().Topup(),
		body:   TopupRequest{Amount: amount, PaymentMethod: method},
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
