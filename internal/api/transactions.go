package api

import (
	"context"
	"net/http"
)

const opCreateTransaction = "transactions.create"

// Create places a top-up order. 200 and 201 are both success. Any other
// status is an *HTTPError carrying the body's message; 422 means the wallet
// balance is too low (see IsInsufficientBalance).
//
// Create is not idempotent: calling it twice places two orders.
func (s TransactionsService) Create(ctx context.Context, req TransactionRequest) (*TransactionResponse, error) {
	resp, err := s.send(ctx, request{
		op:     opCreateTransaction,
		method: http.MethodPost,
		url:    s.endpoints().Transactions(),
		body:   req,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, newHTTPError(opCreateTransaction, resp.StatusCode, resp.Body)
	}
	var result TransactionResponse
	if err := decode(resp.Body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches a transaction as stored, without asking the provider.
func (s TransactionsService) Get(ctx context.Context, id int) (*TransactionStatusResponse, error) {
	var result TransactionStatusResponse
	err := s.do(ctx, request{
		op:     "transactions.get",
		method: http.MethodGet,
		url:    s.endpoints().Transaction(id),
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshStatus asks the backend to re-check the order with the provider.
// Safe to repeat.
func (s TransactionsService) RefreshStatus(ctx context.Context, id int) (*TransactionStatusResponse, error) {
	var result TransactionStatusResponse
	err := refresh(ctx, s.Requester, request{
		op:     "transactions.refresh_status",
		method: http.MethodGet,
		url:    s.endpoints().TransactionStatus(id),
		auth:   true,
	}, &result, func() bool { return result.Transaction != nil })
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Mine lists the logged-in user's orders.
func (s TransactionsService) Mine(ctx context.Context) (*Paginated[Transaction], error) {
	var result Paginated[Transaction]
	err := s.do(ctx, request{
		op:     "transactions.mine",
		method: http.MethodGet,
		url:    s.endpoints().MyTransactions(),
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns one page of all orders (admin).
func (s TransactionsService) List(ctx context.Context, page int) (*Paginated[Transaction], error) {
	var result Paginated[Transaction]
	err := s.do(ctx, request{
		op:     "transactions.list",
		method: http.MethodGet,
		url:    s.endpoints().TransactionsPage(page),
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// refresh performs a status refresh. The body is decoded whatever the status
// code; a non-2xx response only becomes an *HTTPError when it does not carry
// the entity (found reports whether the decoded result has it).
func refresh(ctx context.Context, r HTTPExecutor, req request, result any, found func() bool) error {
	resp, err := r.send(ctx, req)
	if err != nil {
		return err
	}
	if resp.ok() {
		return decode(resp.Body, result)
	}
	if err := decode(resp.Body, result); err != nil || !found() {
		return newHTTPError(req.op, resp.StatusCode, resp.Body)
	}
	return nil
}
