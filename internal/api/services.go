package api

// Service accessors group operations by resource:
// client.Transactions().Create(ctx, req).

type AuthService struct{ Requester }

type CatalogService struct{ Requester }

type TransactionsService struct{ Requester }

type DepositsService struct{ Requester }

type AdminService struct{ Requester }

func (c *Client) Auth() AuthService {
	return AuthService{c}
}

func (c *Client) Catalog() CatalogService {
	return CatalogService{c}
}

func (c *Client) Transactions() TransactionsService {
	return TransactionsService{c}
}

func (c *Client) Deposits() DepositsService {
	return DepositsService{c}
}

func (c *Client) Admin() AdminService {
	return AdminService{c}
}
