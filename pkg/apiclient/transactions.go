package apiclient

import (
	"context"
	"net/http"

	"storefront.app/pkg/media"
)

type TransactionService struct {
	c *Client
}

// Create opens a transaction for the given cart items. When the server
// answers without the created transaction, Data has an empty ID.
func (s *TransactionService) Create(ctx context.Context, in TransactionInput) Result[Transaction] {
	return do[Transaction](ctx, s.c, call{
		resource: "transactions",
		op:       "create",
		method:   http.MethodPost,
		path:     "/create-transaction",
		body:     in,
		success:  "Transaction created",
		fallback: "Failed to create transaction",
	})
}

func (s *TransactionService) Cancel(ctx context.Context, id string) Result[struct{}] {
	if err := requireID(id); err != nil {
		return Invalid[struct{}](err)
	}
	return do[struct{}](ctx, s.c, call{
		resource: "transactions",
		op:       "cancel",
		method:   http.MethodPost,
		path:     pathf("/cancel-transaction/%s", id),
		success:  "Transaction cancelled",
		fallback: "Failed to cancel transaction",
	})
}

// UpdateProofPayment attaches an uploaded proof image to the transaction
func (s *TransactionService) UpdateProofPayment(ctx context.Context, id, proofURL string) Result[struct{}] {
	if err := requireID(id); err != nil {
		return Invalid[struct{}](err)
	}
	if err := media.ValidateImageURL(proofURL); err != nil {
		return Invalid[struct{}](err)
	}
	return do[struct{}](ctx, s.c, call{
		resource: "transactions",
		op:       "update_proof",
		method:   http.MethodPost,
		path:     pathf("/update-transaction-proof-payment/%s", id),
		body:     map[string]string{"proofPaymentUrl": proofURL},
		success:  "Proof of payment uploaded",
		fallback: "Failed to upload proof of payment",
	})
}

// UpdateStatus is the admin approve/reject action
func (s *TransactionService) UpdateStatus(ctx context.Context, id string, status TransactionStatus) Result[struct{}] {
	if err := requireID(id); err != nil {
		return Invalid[struct{}](err)
	}
	return do[struct{}](ctx, s.c, call{
		resource: "transactions",
		op:       "update_status",
		method:   http.MethodPost,
		path:     pathf("/update-transaction-status/%s", id),
		body:     map[string]TransactionStatus{"status": status},
		success:  "Transaction status updated",
		fallback: "Failed to update transaction status",
	})
}

func (s *TransactionService) Mine(ctx context.Context) Result[[]Transaction] {
	return do[[]Transaction](ctx, s.c, call{
		resource: "transactions",
		op:       "mine",
		method:   http.MethodGet,
		path:     "/my-transactions",
		success:  "transactions fetched",
		fallback: "Failed to fetch transactions",
	})
}

func (s *TransactionService) All(ctx context.Context) Result[[]Transaction] {
	return do[[]Transaction](ctx, s.c, call{
		resource: "transactions",
		op:       "all",
		method:   http.MethodGet,
		path:     "/all-transactions",
		success:  "transactions fetched",
		fallback: "Failed to fetch transactions",
	})
}

func (s *TransactionService) Get(ctx context.Context, id string) Result[Transaction] {
	if err := requireID(id); err != nil {
		return Invalid[Transaction](err)
	}
	return do[Transaction](ctx, s.c, call{
		resource: "transactions",
		op:       "get",
		method:   http.MethodGet,
		path:     pathf("/transaction/%s", id),
		success:  "transaction fetched",
		fallback: "Failed to fetch transaction",
	})
}
