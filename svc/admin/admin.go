// Package admin backs the admin pages: a dashboard of resource counts,
// transaction review and CSV export.
package admin

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/errs"
	"storefront.app/pkg/logger"
)

// Service runs admin calls. The caller must hold an admin session; the API
// answers 403 otherwise.
type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// Count is the size of one resource list, or why it could not be loaded
type Count struct {
	Total int
	Err   error
}

// Dashboard summarizes every resource the admin manages
type Dashboard struct {
	Users        Count
	Activities   Count
	Categories   Count
	Banners      Count
	Promos       Count
	Transactions Count

	// Pending transactions awaiting review
	Pending int
	// Revenue is the total of successful transactions
	Revenue decimal.Decimal
}

// Failed reports whether any resource could not be loaded
func (d Dashboard) Failed() bool {
	for _, c := range []Count{d.Users, d.Activities, d.Categories, d.Banners, d.Promos, d.Transactions} {
		if c.Err != nil {
			return true
		}
	}
	return false
}

func count[T any](ctx context.Context, name string, list func(context.Context) apiclient.Result[[]T]) (Count, []T) {
	res := list(ctx)
	if !res.OK {
		logger.Warn(ctx, "dashboard resource failed", logger.Fields{"resource": name, "status": res.Status, "error": res.Error})
		return Count{Err: res.Err()}, nil
	}
	return Count{Total: len(res.Data)}, res.Data
}

// Dashboard loads all lists in parallel. One failing list does not stop
// the others; its Count carries the error.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	var (
		d   Dashboard
		txs []apiclient.Transaction
		g   errgroup.Group
	)

	g.Go(func() error { d.Users, _ = count(ctx, "users", s.client.Users.List); return nil })
	g.Go(func() error { d.Activities, _ = count(ctx, "activities", s.client.Activities.List); return nil })
	g.Go(func() error { d.Categories, _ = count(ctx, "categories", s.client.Categories.List); return nil })
	g.Go(func() error { d.Banners, _ = count(ctx, "banners", s.client.Banners.List); return nil })
	g.Go(func() error { d.Promos, _ = count(ctx, "promos", s.client.Promos.List); return nil })
	g.Go(func() error { d.Transactions, txs = count(ctx, "transactions", s.client.Transactions.All); return nil })
	_ = g.Wait()

	d.Revenue = decimal.Zero
	for _, t := range txs {
		switch t.Status {
		case apiclient.StatusPending:
			d.Pending++
		case apiclient.StatusSuccess:
			d.Revenue = d.Revenue.Add(t.TotalAmount)
		}
	}
	return d
}

// Transactions lists every user's transactions
func (s *Service) Transactions(ctx context.Context) ([]apiclient.Transaction, error) {
	res := s.client.Transactions.All(ctx)
	if !res.OK {
		return nil, res.Err()
	}
	return res.Data, nil
}

// Approve marks a transaction paid
func (s *Service) Approve(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, apiclient.StatusSuccess)
}

// Reject marks a transaction failed
func (s *Service) Reject(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, apiclient.StatusFailed)
}

func (s *Service) setStatus(ctx context.Context, id string, status apiclient.TransactionStatus) error {
	if id == "" {
		return errs.Validation("transaction id is required")
	}
	res := s.client.Transactions.UpdateStatus(ctx, id, status)
	if !res.OK {
		return res.Err()
	}
	logger.Info(ctx, "transaction reviewed", logger.Fields{"transaction_id": id, "status": string(status)})
	return nil
}

// FilterTransactions keeps transactions with the given status ("" for any)
// whose invoice ID, user name or email contains query, ignoring case.
func FilterTransactions(list []apiclient.Transaction, status apiclient.TransactionStatus, query string) []apiclient.Transaction {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]apiclient.Transaction, 0, len(list))
	for _, t := range list {
		if status != "" && t.Status != status {
			continue
		}
		if q != "" && !matches(t, q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(t apiclient.Transaction, q string) bool {
	fields := []string{t.InvoiceID}
	if t.User != nil {
		fields = append(fields, t.User.Name, t.User.Email)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// ParseStatus reads a status filter; "" and "all" mean any status
func ParseStatus(s string) (apiclient.TransactionStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return "", nil
	}
	st := apiclient.TransactionStatus(s)
	if !st.Valid() {
		return "", errs.Validation("unknown transaction status: " + s)
	}
	return st, nil
}
