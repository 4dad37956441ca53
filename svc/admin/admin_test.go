package admin_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/apitest"
	"storefront.app/pkg/errs"
	"storefront.app/pkg/session"
	"storefront.app/svc/admin"
)

func loggedIn(t *testing.T, srv *apitest.Server, role string) *apiclient.Client {
	t.Helper()
	email := role + "@example.com"
	u := srv.AddUser("Staff "+role, email, "secret", role)
	storage := session.NewMemoryStorage()
	require.NoError(t, session.Save(context.Background(), storage, srv.IssueToken(email), u))
	return srv.Client(storage)
}

func seedTransactions(srv *apitest.Server) []apiclient.Transaction {
	day := apiclient.Time{Time: time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)}
	return srv.SeedTransactions(
		apiclient.Transaction{InvoiceID: "INV/1", Status: apiclient.StatusPending, TotalAmount: decimal.NewFromInt(150000), OrderDate: day,
			User: &apiclient.User{Name: "Dina Rahma", Email: "dina@example.com"}},
		apiclient.Transaction{InvoiceID: "INV/2", Status: apiclient.StatusSuccess, TotalAmount: decimal.NewFromInt(80000), OrderDate: day,
			User: &apiclient.User{Name: "Budi", Email: "budi@example.com"}},
		apiclient.Transaction{InvoiceID: "INV/3", Status: apiclient.StatusSuccess, TotalAmount: decimal.RequireFromString("20000.5"), CreatedAt: day},
	)
}

func TestDashboard(t *testing.T) {
	srv := apitest.New(t)
	svc := admin.NewService(loggedIn(t, srv, apiclient.RoleAdmin))
	srv.SeedActivities(apiclient.Activity{Title: "a"}, apiclient.Activity{Title: "b"})
	srv.SeedCategories(apiclient.Category{Name: "c"})
	seedTransactions(srv)

	d := svc.Dashboard(context.Background())
	assert.False(t, d.Failed())
	assert.Equal(t, 1, d.Users.Total)
	assert.Equal(t, 2, d.Activities.Total)
	assert.Equal(t, 1, d.Categories.Total)
	assert.Equal(t, 0, d.Banners.Total)
	assert.Equal(t, 3, d.Transactions.Total)
	assert.Equal(t, 1, d.Pending)
	assert.Equal(t, "100000.5", d.Revenue.String())
}

func TestDashboardPartialFailure(t *testing.T) {
	srv := apitest.New(t)
	svc := admin.NewService(loggedIn(t, srv, apiclient.RoleAdmin))
	srv.SeedPromos(apiclient.Promo{Title: "p"})
	srv.Fail(http.MethodGet, "/banners", http.StatusServiceUnavailable, "down")

	d := svc.Dashboard(context.Background())
	assert.True(t, d.Failed())
	assert.Equal(t, errs.ServiceUnavailable, errs.Code(d.Banners.Err))
	assert.Equal(t, 1, d.Promos.Total)
	assert.NoError(t, d.Promos.Err)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/all-transactions"))
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/all-user"))
}

func TestApproveReject(t *testing.T) {
	srv := apitest.New(t)
	svc := admin.NewService(loggedIn(t, srv, apiclient.RoleAdmin))
	txs := seedTransactions(srv)
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, txs[0].ID))
	require.NoError(t, svc.Reject(ctx, txs[1].ID))

	got := srv.Transactions()
	assert.Equal(t, apiclient.StatusSuccess, got[0].Status)
	assert.Equal(t, apiclient.StatusFailed, got[1].Status)

	assert.True(t, errs.IsValidation(svc.Approve(ctx, "")))
	assert.Equal(t, errs.NotFound, errs.Code(svc.Approve(ctx, "missing")))
}

func TestMemberIsForbidden(t *testing.T) {
	srv := apitest.New(t)
	svc := admin.NewService(loggedIn(t, srv, apiclient.RoleUser))
	_, err := svc.Transactions(context.Background())
	assert.Equal(t, errs.Forbidden, errs.Code(err))
}

func TestFilterTransactions(t *testing.T) {
	list := []apiclient.Transaction{
		{InvoiceID: "INV/1", Status: apiclient.StatusPending, User: &apiclient.User{Name: "Dina Rahma", Email: "dina@example.com"}},
		{InvoiceID: "INV/2", Status: apiclient.StatusSuccess, User: &apiclient.User{Name: "Budi", Email: "budi@example.com"}},
		{InvoiceID: "INV/3", Status: apiclient.StatusSuccess},
	}

	tests := []struct {
		name   string
		status apiclient.TransactionStatus
		query  string
		want   []string
	}{
		{"all", "", "", []string{"INV/1", "INV/2", "INV/3"}},
		{"by status", apiclient.StatusSuccess, "", []string{"INV/2", "INV/3"}},
		{"by name ignoring case", "", "  rahma ", []string{"INV/1"}},
		{"by email", "", "BUDI@", []string{"INV/2"}},
		{"by invoice", "", "inv/3", []string{"INV/3"}},
		{"status and query", apiclient.StatusPending, "budi", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, tx := range admin.FilterTransactions(list, tt.status, tt.query) {
				got = append(got, tx.InvoiceID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := admin.ParseStatus(" ALL ")
	require.NoError(t, err)
	assert.Empty(t, st)

	st, err = admin.ParseStatus("Success")
	require.NoError(t, err)
	assert.Equal(t, apiclient.StatusSuccess, st)

	_, err = admin.ParseStatus("refunded")
	assert.True(t, errs.IsValidation(err))
}

func TestExportCSV(t *testing.T) {
	srv := apitest.New(t)
	txs := seedTransactions(srv)
	txs[1].User.Name = `Budi "B", Jr`

	var buf bytes.Buffer
	require.NoError(t, admin.ExportCSV(&buf, txs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Invoice ID", "User", "Email", "Amount", "Status", "Date"},
		{"INV/1", "Dina Rahma", "dina@example.com", "150000", "pending", "2026-05-02"},
		{"INV/2", `Budi "B", Jr`, "budi@example.com", "80000", "success", "2026-05-02"},
		{"INV/3", "", "", "20000.5", "success", "2026-05-02"},
	}, rows)
}

func TestExportCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, admin.ExportCSV(&buf, nil))
	assert.Equal(t, "Invoice ID,User,Email,Amount,Status,Date\n", buf.String())
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "transactions_2026-10-16.csv", admin.ExportFilename(time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)))
}
