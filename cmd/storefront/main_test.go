package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/apitest"
	"storefront.app/pkg/config"
	"storefront.app/pkg/errs"
	"storefront.app/pkg/session"
)

type harness struct {
	app *app
	srv *apitest.Server
	out *bytes.Buffer
}

func newHarness(t *testing.T) harness {
	t.Helper()
	srv := apitest.New(t)
	var out bytes.Buffer
	a := wire(srv.Client(session.NewMemoryStorage()), config.PolicyRetainSilent, &out)
	a.now = func() time.Time { return time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC) }
	srv.AddUser("Dina Rahma", "dina@example.com", "secret", "")
	srv.AddUser("Admin", "admin@example.com", "secret", apiclient.RoleAdmin)
	return harness{app: a, srv: srv, out: &out}
}

func (h harness) run(t *testing.T, args ...string) error {
	t.Helper()
	return h.app.dispatch(context.Background(), args[0], args[1:])
}

func (h harness) login(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, h.run(t, "login", "-email", email, "-password", "secret"))
	h.out.Reset()
}

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestRunWithoutCommand(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, &bytes.Buffer{}, &stderr))
	assert.Contains(t, stderr.String(), "usage: storefront")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	err := h.run(t, "teleport")
	assert.ErrorIs(t, err, errUnknownCommand)
	assert.Zero(t, h.srv.TotalCalls())
}

func TestActivitiesSorted(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedActivities(
		apiclient.Activity{Title: "Rafting", Price: price(300000), City: "Bali"},
		apiclient.Activity{Title: "Snorkeling", Price: price(500000), PriceDiscount: price(120000), City: "Lombok"},
		apiclient.Activity{Title: "Museum", Price: price(50000), City: "Jakarta"},
	)

	require.NoError(t, h.run(t, "activities", "-sort", "price-asc", "-max-price", "200000"))
	out := h.out.String()
	assert.Less(t, strings.Index(out, "Museum"), strings.Index(out, "Snorkeling"))
	assert.NotContains(t, out, "Rafting")
	assert.Contains(t, out, "Rp 120.000")
	assert.Contains(t, out, "2 activities")
}

func TestActivitiesRejectsBadFlags(t *testing.T) {
	h := newHarness(t)
	assert.True(t, errs.IsValidation(h.run(t, "activities", "-sort", "cheapest")))
	assert.True(t, errs.IsValidation(h.run(t, "activities", "-min-price", "-5")))
	assert.True(t, errs.IsValidation(h.run(t, "activities", "-min-price", "abc")))
	assert.Zero(t, h.srv.TotalCalls())
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, "whoami")
	assert.Equal(t, errs.Unauthenticated, errs.Code(err))

	require.NoError(t, h.run(t, "login", "-email", "dina@example.com", "-password", "secret"))
	assert.Contains(t, h.out.String(), "Logged in as Dina Rahma")

	h.out.Reset()
	require.NoError(t, h.run(t, "whoami"))
	assert.Contains(t, h.out.String(), "dina@example.com")
	assert.Contains(t, h.out.String(), "role: user")

	require.NoError(t, h.run(t, "logout"))
	assert.False(t, session.HasToken(context.Background(), h.app.client.Storage()))
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	err := h.run(t, "login", "-email", "dina@example.com", "-password", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", message(err))
}

func TestCartRequiresLogin(t *testing.T) {
	h := newHarness(t)
	err := h.run(t, "cart", "add", "a1")
	assert.Equal(t, errs.Unauthenticated, errs.Code(err))
	assert.Zero(t, h.srv.TotalCalls())
}

func TestCartCommands(t *testing.T) {
	h := newHarness(t)
	act := h.srv.SeedActivities(apiclient.Activity{Title: "Sunrise Trek", Price: price(80000)})[0]
	h.login(t, "dina@example.com")

	require.NoError(t, h.run(t, "cart", "add", "-qty", "3", act.ID))
	assert.Contains(t, h.out.String(), "Sunrise Trek")
	assert.Contains(t, h.out.String(), "Rp 240.000")

	id := h.app.cart.Items()[0].ID
	h.out.Reset()
	require.NoError(t, h.run(t, "cart", "update", id, "1"))
	assert.Contains(t, h.out.String(), "Rp 80.000")

	assert.True(t, errs.IsValidation(h.run(t, "cart", "update", id, "0")))

	require.NoError(t, h.run(t, "cart", "remove", id))
	assert.Empty(t, h.srv.CartOf(h.app.auth.User().ID))
}

func writeProof(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 32, 32))))
	require.NoError(t, f.Close())
	return path
}

func TestBook(t *testing.T) {
	h := newHarness(t)
	act := h.srv.SeedActivities(apiclient.Activity{Title: "Sunrise Trek", Price: price(100000)})[0]
	pm := h.srv.SeedPaymentMethods(apiclient.PaymentMethod{Name: "BCA", VirtualAccountNumber: "8800123"})[0]
	h.srv.SeedPromos(apiclient.Promo{Title: "Holiday", PromoCode: "HOLIDAY", DiscountPercentage: decimal.NewFromInt(10)})
	h.login(t, "dina@example.com")

	err := h.run(t, "book",
		"-activity", act.ID, "-date", "2026-12-01", "-qty", "2",
		"-payment", pm.ID, "-promo", "holiday", "-phone", "08123",
		"-proof", writeProof(t))
	require.NoError(t, err)

	out := h.out.String()
	assert.Contains(t, out, "total:    Rp 180.000")
	assert.Contains(t, out, "pay to BCA 8800123")
	assert.Contains(t, out, "booking confirmed")

	txs := h.srv.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "180000", txs[0].TotalAmount.String())
	assert.Contains(t, txs[0].ProofPaymentURL, "receipt.png")
}

func TestBookListsPaymentMethods(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedPaymentMethods(apiclient.PaymentMethod{Name: "Mandiri", VirtualAccountNumber: "7700"})
	h.login(t, "dina@example.com")

	err := h.run(t, "book", "-activity", "a1")
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, h.out.String(), "Mandiri")
	assert.Zero(t, h.srv.Calls(http.MethodPost, "/carts"))
}

func TestBookNeedsContactPhone(t *testing.T) {
	h := newHarness(t)
	act := h.srv.SeedActivities(apiclient.Activity{Title: "Trek", Price: price(1000)})[0]
	pm := h.srv.SeedPaymentMethods(apiclient.PaymentMethod{Name: "BCA"})[0]
	h.login(t, "dina@example.com")

	err := h.run(t, "book", "-activity", act.ID, "-date", "2026-12-01", "-payment", pm.ID, "-proof", writeProof(t))
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "Phone number is required", message(err))
	assert.Zero(t, h.srv.Calls(http.MethodPost, "/carts"))
}

func TestAdminCommandsNeedAdmin(t *testing.T) {
	h := newHarness(t)
	h.login(t, "dina@example.com")

	for _, args := range [][]string{{"dashboard"}, {"export"}, {"review", "-approve", "x"}} {
		err := h.run(t, args...)
		assert.Equal(t, errs.Forbidden, errs.Code(err), args[0])
	}
	assert.Zero(t, h.srv.Calls(http.MethodGet, "/all-transactions"))
}

func TestExportAndReview(t *testing.T) {
	h := newHarness(t)
	txs := h.srv.SeedTransactions(
		apiclient.Transaction{InvoiceID: "INV/1", Status: apiclient.StatusPending, TotalAmount: decimal.NewFromInt(5000)},
		apiclient.Transaction{InvoiceID: "INV/2", Status: apiclient.StatusSuccess, TotalAmount: decimal.NewFromInt(7000)},
	)
	h.login(t, "admin@example.com")

	require.NoError(t, h.run(t, "review", "-approve", txs[0].ID))
	assert.Equal(t, apiclient.StatusSuccess, h.srv.Transactions()[0].Status)

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, h.run(t, "export", "-status", "success"))
	f, err := os.Open(filepath.Join(dir, "transactions_2026-10-16.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "Invoice ID", rows[0][0])

	h.out.Reset()
	require.NoError(t, h.run(t, "dashboard"))
	assert.Contains(t, h.out.String(), "revenue")
	assert.Contains(t, h.out.String(), "Rp 12.000")
}

func TestMetricsRouter(t *testing.T) {
	srv := httptest.NewServer(metricsRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "storefront_session_invalidations_total")
}
