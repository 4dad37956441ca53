package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/errs"
	"storefront.app/pkg/media"
	"storefront.app/pkg/money"
	"storefront.app/svc/admin"
	"storefront.app/svc/booking"
	"storefront.app/svc/catalog"
)

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func parsePrice(name, raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, errs.Validation(name + " must be a number")
	}
	return decimal.NewNullDecimal(d), nil
}

func (a *app) activities(ctx context.Context, args []string) error {
	fs := a.flags("activities")
	category := fs.String("category", "", "only activities in this category id")
	sortBy := fs.String("sort", "", "price-asc, price-desc, rating-desc, newest or review-count-desc")
	minPrice := fs.String("min-price", "", "lowest effective price")
	maxPrice := fs.String("max-price", "", "highest effective price")
	minRating := fs.Float64("min-rating", 0, "lowest rating")
	query := fs.String("q", "", "search title, description and location")
	if err := fs.Parse(args); err != nil {
		return err
	}

	order, err := catalog.ParseSortOrder(*sortBy)
	if err != nil {
		return err
	}
	f := catalog.Filter{MinRating: *minRating, Query: *query}
	if f.PriceMin, err = parsePrice("min-price", *minPrice); err != nil {
		return err
	}
	if f.PriceMax, err = parsePrice("max-price", *maxPrice); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}

	if *category != "" {
		err = a.catalog.FetchActivitiesInCategory(ctx, *category)
	} else {
		err = a.catalog.Activities.Fetch(ctx)
	}
	if err != nil {
		return err
	}
	if st := a.catalog.Activities.State(); st.Error != "" {
		fmt.Fprintf(a.out, "warning: %s (showing cached results)\n", st.Error)
	}

	list := a.catalog.BrowseActivities(f, order)
	tw := a.table()
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tRATING\tREVIEWS\tCITY")
	for _, act := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%d\t%s\n", act.ID, act.Title, money.FormatIDR(act.EffectivePrice()), act.Rating, act.TotalReviews, act.City)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d activities\n", len(list))
	return nil
}

func (a *app) promos(ctx context.Context, args []string) error {
	fs := a.flags("promos")
	query := fs.String("q", "", "search title, description and code")
	sortBy := fs.String("sort", "", "newest or discount-desc")
	if err := fs.Parse(args); err != nil {
		return err
	}

	order := catalog.PromoOrder(strings.ToLower(strings.TrimSpace(*sortBy)))
	switch order {
	case catalog.PromoSortNone, catalog.PromoSortNewest, catalog.PromoSortDiscountDesc:
	default:
		return errs.Validation("unknown promo sort: " + *sortBy)
	}

	if err := a.catalog.Promos.Fetch(ctx); err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "CODE\tTITLE\tDISCOUNT\tMINIMUM")
	for _, p := range catalog.FilterPromos(a.catalog.Promos.State().Data, *query, order) {
		fmt.Fprintf(tw, "%s\t%s\t%s%%\t%s\n", p.PromoCode, p.Title, money.ClampPercent(p.DiscountPercentage).String(), money.FormatIDR(p.MinimumClaimPrice))
	}
	return tw.Flush()
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errs.Validation("-email and -password are required")
	}

	res := a.auth.Login(ctx, *email, *password)
	if !res.OK {
		return res.Err()
	}
	fmt.Fprintf(a.out, "Logged in as %s <%s>\n", res.Data.Name, res.Data.Email)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	a.auth.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	if err := a.guard("/profile", false); err != nil {
		return err
	}
	res := a.auth.Revalidate(ctx)
	if !res.OK && errs.IsUnauthenticated(res.Err()) {
		return res.Err()
	}
	u := a.auth.User()
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\n", u.Name, u.Email, u.Role)
	if u.PhoneNumber != "" {
		fmt.Fprintf(a.out, "phone: %s\n", u.PhoneNumber)
	}
	return nil
}

func (a *app) cartCmd(ctx context.Context, args []string) error {
	if err := a.guard("/cart", false); err != nil {
		return err
	}
	sub, rest := "list", args
	if len(args) > 0 {
		sub, rest = args[0], args[1:]
	}

	if err := a.cart.Mount(ctx); err != nil {
		return err
	}

	switch sub {
	case "list":
	case "add":
		fs := a.flags("cart add")
		qty := fs.Int("qty", 1, "quantity")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errs.Validation("usage: cart add [-qty n] <activity-id>")
		}
		if _, err := a.cart.Add(ctx, fs.Arg(0), *qty); err != nil {
			return err
		}
	case "update":
		if len(rest) != 2 {
			return errs.Validation("usage: cart update <cart-id> <quantity>")
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return errs.Validation("quantity must be a whole number")
		}
		if err := a.cart.Update(ctx, rest[0], qty); err != nil {
			return err
		}
	case "remove":
		if len(rest) != 1 {
			return errs.Validation("usage: cart remove <cart-id>")
		}
		if err := a.cart.Remove(ctx, rest[0]); err != nil {
			return err
		}
	case "clear":
		a.cart.Clear()
	default:
		return errs.Validation("unknown cart command: " + sub)
	}
	return a.printCart()
}

func (a *app) printCart() error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tACTIVITY\tQTY\tSUBTOTAL")
	for _, it := range a.cart.Items() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.ID, it.Activity.Title, it.Quantity, money.FormatIDR(it.Subtotal()))
	}
	fmt.Fprintf(tw, "\t%d items\t\t%s\n", a.cart.ItemCount(), money.FormatIDR(a.cart.Total()))
	return tw.Flush()
}

func readProof(path string) (*media.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.Validation("cannot read proof: " + err.Error())
	}
	if info.Size() > media.MaxProofSize {
		return nil, errs.Validation(fmt.Sprintf("proof file exceeds %d bytes", media.MaxProofSize))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Validation("cannot read proof: " + err.Error())
	}
	return media.NewFile(filepath.Base(path), data)
}

func (a *app) book(ctx context.Context, args []string) error {
	fs := a.flags("book")
	activityID := fs.String("activity", "", "activity id")
	date := fs.String("date", "", "visit date, YYYY-MM-DD")
	qty := fs.Int("qty", 1, "number of tickets")
	payment := fs.String("payment", "", "payment method id")
	promoCode := fs.String("promo", "", "promo code")
	proofPath := fs.String("proof", "", "image of the transfer receipt")
	first := fs.String("first-name", "", "contact first name (default from profile)")
	last := fs.String("last-name", "", "contact last name (default from profile)")
	email := fs.String("email", "", "contact email (default from profile)")
	phone := fs.String("phone", "", "contact phone (default from profile)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *activityID == "" {
		return errs.Validation("-activity is required")
	}
	origin := "/activity/" + *activityID + "/booking"
	if err := a.guard(origin, false); err != nil {
		return err
	}
	if *payment == "" {
		return a.listPaymentMethods(ctx)
	}
	day, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return errs.Validation("-date must look like 2026-12-01")
	}
	if *proofPath == "" {
		return errs.Validation("-proof is required")
	}
	proof, err := readProof(*proofPath)
	if err != nil {
		return err
	}

	res := a.client.Activities.Get(ctx, *activityID)
	if !res.OK {
		return res.Err()
	}
	w, d := booking.Start(booking.Deps{Client: a.client, Cart: a.cart, Uploader: a.uploader}, a.auth, res.Data, origin)
	if w == nil {
		return a.guard(d.From, false)
	}

	contact := w.Draft().Contact
	override(&contact.FirstName, *first)
	override(&contact.LastName, *last)
	override(&contact.Email, *email)
	override(&contact.Phone, *phone)
	for _, err := range []error{w.SetContact(contact), w.SetDate(day), w.SetQuantity(*qty)} {
		if err != nil {
			return err
		}
	}
	if err := w.Next(ctx); err != nil {
		return err
	}

	if err := w.SelectPaymentMethod(*payment); err != nil {
		return err
	}
	if *promoCode != "" {
		p, err := a.findPromo(ctx, *promoCode)
		if err != nil {
			return err
		}
		if err := w.SelectPromo(&p); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "%s x%d\nsubtotal: %s\ndiscount: %s\ntotal:    %s\n",
		res.Data.Title, *qty, money.FormatIDR(w.Subtotal()), money.FormatIDR(w.Discount()), money.FormatIDR(w.Total()))

	if err := w.Next(ctx); err != nil {
		return err
	}
	tx := w.Transaction()
	fmt.Fprintf(a.out, "transaction %s created (%s)\n", tx.InvoiceID, tx.Status)
	if tx.PaymentMethod != nil {
		fmt.Fprintf(a.out, "pay to %s %s\n", tx.PaymentMethod.Name, tx.PaymentMethod.VirtualAccountNumber)
	}

	if err := w.SetProof(proof); err != nil {
		return err
	}
	if err := w.Next(ctx); err != nil {
		return fmt.Errorf("transaction %s was created but the proof was not sent: %w", tx.InvoiceID, err)
	}
	fmt.Fprintf(a.out, "booking confirmed, proof: %s\n", w.Transaction().ProofPaymentURL)
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (a *app) listPaymentMethods(ctx context.Context) error {
	res := a.client.PaymentMethods.List(ctx)
	if !res.OK {
		return res.Err()
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tVIRTUAL ACCOUNT")
	for _, pm := range res.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", pm.ID, pm.Name, pm.VirtualAccountNumber)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return errs.Validation("choose a payment method with -payment <id>")
}

func (a *app) findPromo(ctx context.Context, code string) (apiclient.Promo, error) {
	if err := a.catalog.Promos.Fetch(ctx); err != nil {
		return apiclient.Promo{}, err
	}
	for _, p := range a.catalog.Promos.State().Data {
		if strings.EqualFold(p.PromoCode, code) {
			return p, nil
		}
	}
	return apiclient.Promo{}, errs.Validation("no promo with code " + code)
}

func (a *app) dashboard(ctx context.Context, _ []string) error {
	if err := a.guard("/admin", true); err != nil {
		return err
	}
	d := a.admin.Dashboard(ctx)

	tw := a.table()
	for _, row := range []struct {
		name string
		c    admin.Count
	}{
		{"users", d.Users},
		{"activities", d.Activities},
		{"categories", d.Categories},
		{"banners", d.Banners},
		{"promos", d.Promos},
		{"transactions", d.Transactions},
	} {
		if row.c.Err != nil {
			fmt.Fprintf(tw, "%s\terror: %s\n", row.name, message(row.c.Err))
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\n", row.name, row.c.Total)
	}
	fmt.Fprintf(tw, "pending\t%d\n", d.Pending)
	fmt.Fprintf(tw, "revenue\t%s\n", money.FormatIDR(d.Revenue))
	return tw.Flush()
}

func (a *app) review(ctx context.Context, args []string) error {
	fs := a.flags("review")
	approve := fs.String("approve", "", "transaction id to mark paid")
	reject := fs.String("reject", "", "transaction id to mark failed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*approve == "") == (*reject == "") {
		return errs.Validation("pass exactly one of -approve or -reject")
	}
	if err := a.guard("/admin/transactions", true); err != nil {
		return err
	}

	if *approve != "" {
		if err := a.admin.Approve(ctx, *approve); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "transaction %s approved\n", *approve)
		return nil
	}
	if err := a.admin.Reject(ctx, *reject); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "transaction %s rejected\n", *reject)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.flags("export")
	status := fs.String("status", "all", "pending, success, failed, cancelled or all")
	query := fs.String("q", "", "search invoice id, user name and email")
	out := fs.String("out", "", "output file, - for stdout (default transactions_<date>.csv)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := admin.ParseStatus(*status)
	if err != nil {
		return err
	}
	if err := a.guard("/admin/transactions", true); err != nil {
		return err
	}

	list, err := a.admin.Transactions(ctx)
	if err != nil {
		return err
	}
	list = admin.FilterTransactions(list, st, *query)

	if *out == "-" {
		return admin.ExportCSV(a.out, list)
	}
	path := *out
	if path == "" {
		path = admin.ExportFilename(a.now())
	}
	if err := writeFile(path, func(w io.Writer) error { return admin.ExportCSV(w, list) }); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "wrote %d transactions to %s\n", len(list), path)
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
