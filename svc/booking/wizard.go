// Package booking runs the four-step booking wizard: contact details,
// payment method, proof of payment, confirmation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/errs"
	"storefront.app/pkg/logger"
	"storefront.app/pkg/media"
	"storefront.app/pkg/metrics"
	"storefront.app/pkg/middleware"
	"storefront.app/pkg/money"
	"storefront.app/svc/cart"
)

// Deps are the collaborators a wizard needs. Cart and Uploader default to a
// fresh cart store and the API upload endpoint.
type Deps struct {
	Client   *apiclient.Client
	Cart     *cart.Store
	Uploader ProofUploader
}

// Wizard is one booking of one activity
type Wizard struct {
	client   *apiclient.Client
	cart     *cart.Store
	uploader ProofUploader
	session  middleware.Session
	activity apiclient.Activity

	// op serializes transitions and edits; mu guards the fields below
	op sync.Mutex

	mu          sync.RWMutex
	step        Step
	draft       Draft
	promo       *apiclient.Promo
	cartItemID  string
	cartQty     int
	proofURL    string
	transaction *apiclient.Transaction
}

// Start enters the wizard for activity. Without a settled, logged-in session
// it returns no wizard and the guard's decision instead.
func Start(deps Deps, session middleware.Session, activity apiclient.Activity, origin string) (*Wizard, middleware.Decision) {
	d := middleware.Protected(session, false).Decide(origin)
	if d.Kind != middleware.Render {
		return nil, d
	}

	if deps.Cart == nil {
		deps.Cart = cart.NewStore(deps.Client)
	}
	if deps.Uploader == nil {
		deps.Uploader = APIUploader{Client: deps.Client}
	}

	w := &Wizard{
		client:   deps.Client,
		cart:     deps.Cart,
		uploader: deps.Uploader,
		session:  session,
		activity: activity,
		step:     StepContactInfo,
		draft:    Draft{ActivityID: activity.ID, Quantity: 1},
	}
	if u := session.User(); u != nil {
		first, last, _ := strings.Cut(strings.TrimSpace(u.Name), " ")
		w.draft.Contact = Contact{FirstName: first, LastName: strings.TrimSpace(last), Email: u.Email, Phone: u.PhoneNumber}
	}
	return w, d
}

func (w *Wizard) Step() Step {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.step
}

// Draft returns a copy of the entered details
func (w *Wizard) Draft() Draft {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.draft
}

func (w *Wizard) Activity() apiclient.Activity {
	return w.activity
}

// Transaction is the created transaction, nil before the payment step
func (w *Wizard) Transaction() *apiclient.Transaction {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.transaction == nil {
		return nil
	}
	t := *w.transaction
	return &t
}

// Subtotal is the effective activity price times the quantity
func (w *Wizard) Subtotal() decimal.Decimal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.subtotalLocked()
}

func (w *Wizard) subtotalLocked() decimal.Decimal {
	return w.activity.EffectivePrice().Mul(decimal.NewFromInt(int64(w.draft.Quantity)))
}

// Discount is the promo's share of the subtotal, never more than all of it
func (w *Wizard) Discount() decimal.Decimal {
	discount, _ := w.price()
	return discount
}

// Total is the subtotal minus the discount, never below zero
func (w *Wizard) Total() decimal.Decimal {
	_, total := w.price()
	return total
}

func (w *Wizard) price() (discount, total decimal.Decimal) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	subtotal := w.subtotalLocked()
	if w.promo == nil {
		return money.ApplyPercent(subtotal, decimal.Zero)
	}
	return money.ApplyPercent(subtotal, w.promo.DiscountPercentage)
}

func (w *Wizard) edit(fn func(d *Draft) error) error {
	w.op.Lock()
	defer w.op.Unlock()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.Locked() {
		return errDraftLocked
	}
	return fn(&w.draft)
}

func (w *Wizard) SetContact(c Contact) error {
	return w.edit(func(d *Draft) error {
		d.Contact = c
		return nil
	})
}

func (w *Wizard) SetDate(date time.Time) error {
	return w.edit(func(d *Draft) error {
		d.Date = date
		return nil
	})
}

func (w *Wizard) SetQuantity(n int) error {
	if n < 1 {
		return errs.Validation("Quantity must be at least 1")
	}
	return w.edit(func(d *Draft) error {
		d.Quantity = n
		return nil
	})
}

func (w *Wizard) SelectPaymentMethod(id string) error {
	return w.edit(func(d *Draft) error {
		d.PaymentMethodID = id
		return nil
	})
}

// SelectPromo applies p, or removes the promo when p is nil. The subtotal
// must reach the promo's minimum claim price.
func (w *Wizard) SelectPromo(p *apiclient.Promo) error {
	return w.edit(func(d *Draft) error {
		if p == nil {
			w.promo = nil
			d.PromoID = ""
			return nil
		}
		if err := checkMinimum(p, w.subtotalLocked()); err != nil {
			return err
		}
		promo := *p
		w.promo = &promo
		d.PromoID = p.ID
		return nil
	})
}

func checkMinimum(p *apiclient.Promo, subtotal decimal.Decimal) error {
	if subtotal.LessThan(p.MinimumClaimPrice) {
		return &errs.Error{
			Code:    errs.BkgPromoNotEnough,
			Message: fmt.Sprintf("Promo %s needs a subtotal of at least %s", p.PromoCode, money.FormatIDR(p.MinimumClaimPrice)),
		}
	}
	return nil
}

// SetProof attaches the proof of payment. It stays editable after the
// transaction exists.
func (w *Wizard) SetProof(f *media.File) error {
	w.op.Lock()
	defer w.op.Unlock()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepConfirmed {
		return errTerminal
	}
	w.draft.Proof = f
	w.proofURL = ""
	return nil
}

// AttachProof checks raw file bytes and attaches them as the proof
func (w *Wizard) AttachProof(name string, data []byte) error {
	f, err := media.NewFile(name, data)
	if err != nil {
		return err
	}
	return w.SetProof(f)
}

var (
	errTerminal     = &errs.Error{Code: errs.BkgStepTerminal, Message: "Booking is already confirmed"}
	errFirstStep    = &errs.Error{Code: errs.BkgBackNotAllowed, Message: "Already at the first step"}
	errBackLocked   = &errs.Error{Code: errs.BkgBackNotAllowed, Message: "Contact details cannot change after the transaction is created"}
	errLoginExpired = &errs.Error{Code: errs.BkgLoginRequired, Message: "Please log in again to continue"}
)

// Next validates the current step and advances. On any error the step is
// unchanged. Missing fields are reported without contacting the API.
func (w *Wizard) Next(ctx context.Context) error {
	w.op.Lock()
	defer w.op.Unlock()

	from := w.Step()
	target := from
	if from != StepConfirmed {
		target = from + 1
	}

	var err error
	if w.session.User() == nil {
		err = errLoginExpired
	} else {
		switch from {
		case StepContactInfo:
			err = w.submitContact()
		case StepPaymentSelection:
			err = w.submitPayment(ctx)
		case StepProofUpload:
			err = w.submitProof(ctx)
		case StepConfirmed:
			err = errTerminal
		default:
			panic(fmt.Sprintf("booking: unhandled step %d", from))
		}
	}

	metrics.ObserveBookingTransition(from.String(), target.String(), err == nil)
	if err != nil {
		logger.Debug(ctx, "booking step rejected", logger.Fields{"step": from.String(), "error": err.Error()})
	}
	return err
}

func (w *Wizard) submitContact() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.draft.validateContactStep(); err != nil {
		return err
	}
	w.step = StepPaymentSelection
	return nil
}

func (w *Wizard) submitPayment(ctx context.Context) error {
	w.mu.RLock()
	d := w.draft
	promo := w.promo
	subtotal := w.subtotalLocked()
	cartItemID, cartQty := w.cartItemID, w.cartQty
	w.mu.RUnlock()

	// returning from the proof step; the transaction already exists
	if d.Locked() {
		w.setStep(StepProofUpload)
		return nil
	}

	if d.PaymentMethodID == "" {
		return errs.Validation("Please choose a payment method")
	}
	if promo != nil {
		if err := checkMinimum(promo, subtotal); err != nil {
			return err
		}
	}

	// a line added by a failed earlier attempt is reused
	switch {
	case cartItemID == "":
		item, err := w.cart.Add(ctx, d.ActivityID, d.Quantity)
		if err != nil {
			return stepError(errs.BkgCartAddFailed, err)
		}
		cartItemID = item.ID
	case cartQty != d.Quantity:
		if err := w.cart.Update(ctx, cartItemID, d.Quantity); err != nil {
			return stepError(errs.BkgCartAddFailed, err)
		}
	}
	w.mu.Lock()
	w.cartItemID, w.cartQty = cartItemID, d.Quantity
	w.mu.Unlock()

	res := w.client.Transactions.Create(ctx, apiclient.TransactionInput{
		CartIDs:         []string{cartItemID},
		PaymentMethodID: d.PaymentMethodID,
		PromoID:         d.PromoID,
	})
	if !res.OK {
		return stepError(errs.BkgTxCreateFailed, res.Err())
	}

	tx := res.Data
	if tx.ID == "" {
		found, err := w.latestTransaction(ctx)
		if err != nil {
			return stepError(errs.BkgTxCreateFailed, err)
		}
		tx = found
	}

	w.mu.Lock()
	w.transaction = &tx
	w.draft.TransactionID = tx.ID
	w.step = StepProofUpload
	w.mu.Unlock()

	logger.Info(ctx, "booking transaction created", logger.Fields{
		"transaction_id": tx.ID,
		"invoice_id":     tx.InvoiceID,
		"activity_id":    d.ActivityID,
	})

	// the API consumes the cart line
	if err := w.cart.Fetch(ctx); err != nil {
		logger.Warn(ctx, "cart refresh after booking failed", logger.Fields{"error": err.Error()})
	}
	return nil
}

// latestTransaction finds the transaction just created when the create call
// answered without it: the newest pending one holding this activity.
func (w *Wizard) latestTransaction(ctx context.Context) (apiclient.Transaction, error) {
	res := w.client.Transactions.Mine(ctx)
	if !res.OK {
		return apiclient.Transaction{}, res.Err()
	}

	var (
		best  apiclient.Transaction
		found bool
	)
	for _, t := range res.Data {
		if t.Status != "" && t.Status != apiclient.StatusPending {
			continue
		}
		if len(t.Items) > 0 && !holdsActivity(t, w.activity.ID) {
			continue
		}
		if !found || !t.CreatedAt.Before(best.CreatedAt.Time) {
			best, found = t, true
		}
	}
	if !found {
		return apiclient.Transaction{}, &errs.Error{Code: errs.NotFound, Message: "Created transaction could not be found"}
	}
	return best, nil
}

func holdsActivity(t apiclient.Transaction, activityID string) bool {
	for _, it := range t.Items {
		if it.ActivityID == activityID {
			return true
		}
	}
	return false
}

func (w *Wizard) submitProof(ctx context.Context) error {
	w.mu.RLock()
	proof := w.draft.Proof
	txID := w.draft.TransactionID
	url := w.proofURL
	w.mu.RUnlock()

	if proof == nil {
		return errs.Validation("Please attach the proof of payment")
	}

	if url == "" {
		uploaded, err := w.uploader.UploadProof(ctx, proof)
		if err != nil {
			return stepError(errs.BkgProofFailed, err)
		}
		url = uploaded
		w.mu.Lock()
		w.proofURL = url
		w.mu.Unlock()
	}

	res := w.client.Transactions.UpdateProofPayment(ctx, txID, url)
	if !res.OK {
		if res.Rejected() || res.Status == http.StatusBadRequest {
			w.discardProof(ctx, url)
		}
		return stepError(errs.BkgProofFailed, res.Err())
	}

	w.mu.Lock()
	w.step = StepConfirmed
	if w.transaction != nil {
		w.transaction.ProofPaymentURL = url
	}
	w.mu.Unlock()
	return nil
}

// discardProof forgets an uploaded URL the API refused so the next attempt
// uploads again, and deletes the stored object when the uploader can.
func (w *Wizard) discardProof(ctx context.Context, url string) {
	w.mu.Lock()
	if w.proofURL == url {
		w.proofURL = ""
	}
	w.mu.Unlock()

	r, ok := w.uploader.(ProofRemover)
	if !ok {
		return
	}
	if err := r.RemoveProof(ctx, url); err != nil {
		logger.Warn(ctx, "refused proof not removed", logger.Fields{"url": url, "error": err.Error()})
	}
}

// Back moves one step back where allowed
func (w *Wizard) Back() error {
	w.op.Lock()
	defer w.op.Unlock()

	w.mu.Lock()
	from := w.step
	var err error
	switch from {
	case StepContactInfo:
		err = errFirstStep
	case StepPaymentSelection:
		if w.draft.Locked() {
			err = errBackLocked
		} else {
			w.step = StepContactInfo
		}
	case StepProofUpload:
		w.step = StepPaymentSelection
	case StepConfirmed:
		err = errTerminal
	default:
		panic(fmt.Sprintf("booking: unhandled step %d", from))
	}
	to := w.step
	w.mu.Unlock()

	metrics.ObserveBookingTransition(from.String(), to.String(), err == nil)
	return err
}

func (w *Wizard) setStep(s Step) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = s
}

// stepError reports a failed API step under code, keeping the API's message
// and status.
func stepError(code string, err error) error {
	out := &errs.Error{Code: code, Message: err.Error()}
	var e *errs.Error
	if errors.As(err, &e) {
		out.Message = e.Message
		out.Status = e.Status
	}
	return out
}
