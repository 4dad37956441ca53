package booking

import (
	"strings"
	"time"

	"storefront.app/pkg/errs"
	"storefront.app/pkg/media"
)

// Step is a wizard page
type Step int

const (
	StepContactInfo Step = iota
	StepPaymentSelection
	StepProofUpload
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepContactInfo:
		return "contact_info"
	case StepPaymentSelection:
		return "payment_selection"
	case StepProofUpload:
		return "proof_upload"
	case StepConfirmed:
		return "confirmed"
	}
	return "unknown"
}

// Contact is who the booking is for
type Contact struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Validate checks the fields required to leave the contact step
func (c Contact) Validate() error {
	switch {
	case strings.TrimSpace(c.FirstName) == "":
		return errs.Validation("First name is required")
	case strings.TrimSpace(c.LastName) == "":
		return errs.Validation("Last name is required")
	case !strings.Contains(c.Email, "@"):
		return errs.Validation("A valid email is required")
	case strings.TrimSpace(c.Phone) == "":
		return errs.Validation("Phone number is required")
	}
	return nil
}

// Draft is everything the user has entered so far. It stops accepting
// changes once TransactionID is set; only Proof may change after that.
type Draft struct {
	ActivityID      string
	Date            time.Time
	Quantity        int
	Contact         Contact
	PaymentMethodID string
	PromoID         string
	Proof           *media.File
	TransactionID   string
}

// Locked reports whether a transaction has been created for the draft
func (d Draft) Locked() bool {
	return d.TransactionID != ""
}

func (d Draft) validateContactStep() error {
	if err := d.Contact.Validate(); err != nil {
		return err
	}
	if d.Date.IsZero() {
		return errs.Validation("Please choose a date")
	}
	return nil
}

var errDraftLocked = &errs.Error{Code: errs.BkgDraftLocked, Message: "Booking details cannot change after the transaction is created"}
