package apiclient

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront.app/pkg/money"
)

// Time decodes the API's timestamps. Empty, null or malformed values
// decode to the zero time instead of failing the whole payload.
type Time struct {
	time.Time
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	t.Time = time.Time{}
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}

// Role values
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	PhoneNumber       string `json:"phoneNumber,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl"`
	CreatedAt Time   `json:"createdAt"`
	UpdatedAt Time   `json:"updatedAt"`
}

type Activity struct {
	ID            string              `json:"id"`
	CategoryID    string              `json:"categoryId"`
	Category      *Category           `json:"category,omitempty"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	ImageURLs     []string            `json:"imageUrls"`
	Price         decimal.NullDecimal `json:"price"`
	PriceDiscount decimal.NullDecimal `json:"price_discount"`
	Rating        float64             `json:"rating"`
	TotalReviews  int                 `json:"total_reviews"`
	Facilities    string              `json:"facilities"`
	Address       string              `json:"address"`
	Province      string              `json:"province"`
	City          string              `json:"city"`
	LocationMaps  string              `json:"location_maps"`
	CreatedAt     Time                `json:"createdAt"`
	UpdatedAt     Time                `json:"updatedAt"`
}

// EffectivePrice is price_discount when present, else price, else 0
func (a Activity) EffectivePrice() decimal.Decimal {
	return money.Coalesce(a.PriceDiscount, a.Price)
}

// ActivitySnapshot is the copy of an activity embedded in a cart item. It
// is taken when the cart is fetched and never reconciled with the catalog.
type ActivitySnapshot struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	ImageURLs     []string            `json:"imageUrls"`
	Price         decimal.NullDecimal `json:"price"`
	PriceDiscount decimal.NullDecimal `json:"price_discount"`
	Address       string              `json:"address"`
	Province      string              `json:"province"`
	City          string              `json:"city"`
}

func (a ActivitySnapshot) EffectivePrice() decimal.Decimal {
	return money.Coalesce(a.PriceDiscount, a.Price)
}

// Snapshot copies the fields a cart item carries
func (a Activity) Snapshot() ActivitySnapshot {
	return ActivitySnapshot{
		ID:            a.ID,
		Title:         a.Title,
		ImageURLs:     a.ImageURLs,
		Price:         a.Price,
		PriceDiscount: a.PriceDiscount,
		Address:       a.Address,
		Province:      a.Province,
		City:          a.City,
	}
}

type Banner struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl"`
	CreatedAt Time   `json:"createdAt"`
	UpdatedAt Time   `json:"updatedAt"`
}

// Promo is a percentage discount. The API names the percentage field
// promo_discount_price.
type Promo struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	ImageURL           string          `json:"imageUrl"`
	TermsCondition     string          `json:"terms_condition"`
	PromoCode          string          `json:"promo_code"`
	DiscountPercentage decimal.Decimal `json:"promo_discount_price"`
	MinimumClaimPrice  decimal.Decimal `json:"minimum_claim_price"`
	CreatedAt          Time            `json:"createdAt"`
	UpdatedAt          Time            `json:"updatedAt"`
}

type PaymentMethod struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	VirtualAccountNumber string `json:"virtual_account_number"`
	VirtualAccountName   string `json:"virtual_account_name"`
	ImageURL             string `json:"imageUrl"`
}

type CartItem struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	ActivityID string           `json:"activityId"`
	Quantity   int              `json:"quantity"`
	Activity   ActivitySnapshot `json:"activity"`
}

// Subtotal is the effective unit price times quantity
func (c CartItem) Subtotal() decimal.Decimal {
	return c.Activity.EffectivePrice().Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusSuccess   TransactionStatus = "success"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type TransactionItem struct {
	ID            string              `json:"id"`
	ActivityID    string              `json:"activityId"`
	Title         string              `json:"title"`
	ImageURLs     []string            `json:"imageUrls"`
	Price         decimal.NullDecimal `json:"price"`
	PriceDiscount decimal.NullDecimal `json:"price_discount"`
	Quantity      int                 `json:"quantity"`
}

type Transaction struct {
	ID              string            `json:"id"`
	UserID          string            `json:"userId"`
	PaymentMethodID string            `json:"paymentMethodId"`
	InvoiceID       string            `json:"invoiceId"`
	Status          TransactionStatus `json:"status"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	ProofPaymentURL string            `json:"proofPaymentUrl,omitempty"`
	OrderDate       Time              `json:"orderDate"`
	ExpiredDate     Time              `json:"expiredDate"`
	CreatedAt       Time              `json:"createdAt"`
	UpdatedAt       Time              `json:"updatedAt"`
	Items           []TransactionItem `json:"transaction_items"`
	PaymentMethod   *PaymentMethod    `json:"payment_method,omitempty"`
	User            *User             `json:"user,omitempty"`
}

// Session is what a successful login returns
type Session struct {
	Token string `json:"token"`
	User  User   `json:"data"`
}

// Request bodies

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	Password          string `json:"password"`
	PasswordRepeat    string `json:"passwordRepeat"`
	Role              string `json:"role"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	PhoneNumber       string `json:"phoneNumber"`
}

type UpdateProfileInput struct {
	Name              string `json:"name,omitempty"`
	Email             string `json:"email,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	PhoneNumber       string `json:"phoneNumber,omitempty"`
}

type ActivityInput struct {
	CategoryID    string          `json:"categoryId"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ImageURLs     []string        `json:"imageUrls"`
	Price         decimal.Decimal `json:"price"`
	PriceDiscount decimal.Decimal `json:"price_discount"`
	Rating        float64         `json:"rating"`
	TotalReviews  int             `json:"total_reviews"`
	Facilities    string          `json:"facilities"`
	Address       string          `json:"address"`
	Province      string          `json:"province"`
	City          string          `json:"city"`
	LocationMaps  string          `json:"location_maps"`
}

type CategoryInput struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type BannerInput struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type PromoInput struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	ImageURL           string          `json:"imageUrl"`
	TermsCondition     string          `json:"terms_condition"`
	PromoCode          string          `json:"promo_code"`
	DiscountPercentage decimal.Decimal `json:"promo_discount_price"`
	MinimumClaimPrice  decimal.Decimal `json:"minimum_claim_price"`
}

type CartInput struct {
	ActivityID string `json:"activityId"`
	Quantity   int    `json:"quantity,omitempty"`
}

type TransactionInput struct {
	CartIDs         []string `json:"cartIds"`
	PaymentMethodID string   `json:"paymentMethodId"`
	PromoID         string   `json:"promoId,omitempty"`
}
