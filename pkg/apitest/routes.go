package apitest

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/money"
)

func (s *Server) routes(r chi.Router) {
	s.handle(r, http.MethodPost, "/login", s.login)
	s.handle(r, http.MethodGet, "/logout", s.authed(s.logout))
	s.handle(r, http.MethodPost, "/register", s.register)

	s.handle(r, http.MethodGet, "/user", s.authed(s.me))
	s.handle(r, http.MethodGet, "/all-user", s.admin(s.allUsers))
	s.handle(r, http.MethodPost, "/update-profile", s.authed(s.updateProfile))
	s.handle(r, http.MethodPost, "/update-user-role/{id}", s.admin(s.updateRole))

	s.handle(r, http.MethodGet, "/activities/category/{id}", s.activitiesByCategory)
	mountCRUD(s, r, "/activities", "Activity", s.activities, func(id string, in apiclient.ActivityInput) apiclient.Activity {
		return apiclient.Activity{
			ID:            id,
			CategoryID:    in.CategoryID,
			Title:         in.Title,
			Description:   in.Description,
			ImageURLs:     in.ImageURLs,
			Price:         decimal.NewNullDecimal(in.Price),
			PriceDiscount: decimal.NewNullDecimal(in.PriceDiscount),
			Rating:        in.Rating,
			TotalReviews:  in.TotalReviews,
			Facilities:    in.Facilities,
			Address:       in.Address,
			Province:      in.Province,
			City:          in.City,
			LocationMaps:  in.LocationMaps,
			CreatedAt:     now(),
			UpdatedAt:     now(),
		}
	})
	mountCRUD(s, r, "/categories", "Category", s.categories, func(id string, in apiclient.CategoryInput) apiclient.Category {
		return apiclient.Category{ID: id, Name: in.Name, ImageURL: in.ImageURL, CreatedAt: now(), UpdatedAt: now()}
	})
	mountCRUD(s, r, "/banners", "Banner", s.banners, func(id string, in apiclient.BannerInput) apiclient.Banner {
		return apiclient.Banner{ID: id, Name: in.Name, ImageURL: in.ImageURL, CreatedAt: now(), UpdatedAt: now()}
	})
	mountCRUD(s, r, "/promos", "Promo", s.promos, func(id string, in apiclient.PromoInput) apiclient.Promo {
		return apiclient.Promo{
			ID:                 id,
			Title:              in.Title,
			Description:        in.Description,
			ImageURL:           in.ImageURL,
			TermsCondition:     in.TermsCondition,
			PromoCode:          in.PromoCode,
			DiscountPercentage: in.DiscountPercentage,
			MinimumClaimPrice:  in.MinimumClaimPrice,
			CreatedAt:          now(),
			UpdatedAt:          now(),
		}
	})

	s.handle(r, http.MethodGet, "/payment-methods", s.paymentMethods)
	s.handle(r, http.MethodPost, "/generate-payment-methods", s.admin(s.generatePaymentMethods))

	s.handle(r, http.MethodGet, "/carts", s.authed(s.listCart))
	s.handle(r, http.MethodPost, "/carts", s.authed(s.addCart))
	s.handle(r, http.MethodPost, "/carts/{id}", s.authed(s.updateCart))
	s.handle(r, http.MethodDelete, "/carts/{id}", s.authed(s.deleteCart))

	s.handle(r, http.MethodPost, "/create-transaction", s.authed(s.createTransaction))
	s.handle(r, http.MethodPost, "/cancel-transaction/{id}", s.authed(s.cancelTransaction))
	s.handle(r, http.MethodPost, "/update-transaction-proof-payment/{id}", s.authed(s.updateProof))
	s.handle(r, http.MethodPost, "/update-transaction-status/{id}", s.admin(s.updateStatus))
	s.handle(r, http.MethodGet, "/my-transactions", s.authed(s.myTransactions))
	s.handle(r, http.MethodGet, "/all-transactions", s.admin(s.allTransactions))
	s.handle(r, http.MethodGet, "/transaction/{id}", s.authed(s.getTransaction))

	s.handle(r, http.MethodPost, "/upload-image", s.authed(s.uploadImage))
}

type userHandler func(w http.ResponseWriter, r *http.Request, u *account)

func (s *Server) caller(r *http.Request) (*account, bool) {
	tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[tok]
	if !ok {
		return nil, false
	}
	acc, ok := s.accounts[email]
	return acc, ok
}

func (s *Server) authed(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, ok := s.caller(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		h(w, r, acc)
	}
}

func (s *Server) admin(h userHandler) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, u *account) {
		if u.user.Role != apiclient.RoleAdmin {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		h(w, r, u)
	})
}

// auth

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in apiclient.LoginInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(in.Email)]
	if !ok || acc.password != in.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	tok := s.issueLocked(acc)
	user := acc.user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"code":    "200",
		"status":  "OK",
		"message": "Success",
		"data":    user,
		"token":   tok,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, _ *account) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	delete(s.tokens, tok)
	s.mu.Unlock()
	writeData(w, "Logout successful", nil)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in apiclient.RegisterInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Password != in.PasswordRepeat {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Passwords do not match"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[strings.ToLower(in.Email)]; exists {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "Email already registered"})
		return
	}
	acc := s.addAccountLocked(in.Name, in.Email, in.Password, in.Role)
	acc.user.PhoneNumber = in.PhoneNumber
	acc.user.ProfilePictureURL = in.ProfilePictureURL
	writeData(w, "User Created", acc.user)
}

// users

func (s *Server) me(w http.ResponseWriter, _ *http.Request, u *account) {
	s.mu.Lock()
	user := u.user
	s.mu.Unlock()
	writeData(w, "User Found", user)
}

func (s *Server) allUsers(w http.ResponseWriter, _ *http.Request, _ *account) {
	s.mu.Lock()
	users := make([]apiclient.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		users = append(users, acc.user)
	}
	s.mu.Unlock()
	writeData(w, "Users Found", users)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, u *account) {
	var in apiclient.UpdateProfileInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	if in.Name != "" {
		u.user.Name = in.Name
	}
	if in.PhoneNumber != "" {
		u.user.PhoneNumber = in.PhoneNumber
	}
	if in.ProfilePictureURL != "" {
		u.user.ProfilePictureURL = in.ProfilePictureURL
	}
	user := u.user
	s.mu.Unlock()
	writeData(w, "Profile Updated", user)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request, _ *account) {
	var in struct {
		Role string `json:"role"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			acc.user.Role = in.Role
			writeData(w, "Role Updated", acc.user)
			return
		}
	}
	writeError(w, http.StatusNotFound, "User not found")
}

// catalog

func mountCRUD[T, In any](s *Server, r chi.Router, root, label string, col *collection[T], build func(id string, in In) T) {
	s.handle(r, http.MethodGet, root, func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		items := col.list()
		s.mu.Unlock()
		writeData(w, label+" Found", items)
	})
	s.handle(r, http.MethodGet, root+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		item, ok := col.find(chi.URLParam(r, "id"))
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, label+" not found")
			return
		}
		writeData(w, label+" Found", item)
	})
	s.handle(r, http.MethodPost, root, s.admin(func(w http.ResponseWriter, r *http.Request, _ *account) {
		var in In
		if err := decode(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		s.mu.Lock()
		item := col.put(build(newID(), in))
		s.mu.Unlock()
		writeData(w, label+" Created", item)
	}))
	s.handle(r, http.MethodPost, root+"/{id}", s.admin(func(w http.ResponseWriter, r *http.Request, _ *account) {
		var in In
		if err := decode(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := col.find(id); !ok {
			writeError(w, http.StatusNotFound, label+" not found")
			return
		}
		writeData(w, label+" Updated", col.put(build(id, in)))
	}))
	s.handle(r, http.MethodDelete, root+"/{id}", s.admin(func(w http.ResponseWriter, r *http.Request, _ *account) {
		s.mu.Lock()
		ok := col.remove(chi.URLParam(r, "id"))
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, label+" not found")
			return
		}
		writeData(w, label+" Deleted", nil)
	}))
}

func (s *Server) activitiesByCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	var out []apiclient.Activity
	for _, a := range s.activities.list() {
		if a.CategoryID == id {
			out = append(out, a)
		}
	}
	s.mu.Unlock()
	writeData(w, "Activity Found", out)
}

func (s *Server) paymentMethods(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]apiclient.PaymentMethod{}, s.payments...)
	s.mu.Unlock()
	writeData(w, "Payment Methods Found", out)
}

func (s *Server) generatePaymentMethods(w http.ResponseWriter, _ *http.Request, _ *account) {
	s.mu.Lock()
	if len(s.payments) == 0 {
		s.payments = append(s.payments,
			apiclient.PaymentMethod{ID: newID(), Name: "BCA", VirtualAccountNumber: "8800123456", VirtualAccountName: "Storefront"},
			apiclient.PaymentMethod{ID: newID(), Name: "Mandiri", VirtualAccountNumber: "9900123456", VirtualAccountName: "Storefront"},
		)
	}
	s.mu.Unlock()
	writeData(w, "Payment Methods Generated", nil)
}

// cart

func (s *Server) listCart(w http.ResponseWriter, _ *http.Request, u *account) {
	s.mu.Lock()
	var out []apiclient.CartItem
	for _, item := range s.carts {
		if item.UserID == u.user.ID {
			if a, ok := s.activities.find(item.ActivityID); ok {
				item.Activity = a.Snapshot()
			}
			out = append(out, item)
		}
	}
	s.mu.Unlock()
	writeData(w, "Carts Found", out)
}

func (s *Server) addCart(w http.ResponseWriter, r *http.Request, u *account) {
	var in apiclient.CartInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}

	s.mu.Lock()
	a, ok := s.activities.find(in.ActivityID)
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Activity not found")
		return
	}
	item := apiclient.CartItem{
		ID:         newID(),
		UserID:     u.user.ID,
		ActivityID: a.ID,
		Quantity:   in.Quantity,
		Activity:   a.Snapshot(),
	}
	s.carts = append(s.carts, item)
	s.mu.Unlock()

	if s.OmitCreated {
		writeData(w, "Added to Cart", nil)
		return
	}
	writeData(w, "Added to Cart", item)
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request, u *account) {
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &in); err != nil || in.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.carts {
		if s.carts[i].ID == id && s.carts[i].UserID == u.user.ID {
			s.carts[i].Quantity = in.Quantity
			writeData(w, "Cart Updated", s.carts[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Cart not found")
}

func (s *Server) deleteCart(w http.ResponseWriter, r *http.Request, u *account) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.carts {
		if s.carts[i].ID == id && s.carts[i].UserID == u.user.ID {
			s.carts = append(s.carts[:i], s.carts[i+1:]...)
			writeData(w, "Cart Deleted", nil)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Cart not found")
}

// transactions

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, u *account) {
	var in apiclient.TransactionInput
	if err := decode(r, &in); err != nil || len(in.CartIDs) == 0 {
		writeError(w, http.StatusBadRequest, "cartIds is required")
		return
	}

	s.mu.Lock()
	var pm *apiclient.PaymentMethod
	for i := range s.payments {
		if s.payments[i].ID == in.PaymentMethodID {
			pm = &s.payments[i]
		}
	}
	if pm == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Payment method not found")
		return
	}

	wanted := map[string]bool{}
	for _, id := range in.CartIDs {
		wanted[id] = true
	}
	var (
		items    []apiclient.TransactionItem
		kept     []apiclient.CartItem
		subtotal = decimal.Zero
	)
	for _, c := range s.carts {
		if c.UserID != u.user.ID || !wanted[c.ID] {
			kept = append(kept, c)
			continue
		}
		delete(wanted, c.ID)
		items = append(items, apiclient.TransactionItem{
			ID:            newID(),
			ActivityID:    c.ActivityID,
			Title:         c.Activity.Title,
			ImageURLs:     c.Activity.ImageURLs,
			Price:         c.Activity.Price,
			PriceDiscount: c.Activity.PriceDiscount,
			Quantity:      c.Quantity,
		})
		subtotal = subtotal.Add(c.Subtotal())
	}
	if len(wanted) > 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Cart not found")
		return
	}

	total := subtotal
	if in.PromoID != "" {
		promo, ok := s.promos.find(in.PromoID)
		if !ok {
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, "Promo not found")
			return
		}
		_, total = money.ApplyPercent(subtotal, promo.DiscountPercentage)
	}

	s.carts = kept
	tx := apiclient.Transaction{
		ID:              newID(),
		UserID:          u.user.ID,
		PaymentMethodID: pm.ID,
		InvoiceID:       fmt.Sprintf("INV/%s/%d", now().Format("20060102"), len(s.transactions)+1),
		Status:          apiclient.StatusPending,
		TotalAmount:     total,
		OrderDate:       now(),
		CreatedAt:       now(),
		UpdatedAt:       now(),
		Items:           items,
		PaymentMethod:   pm,
	}
	user := u.user
	tx.User = &user
	s.transactions = append(s.transactions, tx)
	s.mu.Unlock()

	if s.OmitCreated {
		writeData(w, "Transaction Created", nil)
		return
	}
	writeData(w, "Transaction Created", tx)
}

// findTxLocked returns the index of a transaction visible to u, or -1
func (s *Server) findTxLocked(id string, u *account) int {
	for i := range s.transactions {
		t := s.transactions[i]
		if t.ID == id && (t.UserID == u.user.ID || u.user.Role == apiclient.RoleAdmin) {
			return i
		}
	}
	return -1
}

func (s *Server) cancelTransaction(w http.ResponseWriter, r *http.Request, u *account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTxLocked(chi.URLParam(r, "id"), u)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if s.transactions[i].Status != apiclient.StatusPending {
		writeError(w, http.StatusBadRequest, "Only pending transactions can be cancelled")
		return
	}
	s.transactions[i].Status = apiclient.StatusCancelled
	writeData(w, "Transaction Cancelled", nil)
}

func (s *Server) updateProof(w http.ResponseWriter, r *http.Request, u *account) {
	var in struct {
		ProofPaymentURL string `json:"proofPaymentUrl"`
	}
	if err := decode(r, &in); err != nil || in.ProofPaymentURL == "" {
		writeError(w, http.StatusBadRequest, "proofPaymentUrl is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTxLocked(chi.URLParam(r, "id"), u)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	s.transactions[i].ProofPaymentURL = in.ProofPaymentURL
	writeData(w, "Proof Payment Updated", nil)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request, u *account) {
	var in struct {
		Status apiclient.TransactionStatus `json:"status"`
	}
	if err := decode(r, &in); err != nil || !in.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTxLocked(chi.URLParam(r, "id"), u)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	s.transactions[i].Status = in.Status
	writeData(w, "Transaction Status Updated", nil)
}

func (s *Server) myTransactions(w http.ResponseWriter, _ *http.Request, u *account) {
	s.mu.Lock()
	var out []apiclient.Transaction
	for _, t := range s.transactions {
		if t.UserID == u.user.ID {
			out = append(out, t)
		}
	}
	s.mu.Unlock()
	writeData(w, "Transactions Found", out)
}

func (s *Server) allTransactions(w http.ResponseWriter, _ *http.Request, _ *account) {
	s.mu.Lock()
	out := append([]apiclient.Transaction{}, s.transactions...)
	s.mu.Unlock()
	writeData(w, "Transactions Found", out)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request, u *account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTxLocked(chi.URLParam(r, "id"), u)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	writeData(w, "Transaction Found", s.transactions[i])
}

// uploads

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request, _ *account) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image field is required")
		return
	}
	f.Close()

	name := path.Base(hdr.Filename)
	writeJSON(w, http.StatusOK, map[string]any{
		"code":    "200",
		"status":  "OK",
		"message": "Upload image success",
		"url":     fmt.Sprintf("%s/files/%s-%s", s.URL, newID(), name),
	})
}
