package apitest

import (
	"strings"

	"storefront.app/pkg/apiclient"
)

func (s *Server) addAccountLocked(name, email, password, role string) *account {
	if role == "" {
		role = apiclient.RoleUser
	}
	acc := &account{
		user: apiclient.User{
			ID:    newID(),
			Name:  name,
			Email: strings.ToLower(email),
			Role:  role,
		},
		password: password,
	}
	s.accounts[acc.user.Email] = acc
	return acc
}

func (s *Server) issueLocked(acc *account) string {
	tok := "tok-" + newID()
	s.tokens[tok] = acc.user.Email
	return tok
}

// AddUser registers an account that can log in with email and password
func (s *Server) AddUser(name, email, password, role string) apiclient.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccountLocked(name, email, password, role).user
}

// IssueToken returns a valid bearer token for an existing account
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return ""
	}
	return s.issueLocked(acc)
}

// RevokeTokens invalidates every issued token
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]string{}
}

func (s *Server) SeedActivities(items ...apiclient.Activity) []apiclient.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]apiclient.Activity, 0, len(items))
	for _, a := range items {
		out = append(out, s.activities.put(a))
	}
	return out
}

func (s *Server) SeedCategories(items ...apiclient.Category) []apiclient.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]apiclient.Category, 0, len(items))
	for _, c := range items {
		out = append(out, s.categories.put(c))
	}
	return out
}

func (s *Server) SeedBanners(items ...apiclient.Banner) []apiclient.Banner {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]apiclient.Banner, 0, len(items))
	for _, b := range items {
		out = append(out, s.banners.put(b))
	}
	return out
}

func (s *Server) SeedPromos(items ...apiclient.Promo) []apiclient.Promo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]apiclient.Promo, 0, len(items))
	for _, p := range items {
		out = append(out, s.promos.put(p))
	}
	return out
}

func (s *Server) SeedPaymentMethods(items ...apiclient.PaymentMethod) []apiclient.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = newID()
		}
	}
	s.payments = append(s.payments, items...)
	return items
}

// Activities returns the server's current activity list
func (s *Server) Activities() []apiclient.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activities.list()
}

// CartOf returns the server-side cart of a user
func (s *Server) CartOf(userID string) []apiclient.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []apiclient.CartItem
	for _, c := range s.carts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

// Transactions returns every transaction on the server
func (s *Server) Transactions() []apiclient.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]apiclient.Transaction{}, s.transactions...)
}

func (s *Server) SeedTransactions(items ...apiclient.Transaction) []apiclient.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = newID()
		}
	}
	s.transactions = append(s.transactions, items...)
	return items
}
