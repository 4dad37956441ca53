package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/config"
	"storefront.app/pkg/errs"
	"storefront.app/pkg/logger"
	"storefront.app/pkg/middleware"
	"storefront.app/pkg/session"
	"storefront.app/pkg/storagegcs"
	"storefront.app/svc/admin"
	"storefront.app/svc/auth"
	"storefront.app/svc/booking"
	"storefront.app/svc/cart"
	"storefront.app/svc/catalog"
)

// proofMaxWidth bounds proofs stored in GCS; receipts stay legible at this size
const proofMaxWidth = 1600

var errUnknownCommand = errors.New("unknown command")

var _ booking.ProofRemover = (*storagegcs.Client)(nil)

// app is the composition root: one client, one session, the stores on top
type app struct {
	out      io.Writer
	client   *apiclient.Client
	auth     *auth.Store
	cart     *cart.Store
	catalog  *catalog.Store
	admin    *admin.Service
	uploader booking.ProofUploader
	now      func() time.Time
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	var storage session.Storage = session.NewMemoryStorage()
	if cfg.State.Path != "" {
		s, err := session.NewSQLiteStorage(ctx, cfg.State.Path)
		if err != nil {
			return nil, fmt.Errorf("open state: %w", err)
		}
		storage = s
	}

	client := apiclient.New(apiclient.Options{
		BasePath: cfg.API.BasePath(),
		APIKey:   cfg.API.APIKey,
		Timeout:  cfg.API.Timeout,
	}, storage)

	a := wire(client, cfg.Stores.RefreshErrorPolicy, out)
	a.closers = append(a.closers, storage.Close)

	if cfg.Storage.GCSBucket != "" {
		gcs, err := storagegcs.NewClient(ctx, storagegcs.Config{
			BucketName:     cfg.Storage.GCSBucket,
			CredentialsKey: cfg.Storage.GCSCredentials,
			IsPublic:       cfg.Storage.GCSPublic,
			MaxWidth:       proofMaxWidth,
		})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.uploader = gcs
		a.closers = append(a.closers, gcs.Close)
		logger.Debug(ctx, "proofs go to GCS", logger.Fields{"bucket": cfg.Storage.GCSBucket})
	}
	return a, nil
}

// wire builds the stores over client. Proofs go through the API upload
// endpoint unless newApp swaps in GCS.
func wire(client *apiclient.Client, policy config.ErrorPolicy, out io.Writer) *app {
	return &app{
		out:      out,
		client:   client,
		auth:     auth.NewStore(client, client.Storage()),
		cart:     cart.NewStore(client, cart.WithErrorPolicy(policy)),
		catalog:  catalog.NewStore(client, policy),
		admin:    admin.NewService(client),
		uploader: booking.APIUploader{Client: client},
		now:      time.Now,
	}
}

// Close releases storage and clients, last opened first
func (a *app) Close() error {
	var errList []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	a.closers = nil
	return errors.Join(errList...)
}

type command func(a *app, ctx context.Context, args []string) error

var commands = map[string]command{
	"activities": (*app).activities,
	"promos":     (*app).promos,
	"login":      (*app).login,
	"logout":     (*app).logout,
	"whoami":     (*app).whoami,
	"cart":       (*app).cartCmd,
	"book":       (*app).book,
	"dashboard":  (*app).dashboard,
	"review":     (*app).review,
	"export":     (*app).export,
}

// dispatch restores the persisted session, then runs the named command
func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCommand, name)
	}
	a.auth.Restore(ctx)
	return cmd(a, ctx, args)
}

// guard applies the route guard for origin and turns a redirect into an error
func (a *app) guard(origin string, requireAdmin bool) error {
	d := middleware.Protected(a.auth, requireAdmin).Decide(origin)
	switch d.Kind {
	case middleware.Render:
		return nil
	case middleware.Redirect:
		if d.Location == middleware.LoginPath {
			return &errs.Error{Code: errs.Unauthenticated, Message: "Please log in first: storefront login -email <email> -password <password>"}
		}
		return &errs.Error{Code: errs.Forbidden, Message: "This command is for admins only"}
	default:
		return &errs.Error{Code: errs.ServiceUnavailable, Message: "Session is still loading"}
	}
}
