// Package storagegcs stores proof-of-payment images in a Google Cloud
// Storage bucket and hands back a URL the API will accept.
package storagegcs

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"storefront.app/pkg/errs"
	"storefront.app/pkg/logger"
	"storefront.app/pkg/media"
)

// SignedURLExpiry is how long links to objects in private buckets stay
// valid. Seven days is the V4 signing maximum.
const SignedURLExpiry = 7 * 24 * time.Hour

// Config holds configuration for the GCS client
type Config struct {
	BucketName     string
	CredentialsKey string // JSON key as string
	IsPublic       bool   // public buckets get plain URLs, private ones signed URLs
	MaxWidth       int    // wider proofs are scaled down; 0 keeps the original
}

type putFunc func(ctx context.Context, object, contentType string, data []byte) error

type signFunc func(object string, expires time.Time) (string, error)

type deleteFunc func(ctx context.Context, object string) error

// Client wraps Google Cloud Storage operations
type Client struct {
	client   *storage.Client
	bucket   string
	isPublic bool
	maxWidth int

	now  func() time.Time
	put  putFunc
	sign signFunc
	del  deleteFunc
}

// NewClient creates a new GCS client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errs.New(errs.InvalidArgument, "storage bucket name is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsKey != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsKey)))
	}
	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	c := newClient(cfg)
	c.client = sc
	c.put = c.write
	c.sign = c.signedURL
	c.del = c.remove
	return c, nil
}

func newClient(cfg Config) *Client {
	return &Client{
		bucket:   cfg.BucketName,
		isPublic: cfg.IsPublic,
		maxWidth: cfg.MaxWidth,
		now:      time.Now,
	}
}

// UploadProof writes f under proofs/ and returns its URL
func (c *Client) UploadProof(ctx context.Context, f *media.File) (string, error) {
	if f == nil || len(f.Data) == 0 {
		return "", errs.Validation("proof file is empty")
	}

	data, format, err := prepare(f, c.maxWidth)
	if err != nil {
		return "", fmt.Errorf("failed to process %s: %w", f.Name, err)
	}

	object := objectName(c.now(), uuid.NewString(), f.Name, format)
	if err := c.put(ctx, object, contentTypes[format], data); err != nil {
		logger.Error(ctx, "proof upload failed", logger.Fields{"bucket": c.bucket, "object": object, "error": err.Error()})
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}

	link, err := c.URL(object)
	if err != nil {
		return "", err
	}
	logger.Info(ctx, "proof uploaded", logger.Fields{"bucket": c.bucket, "object": object, "size": len(data)})
	return link, nil
}

// URL returns a public URL for public buckets and a signed one otherwise
func (c *Client) URL(object string) (string, error) {
	if c.isPublic {
		return c.PublicURL(object), nil
	}
	return c.sign(object, c.now().UTC().Add(SignedURLExpiry))
}

// PublicURL returns the direct URL of an object in a public bucket
func (c *Client) PublicURL(object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucket, object)
}

func (c *Client) signedURL(object string, expires time.Time) (string, error) {
	link, err := c.client.Bucket(c.bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: expires,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL for %s: %w", object, err)
	}
	return link, nil
}

func (c *Client) write(ctx context.Context, object, contentType string, data []byte) error {
	w := c.client.Bucket(c.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "private, max-age=0"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	return w.Close()
}

// Delete removes an object from the bucket
func (c *Client) Delete(ctx context.Context, object string) error {
	if err := c.del(ctx, object); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", object, err)
	}
	logger.Info(ctx, "proof deleted", logger.Fields{"bucket": c.bucket, "object": object})
	return nil
}

// RemoveProof deletes the object behind a URL returned by UploadProof
func (c *Client) RemoveProof(ctx context.Context, rawURL string) error {
	object, err := c.objectFromURL(rawURL)
	if err != nil {
		return err
	}
	return c.Delete(ctx, object)
}

// objectFromURL accepts public URLs and V4 signed URLs, both of which put
// the object under /<bucket>/ on storage.googleapis.com.
func (c *Client) objectFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errs.Validation("invalid proof URL")
	}
	object, ok := strings.CutPrefix(u.Path, "/"+c.bucket+"/")
	if !ok || object == "" || !strings.HasPrefix(object, proofPrefix) {
		return "", errs.Validation(fmt.Sprintf("URL is not a proof in bucket %s", c.bucket))
	}
	return object, nil
}

func (c *Client) remove(ctx context.Context, object string) error {
	return c.client.Bucket(c.bucket).Object(object).Delete(ctx)
}

// Close closes the GCS client
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
