package booking

import (
	"context"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/media"
)

// ProofUploader stores a proof of payment and returns its public URL
type ProofUploader interface {
	UploadProof(ctx context.Context, f *media.File) (string, error)
}

// ProofRemover is implemented by uploaders that can delete a stored proof
// the API refused.
type ProofRemover interface {
	RemoveProof(ctx context.Context, url string) error
}

// APIUploader uploads through the API's image endpoint
type APIUploader struct {
	Client *apiclient.Client
}

func (u APIUploader) UploadProof(ctx context.Context, f *media.File) (string, error) {
	res := u.Client.Uploads.Image(ctx, f.Name, f.ContentType, f.Data)
	if !res.OK {
		return "", res.Err()
	}
	return res.Data, nil
}
