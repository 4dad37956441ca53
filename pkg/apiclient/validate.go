package apiclient

import (
	"storefront.app/pkg/errs"
	"storefront.app/pkg/media"
)

var errMissingID = errs.Validation("id is required")

func validateImage(url string) error {
	return media.ValidateImageURL(url)
}

func requireID(id string) error {
	if id == "" {
		return errMissingID
	}
	return nil
}
