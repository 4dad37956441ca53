package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"storefront.app/pkg/errs"
)

// UploadService stores images on the API's file host
type UploadService struct {
	c *Client
}

type multipartBody struct {
	field       string
	fileName    string
	contentType string
	data        []byte
}

func (m *multipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, m.field, m.fileName))
	if m.contentType != "" {
		h.Set("Content-Type", m.contentType)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(m.data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// Image uploads data as the multipart field "image" and returns the hosted
// URL. The URL may come back at the top level or inside data.
func (s *UploadService) Image(ctx context.Context, fileName, contentType string, data []byte) Result[string] {
	if len(data) == 0 {
		return Invalid[string](errs.Validation("file is empty"))
	}
	env, failed := s.c.exchange(ctx, call{
		resource: "uploads",
		op:       "image",
		method:   http.MethodPost,
		path:     "/upload-image",
		form: &multipartBody{
			field:       "image",
			fileName:    fileName,
			contentType: contentType,
			data:        data,
		},
		fallback: "Failed to upload image",
	})
	if failed != nil {
		return recast[string](*failed)
	}

	url := env.URL
	if url == "" {
		url = rawString(env.Data)
	}
	if url == "" && len(env.Data) > 0 {
		var nested struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(env.Data, &nested); err == nil {
			url = nested.URL
		}
	}
	if url == "" {
		return Failure[string]("Upload response carried no URL", env.status)
	}
	return Success(url, "Image uploaded")
}
