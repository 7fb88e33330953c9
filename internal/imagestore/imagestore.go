// Package imagestore talks to the external image-hosting service. Uploads
// return an opaque public ID paired with a serving path; deletes are keyed by
// that ID and are idempotent on the remote side.
package imagestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/guonaihong/gout"
)

// Uploader is the collaborator surface the services depend on.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (path string, publicID string, err error)
	Delete(ctx context.Context, publicID string) error
}

type Client struct {
	baseURL string
	apiKey  string
	folder  string
	timeout time.Duration
}

// NewClient creates an image store client
func NewClient(baseURL, apiKey, folder string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		folder:  folder,
		timeout: 15 * time.Second,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     string `json:"error"`
}

// Upload sends the image as a base64 data URI and returns the serving path
// plus the deletable public ID.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, string, error) {
	dataURI := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)

	var resp uploadResponse
	var code int
	err := gout.POST(c.baseURL + "/image/upload").
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(gout.H{"Authorization": "Bearer " + c.apiKey}).
		SetJSON(gout.H{
			"file":     dataURI,
			"filename": filename,
			"folder":   c.folder,
		}).
		BindJSON(&resp).
		Code(&code).
		Do()
	if err != nil {
		return "", "", fmt.Errorf("image upload failed: %w", err)
	}
	if code != http.StatusOK && code != http.StatusCreated {
		return "", "", fmt.Errorf("image upload failed: status %d: %s", code, resp.Error)
	}
	if resp.PublicID == "" {
		return "", "", fmt.Errorf("image upload failed: empty public id")
	}

	return resp.SecureURL, resp.PublicID, nil
}

// Delete removes an uploaded image by public ID. Deleting an already-deleted
// handle is not an error.
func (c *Client) Delete(ctx context.Context, publicID string) error {
	var code int
	err := gout.POST(c.baseURL + "/image/destroy").
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(gout.H{"Authorization": "Bearer " + c.apiKey}).
		SetJSON(gout.H{"public_id": publicID}).
		Code(&code).
		Do()
	if err != nil {
		return fmt.Errorf("image delete failed: %w", err)
	}
	if code == http.StatusNotFound {
		return nil
	}
	if code != http.StatusOK {
		return fmt.Errorf("image delete failed: status %d", code)
	}
	return nil
}
