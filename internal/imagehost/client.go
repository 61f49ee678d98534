// Package imagehost stores uploaded item photos in a GitHub repository
// through the contents API and hands back their raw download URLs.
package imagehost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const (
	defaultAPIURL = "https://api.github.com"
	defaultRawURL = "https://raw.githubusercontent.com"
	defaultBranch = "main"
)

// ErrUnsupportedType is returned for images that are not JPEG, PNG or WebP.
var ErrUnsupportedType = errors.New("unsupported image type")

// extensions maps accepted MIME types to the file extension used in the
// repository.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Supported reports whether images of mimeType can be uploaded.
func Supported(mimeType string) bool {
	_, ok := extensions[mimeType]
	return ok
}

// Config points the client at a repository.
type Config struct {
	APIURL string
	RawURL string
	Owner  string
	Repo   string
	Token  string
	Branch string
}

// Client is a minimal GitHub contents API client for storing images.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new image host client. Empty API URL, raw URL and
// branch fall back to github.com and "main".
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.RawURL == "" {
		cfg.RawURL = defaultRawURL
	}
	if cfg.Branch == "" {
		cfg.Branch = defaultBranch
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// Upload commits the image to the repository under a fresh name and returns
// its raw URL.
func (c *Client) Upload(ctx context.Context, data []byte, mimeType string) (string, error) {
	ext, ok := extensions[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	name := fmt.Sprintf("lostify-%d-%s%s", c.now().UnixMilli(), uuid.NewString()[:8], ext)
	body := putContentsRequest{
		Message: "upload " + name,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  c.cfg.Branch,
	}

	var resp putContentsResponse
	path := fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.Repo), url.PathEscape(name))
	if err := c.put(ctx, path, body, &resp); err != nil {
		return "", fmt.Errorf("put contents: %w", err)
	}

	if resp.Content.DownloadURL != "" {
		return resp.Content.DownloadURL, nil
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", c.cfg.RawURL, c.cfg.Owner, c.cfg.Repo, c.cfg.Branch, name), nil
}

func (c *Client) put(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.cfg.APIURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "token "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
}

type putContentsResponse struct {
	Content struct {
		Path        string `json:"path"`
		DownloadURL string `json:"download_url"`
	} `json:"content"`
}
