package imagehost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/application"
)

// Client は imgbb 互換の画像ホスト API クライアント。
type Client struct {
	uploadURL  string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// uploadResponse は画像ホストのアップロード応答。
type uploadResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		ID         string `json:"id"`
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
		DeleteURL  string `json:"delete_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// New は画像ホストクライアントを生成する。timeout が 0 以下なら 30 秒。
func New(uploadURL, apiKey string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		uploadURL:  uploadURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Upload は画像を base64 の multipart フォームで送信する。
func (c *Client) Upload(ctx context.Context, image []byte, filename string) (application.UploadedImage, error) {
	if c.uploadURL == "" || c.apiKey == "" {
		return application.UploadedImage{}, fmt.Errorf("image host is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("image", base64.StdEncoding.EncodeToString(image)); err != nil {
		return application.UploadedImage{}, fmt.Errorf("write form: %w", err)
	}
	if filename != "" {
		if err := writer.WriteField("name", filename); err != nil {
			return application.UploadedImage{}, fmt.Errorf("write form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return application.UploadedImage{}, fmt.Errorf("write form: %w", err)
	}

	endpoint, err := url.Parse(c.uploadURL)
	if err != nil {
		return application.UploadedImage{}, fmt.Errorf("parse upload url: %w", err)
	}
	query := endpoint.Query()
	query.Set("key", c.apiKey)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		return application.UploadedImage{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return application.UploadedImage{}, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return application.UploadedImage{}, fmt.Errorf("read response: %w", err)
	}
	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return application.UploadedImage{}, fmt.Errorf("decode response (status=%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !parsed.Success {
		return application.UploadedImage{}, fmt.Errorf("upload rejected status=%d message=%q", resp.StatusCode, parsed.Error.Message)
	}

	displayURL := parsed.Data.DisplayURL
	if displayURL == "" {
		displayURL = parsed.Data.URL
	}
	if displayURL == "" {
		return application.UploadedImage{}, fmt.Errorf("upload response has no image url")
	}
	c.logger.Printf("image uploaded id=%s name=%s", parsed.Data.ID, filename)
	return application.UploadedImage{DisplayURL: displayURL, DeleteHandle: parsed.Data.DeleteURL}, nil
}

// Release は削除用 URL を叩いて画像を解放する。すでに存在しない場合も成功とみなす。
func (c *Client) Release(ctx context.Context, deleteHandle string) error {
	if deleteHandle == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteHandle, nil)
	if err != nil {
		return fmt.Errorf("build release request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("release request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("release rejected status=%d", resp.StatusCode)
	}
	return nil
}
