package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"signbot/internal/domain"
	"signbot/internal/infra/logging"
)

// Options configures a Bot API client.
type Options struct {
	Token        string
	APIBaseURL   string
	FileBaseURL  string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client talks to the Telegram Bot API over HTTPS with bounded retries.
type Client struct {
	token    string
	apiBase  string
	fileBase string
	http     *retryablehttp.Client
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// New builds a client. Zero durations and retries fall back to sane defaults.
func New(opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = leveledLogger{token: opts.Token}
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	// Hand the last response back so the API envelope can be decoded.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}

	apiBase := strings.TrimRight(opts.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	fileBase := strings.TrimRight(opts.FileBaseURL, "/")
	if fileBase == "" {
		fileBase = apiBase + "/file"
	}

	return &Client{
		token:    opts.Token,
		apiBase:  apiBase,
		fileBase: fileBase,
		http:     rc,
	}
}

func (c *Client) methodURL(method string) string {
	return c.apiBase + "/bot" + c.token + "/" + method
}

// SendMessage posts a plain text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(map[string]any{"chat_id": chatID, "text": text})
	if err != nil {
		return err
	}
	return c.call(ctx, "sendMessage", body, "application/json", nil)
}

// SendDocument uploads a file to a chat as a document.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.call(ctx, "sendDocument", buf.Bytes(), mw.FormDataContentType(), nil)
}

// GetFile resolves a file id to its storage path on Telegram's file server.
func (c *Client) GetFile(ctx context.Context, fileID string) (string, error) {
	body, err := json.Marshal(map[string]string{"file_id": fileID})
	if err != nil {
		return "", err
	}
	var file struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path"`
	}
	if err := c.call(ctx, "getFile", body, "application/json", &file); err != nil {
		return "", err
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("%w: getFile: empty file_path", domain.ErrTelegramAPI)
	}
	return file.FilePath, nil
}

// Download fetches file content by storage path. maxBytes <= 0 disables the limit.
func (c *Client) Download(ctx context.Context, filePath string, maxBytes int64) ([]byte, error) {
	url := c.fileBase + "/bot" + c.token + "/" + strings.TrimLeft(filePath, "/")
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, c.redact(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logging.Error("download file error", "status", resp.StatusCode, "body", string(snippet))
		return nil, fmt.Errorf("%w: download file: status %d", domain.ErrTelegramAPI, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", domain.ErrFileTooLarge, maxBytes)
	}
	return content, nil
}

// SetWebhook registers the public webhook URL and its secret token.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	payload := map[string]any{
		"url":             url,
		"allowed_updates": []string{"message"},
	}
	if secret != "" {
		payload["secret_token"] = secret
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.call(ctx, "setWebhook", body, "application/json", nil)
}

func (c *Client) call(ctx context.Context, method string, body []byte, contentType string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), body)
	if err != nil {
		return c.redact(err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, c.redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %s: status %d: undecodable body", domain.ErrTelegramAPI, method, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.OK {
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrTelegramAPI, method, resp.StatusCode, env.Description)
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

// redact strips the bot token from transport errors, which embed the request URL.
func (c *Client) redact(err error) error {
	if err == nil || c.token == "" || !strings.Contains(err.Error(), c.token) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), c.token, "<token>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }

func (e redactedError) Unwrap() error { return e.err }
