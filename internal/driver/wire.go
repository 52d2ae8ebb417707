package driver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Capabilities is the capability set negotiated when a wire session is
// created. Zero-value fields are omitted from the new-session payload.
type Capabilities struct {
	BrowserName    string   `json:"browserName,omitempty"`
	BrowserVersion string   `json:"browserVersion,omitempty"`
	PlatformName   string   `json:"platformName,omitempty"`
	Args           []string `json:"-"`
}

// Client is a minimal W3C WebDriver client. It implements Driver over the
// JSON-over-HTTP wire protocol and covers exactly the endpoints the harness
// uses; it is collaborator plumbing, not a general WebDriver library.
type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client
	quit      bool
}

// wireResponse is the {"value": ...} envelope every WebDriver endpoint
// returns. Errors arrive as a value object with an "error" field.
type wireResponse struct {
	Value json.RawMessage `json:"value"`
}

type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// webElementKey is the W3C element identifier key in element references.
const webElementKey = "element-6066-11e4-a52e-4f735466cecf"

// NewSession creates a browser session against a WebDriver endpoint.
// Credentials, if any, must be embedded in endpoint (basic auth URL form).
func NewSession(ctx context.Context, endpoint string, caps Capabilities) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(endpoint, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}

	alwaysMatch := map[string]any{}
	if caps.BrowserName != "" {
		alwaysMatch["browserName"] = caps.BrowserName
	}
	if caps.BrowserVersion != "" {
		alwaysMatch["browserVersion"] = caps.BrowserVersion
	}
	if caps.PlatformName != "" {
		alwaysMatch["platformName"] = caps.PlatformName
	}
	if len(caps.Args) > 0 {
		alwaysMatch["goog:chromeOptions"] = map[string]any{"args": caps.Args}
	}

	payload := map[string]any{
		"capabilities": map[string]any{"alwaysMatch": alwaysMatch},
	}

	var result struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/session", payload, &result); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	if result.SessionID == "" {
		return nil, fmt.Errorf("new session: endpoint returned empty session id")
	}
	c.sessionID = result.SessionID
	return c, nil
}

// SessionID returns the wire session identifier.
func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) Navigate(ctx context.Context, url string) error {
	return c.do(ctx, http.MethodPost, c.sessionPath("/url"), map[string]any{"url": url}, nil)
}

func (c *Client) Title(ctx context.Context) (string, error) {
	var title string
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/title"), nil, &title); err != nil {
		return "", err
	}
	return title, nil
}

func (c *Client) FindElement(ctx context.Context, selector string) (ElementID, error) {
	payload := map[string]any{"using": "css selector", "value": selector}
	var ref map[string]string
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/element"), payload, &ref); err != nil {
		return "", err
	}
	id, ok := ref[webElementKey]
	if !ok || id == "" {
		return "", fmt.Errorf("find element %q: malformed element reference", selector)
	}
	return ElementID(id), nil
}

func (c *Client) GetAttribute(ctx context.Context, id ElementID, name string) (string, error) {
	// The wire protocol returns null for absent attributes; decode into a
	// pointer so that maps to the empty string.
	var value *string
	path := c.sessionPath(fmt.Sprintf("/element/%s/attribute/%s", id, name))
	if err := c.do(ctx, http.MethodGet, path, nil, &value); err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func (c *Client) Text(ctx context.Context, id ElementID) (string, error) {
	var text string
	if err := c.do(ctx, http.MethodGet, c.sessionPath(fmt.Sprintf("/element/%s/text", id)), nil, &text); err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) Click(ctx context.Context, id ElementID) error {
	return c.do(ctx, http.MethodPost, c.sessionPath(fmt.Sprintf("/element/%s/click", id)), map[string]any{}, nil)
}

func (c *Client) SelectOption(ctx context.Context, selector, value string) error {
	sel, err := c.FindElement(ctx, selector)
	if err != nil {
		return fmt.Errorf("select %q: %w", selector, err)
	}
	if err := c.Click(ctx, sel); err != nil {
		return fmt.Errorf("open %q: %w", selector, err)
	}
	opt, err := c.FindElement(ctx, fmt.Sprintf("%s option[value=%q]", selector, value))
	if err != nil {
		return fmt.Errorf("option %q: %w", value, err)
	}
	return c.Click(ctx, opt)
}

func (c *Client) EvaluateScript(ctx context.Context, script string, args ...any) (any, error) {
	if args == nil {
		args = []any{}
	}
	payload := map[string]any{"script": script, "args": args}
	var result any
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/execute/sync"), payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	var encoded string
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/screenshot"), nil, &encoded); err != nil {
		return nil, err
	}
	png, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return png, nil
}

func (c *Client) Quit(ctx context.Context) error {
	if c.quit {
		return nil
	}
	c.quit = true
	return c.do(ctx, http.MethodDelete, c.sessionPath(""), nil, nil)
}

func (c *Client) sessionPath(suffix string) string {
	return "/session/" + c.sessionID + suffix
}

// do issues one wire request and decodes the value envelope into out.
// WebDriver error responses are mapped to harness sentinels where the
// distinction matters to callers.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	var envelope wireResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("%s %s: decode envelope: %w", method, path, err)
		}
	}

	if resp.StatusCode >= 400 {
		var werr wireError
		if len(envelope.Value) > 0 {
			_ = json.Unmarshal(envelope.Value, &werr)
		}
		switch werr.Error {
		case "no such element":
			return ErrNoSuchElement
		case "invalid session id":
			return ErrStaleSession
		}
		if werr.Error != "" {
			return fmt.Errorf("%s %s: %s: %s", method, path, werr.Error, werr.Message)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil && len(envelope.Value) > 0 {
		if err := json.Unmarshal(envelope.Value, out); err != nil {
			return fmt.Errorf("%s %s: decode value: %w", method, path, err)
		}
	}
	return nil
}
