// Package registrantapi talks to the community backend that owns admin accounts and registrant records.
package registrantapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/komunitas-inovasi/komunitas/internal/core"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
)

const (
	// DefaultMaxAttachmentBytes caps a single attachment download.
	DefaultMaxAttachmentBytes int64 = 20 << 20

	maxJSONBytes = 10 << 20

	fallbackLoginMessage    = "Gagal login sebagai admin"
	fallbackFetchMessage    = "Gagal mengambil data pendaftar"
	fallbackRegisterMessage = "Gagal mengirim data pendaftaran"
)

// Compile-time interface checks.
var (
	_ core.RegistrantSource    = (*Client)(nil)
	_ core.RegistrationGateway = (*Client)(nil)
)

// Config captures the backend location and transport limits.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	MaxAttachmentBytes int64
	Client             *http.Client
}

// Client is an HTTP client for the community backend.
type Client struct {
	baseURL            *url.URL
	maxAttachmentBytes int64
	client             *http.Client
}

// NewClient builds a backend client. BaseURL must be an absolute http(s) URL.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("backend api url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend api url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend api url must be an absolute http(s) url: %q", raw)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	maxBytes := cfg.MaxAttachmentBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAttachmentBytes
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: u, maxAttachmentBytes: maxBytes, client: hc}, nil
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(elem ...string) string {
	return c.baseURL.JoinPath(elem...).String()
}

type loginResponse struct {
	Token string      `json:"token"`
	Exp   json.Number `json:"exp"`
}

// Login exchanges admin credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds model.AdminCredentials) (model.AdminToken, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return model.AdminToken{}, fmt.Errorf("encode login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("admin", "login"), bytes.NewReader(body))
	if err != nil {
		return model.AdminToken{}, fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return model.AdminToken{}, &NetworkError{Op: "admin login", Err: err}
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := backendMessage(resp, fallbackLoginMessage)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return model.AdminToken{}, &AuthError{StatusCode: resp.StatusCode, Message: msg}
		}
		return model.AdminToken{}, &NetworkError{Op: "admin login", StatusCode: resp.StatusCode, Message: msg}
	}

	var out loginResponse
	if err := decodeJSON(resp.Body, &out); err != nil {
		return model.AdminToken{}, &NetworkError{Op: "admin login", Err: err}
	}
	if strings.TrimSpace(out.Token) == "" {
		return model.AdminToken{}, &NetworkError{Op: "admin login", Message: "response carried no token"}
	}

	token := model.AdminToken{Token: out.Token}
	if exp, ok := unixSeconds(out.Exp); ok {
		token.ExpiresAt = exp
	}
	return token, nil
}

type registrantDTO struct {
	MongoID    string  `json:"_id"`
	ID         string  `json:"id"`
	Name       string  `json:"nama-lengkap"`
	Email      string  `json:"email"`
	Phone      string  `json:"no-telp"`
	Attachment *string `json:"bukti-transfer"`
}

type registrantListResponse struct {
	Data []registrantDTO `json:"data"`
}

// FetchRegistrants returns the full registrant collection in backend order.
// Attachment file names are rewritten to absolute upload URLs.
func (c *Client) FetchRegistrants(ctx context.Context, token string) ([]model.Registrant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("pendaftar", "get"), nil)
	if err != nil {
		return nil, fmt.Errorf("create registrant request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	setBearer(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetch registrants", Err: err}
	}
	defer closeBody(resp)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: backendMessage(resp, fallbackFetchMessage)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{
			Op:         "fetch registrants",
			StatusCode: resp.StatusCode,
			Message:    backendMessage(resp, fallbackFetchMessage),
		}
	}

	var out registrantListResponse
	if err := decodeJSON(resp.Body, &out); err != nil {
		return nil, &NetworkError{Op: "fetch registrants", Err: err}
	}

	records := make([]model.Registrant, 0, len(out.Data))
	for i, dto := range out.Data {
		records = append(records, c.toRegistrant(i, dto))
	}
	return records, nil
}

func (c *Client) toRegistrant(index int, dto registrantDTO) model.Registrant {
	id := strings.TrimSpace(dto.MongoID)
	if id == "" {
		id = strings.TrimSpace(dto.ID)
	}
	if id == "" {
		id = strconv.Itoa(index + 1)
	}

	r := model.Registrant{
		ID:    id,
		Name:  dto.Name,
		Email: dto.Email,
		Phone: dto.Phone,
	}
	if dto.Attachment != nil {
		if name := strings.TrimSpace(*dto.Attachment); name != "" {
			u := c.uploadURL(name)
			r.Attachment = &u
		}
	}
	return r
}

func (c *Client) uploadURL(name string) string {
	if u, err := url.Parse(name); err == nil && u.IsAbs() {
		return name
	}
	return c.endpoint("pendaftar", "uploads", name)
}

// FetchAttachment downloads one attachment. The bearer token is only sent to hosts that share the
// backend's registrable domain.
func (c *Client) FetchAttachment(ctx context.Context, rawURL, token string) ([]byte, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &NetworkError{Op: "fetch attachment", Message: fmt.Sprintf("invalid attachment url %q", rawURL)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create attachment request: %w", err)
	}
	if sameSite(c.baseURL.Hostname(), u.Hostname()) {
		setBearer(req, token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetch attachment", Err: err}
	}
	defer closeBody(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{URL: u.String()}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: resp.Status}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &NetworkError{Op: "fetch attachment", StatusCode: resp.StatusCode, Message: u.String()}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxAttachmentBytes+1))
	if err != nil {
		return nil, &NetworkError{Op: "fetch attachment", Err: err}
	}
	if int64(len(data)) > c.maxAttachmentBytes {
		return nil, &NetworkError{
			Op:      "fetch attachment",
			Message: fmt.Sprintf("attachment exceeds %d bytes", c.maxAttachmentBytes),
		}
	}
	return data, nil
}

// AddRegistrant submits a registration as multipart form data.
func (c *Client) AddRegistrant(ctx context.Context, reg model.RegistrationRequest) error {
	body, contentType, err := registrationBody(reg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("pendaftar", "add"), body)
	if err != nil {
		return fmt.Errorf("create registration request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Op: "add registrant", Err: err}
	}
	defer closeBody(resp)

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &RejectedError{StatusCode: resp.StatusCode, Message: backendMessage(resp, fallbackRegisterMessage)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &NetworkError{
			Op:         "add registrant",
			StatusCode: resp.StatusCode,
			Message:    backendMessage(resp, fallbackRegisterMessage),
		}
	}
	return nil
}

func registrationBody(reg model.RegistrationRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"nama-lengkap", strings.TrimSpace(reg.Name)},
		{"email", strings.TrimSpace(reg.Email)},
		{"no-telp", reg.NormalizedPhone()},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", f.name, err)
		}
	}

	if p := reg.ProofOfPayment; p != nil && p.Content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="bukti-transfer"; filename=%q`, p.Filename))
		ct := p.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create proof part: %w", err)
		}
		if _, err := io.Copy(part, p.Content); err != nil {
			return nil, "", fmt.Errorf("copy proof of payment: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// sameSite reports whether two hosts share a registrable domain. IP literals and single-label hosts
// such as localhost only match themselves.
func sameSite(apiHost, target string) bool {
	apiHost = strings.ToLower(strings.TrimSuffix(apiHost, "."))
	target = strings.ToLower(strings.TrimSuffix(target, "."))
	if apiHost == "" || target == "" {
		return false
	}
	if apiHost == target {
		return true
	}
	if net.ParseIP(apiHost) != nil || net.ParseIP(target) != nil {
		return false
	}
	apiSite, err := publicsuffix.EffectiveTLDPlusOne(apiHost)
	if err != nil {
		return false
	}
	targetSite, err := publicsuffix.EffectiveTLDPlusOne(target)
	if err != nil {
		return false
	}
	return apiSite == targetSite
}

func setBearer(req *http.Request, token string) {
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func unixSeconds(n json.Number) (time.Time, bool) {
	if n == "" {
		return time.Time{}, false
	}
	f, err := n.Float64()
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(f), 0).UTC(), true
}

func decodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(io.LimitReader(r, maxJSONBytes)).Decode(v); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

// backendMessage extracts {"message": "..."} from an error response, or returns fallback.
func backendMessage(resp *http.Response, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return fallback
	}
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return msg
	}
	return fallback
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
