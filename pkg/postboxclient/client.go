// Package postboxclient is a Go client for the postbox HTTP API plus an
// explicit client-side state store driven by named actions.
package postboxclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response. Message is the server's message verbatim.
type APIError struct {
	Status    int
	Message   string
	RequestID string
	Fields    []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("postbox: %d %s", e.Status, e.Message)
}

// FieldError is one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Address struct {
	Address  string `json:"address"`
	Movie    string `json:"movie"`
	IsCustom bool   `json:"isCustom"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserRef struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Address  Address `json:"address"`
}

type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

type Mail struct {
	ID               string       `json:"id"`
	Sender           *UserRef     `json:"sender"`
	Recipient        *UserRef     `json:"recipient"`
	RecipientAddress string       `json:"recipientAddress"`
	Subject          string       `json:"subject"`
	Content          string       `json:"content"`
	Type             string       `json:"type"`
	IsRead           bool         `json:"isRead"`
	ReadAt           *time.Time   `json:"readAt"`
	Priority         string       `json:"priority"`
	Attachments      []Attachment `json:"attachments"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type MailList struct {
	Mail        []Mail     `json:"mail"`
	Pagination  Pagination `json:"pagination"`
	UnreadCount int64      `json:"unreadCount"`
}

type CatalogEntry struct {
	Address  string `json:"address"`
	Movie    string `json:"movie"`
	IsCustom bool   `json:"isCustom"`
	Taken    bool   `json:"taken"`
}

type DirectoryEntry struct {
	Address  string `json:"address"`
	Movie    string `json:"movie"`
	Username string `json:"username"`
	IsCustom bool   `json:"isCustom"`
}

type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Address  Address `json:"address"`
}

type SendRequest struct {
	RecipientAddress string       `json:"recipientAddress"`
	Subject          string       `json:"subject"`
	Content          string       `json:"content"`
	Type             string       `json:"type,omitempty"`
	Priority         string       `json:"priority,omitempty"`
	Attachments      []Attachment `json:"attachments,omitempty"`
}

// ListOptions filters an inbox listing. Zero values are omitted.
type ListOptions struct {
	Page   int
	Limit  int
	Type   string
	IsRead *bool
}

func (o ListOptions) query() string {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Type != "" {
		v.Set("type", o.Type)
	}
	if o.IsRead != nil {
		v.Set("isRead", strconv.FormatBool(*o.IsRead))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Client calls the API mounted at BaseURL (for example http://host/api).
// Token, when set, is sent as a bearer token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (string, *User, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return "", nil, err
	}
	return out.Token, &out.User, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (string, *User, error) {
	var out authResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return "", nil, err
	}
	return out.Token, &out.User, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Inbox(ctx context.Context, opts ListOptions) (*MailList, error) {
	var out MailList
	if err := c.do(ctx, http.MethodGet, "/mail"+opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Sent(ctx context.Context, page, limit int) (*MailList, error) {
	var out MailList
	q := ListOptions{Page: page, Limit: limit}.query()
	if err := c.do(ctx, http.MethodGet, "/mail/sent"+q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type mailResponse struct {
	Mail Mail `json:"mail"`
}

func (c *Client) Get(ctx context.Context, id string) (*Mail, error) {
	var out mailResponse
	if err := c.do(ctx, http.MethodGet, "/mail/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Mail, nil
}

func (c *Client) Send(ctx context.Context, in SendRequest) (*Mail, error) {
	var out mailResponse
	if err := c.do(ctx, http.MethodPost, "/mail/send", in, &out); err != nil {
		return nil, err
	}
	return &out.Mail, nil
}

func (c *Client) MarkRead(ctx context.Context, id string) (*Mail, error) {
	var out mailResponse
	if err := c.do(ctx, http.MethodPatch, "/mail/"+url.PathEscape(id)+"/read", nil, &out); err != nil {
		return nil, err
	}
	return &out.Mail, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/mail/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	var out struct {
		Addresses []CatalogEntry `json:"addresses"`
	}
	if err := c.do(ctx, http.MethodGet, "/addresses", nil, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

func (c *Client) SearchAddresses(ctx context.Context, q string, size int) ([]DirectoryEntry, error) {
	v := url.Values{"q": {q}}
	if size > 0 {
		v.Set("size", strconv.Itoa(size))
	}
	var out struct {
		Addresses []DirectoryEntry `json:"addresses"`
	}
	if err := c.do(ctx, http.MethodGet, "/addresses/search?"+v.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

// Upload sends r as the multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/attachments", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out struct {
		Attachment Attachment `json:"attachment"`
	}
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out.Attachment, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

type errorBody struct {
	Message   string       `json:"message"`
	RequestID string       `json:"request_id"`
	Errors    []FieldError `json:"errors"`
}

func (c *Client) send(req *http.Request, out any) error {
	httpc := c.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(b, &eb) == nil {
			apiErr.Message, apiErr.RequestID, apiErr.Fields = eb.Message, eb.RequestID, eb.Errors
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}
