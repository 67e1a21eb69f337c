package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LamGC/Auto-Musician/internal/config"
	"github.com/google/uuid"
)

// Login status codes returned by /login/qr/check.
const (
	CodeExpired   = 800
	CodeWaiting   = 801
	CodeScanned   = 802
	CodeConfirmed = 803
)

// QRCode is the displayable login QR payload. Blob is a data URI that can
// be embedded directly into an img tag's src attribute.
type QRCode struct {
	URL  string
	Blob string
}

// LoginResult is one decoded answer from the login status endpoint.
// Cookie is only present when Code is CodeConfirmed.
type LoginResult struct {
	Success bool
	Code    int
	Message string
	Cookie  string
}

// UserAccount holds the subset of /user/account the service consumes.
type UserAccount struct {
	UserID   int64
	Nickname string
	Creator  bool
}

// Client talks to a NeteaseCloudMusicApi deployment. All methods issue a
// single HTTP request and decode the response; transport and decoding
// failures are both reported as plain errors so callers can retry them
// uniformly.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewClient(cfg config.APIConfig) *Client {
	transport := &http.Transport{}
	if cfg.Proxy.Enable {
		proxyURL := &url.URL{
			Scheme: "http",
			Host:   fmt.Sprintf("%s:%d", cfg.Proxy.Host, cfg.Proxy.Port),
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimSuffix(cfg.Server, "/"),
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// apiURL joins path onto the configured API server and appends the
// cache-busting time parameter the upstream API expects. A non-empty
// cookie is forwarded as a query parameter, which is how this API accepts
// credentials.
func (c *Client) apiURL(path, cookie string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	u := c.baseURL + path + sep + "time=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	if cookie != "" {
		u += "&cookie=" + url.QueryEscape(cookie)
	}
	return u
}

func (c *Client) get(ctx context.Context, rawURL, cookie string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api response read: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api response decode: %w", err)
	}
	return nil
}

type mapResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data"`
}

type checkResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Cookie  string `json:"cookie"`
}

type plainResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountResponse struct {
	Code    int            `json:"code"`
	Account map[string]any `json:"account"`
	Profile map[string]any `json:"profile"`
}

// CreateLoginKey asks the platform for a fresh QR login session id.
// The id tracks login progress; it is not the QR code content itself.
func (c *Client) CreateLoginKey(ctx context.Context) (uuid.UUID, error) {
	var resp mapResponse
	if err := c.get(ctx, c.apiURL("/login/qr/key", ""), "", &resp); err != nil {
		return uuid.Nil, err
	}
	key, ok := resp.Data["unikey"]
	if !ok {
		return uuid.Nil, fmt.Errorf("login key response missing unikey (code %d)", resp.Code)
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("login key parse: %w", err)
	}
	return id, nil
}

// FetchQRCode retrieves the QR code for a login session id.
func (c *Client) FetchQRCode(ctx context.Context, id uuid.UUID) (QRCode, error) {
	var resp mapResponse
	u := c.apiURL("/login/qr/create?key="+id.String()+"&qrimg=true", "")
	if err := c.get(ctx, u, "", &resp); err != nil {
		return QRCode{}, err
	}
	qr := QRCode{
		URL:  resp.Data["qrurl"],
		Blob: resp.Data["qrimg"],
	}
	if qr.Blob == "" {
		return QRCode{}, fmt.Errorf("qr code response missing qrimg (code %d)", resp.Code)
	}
	return qr, nil
}

// CheckLogin polls the status of a QR login session.
func (c *Client) CheckLogin(ctx context.Context, id uuid.UUID) (LoginResult, error) {
	var resp checkResponse
	u := c.apiURL("/login/qr/check?key="+id.String(), "")
	if err := c.get(ctx, u, "", &resp); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Success: resp.Code == CodeConfirmed,
		Code:    resp.Code,
		Message: resp.Message,
		Cookie:  resp.Cookie,
	}, nil
}

// GetUserAccount looks up the account behind a credential cookie.
func (c *Client) GetUserAccount(ctx context.Context, cookie string) (UserAccount, error) {
	var resp accountResponse
	if err := c.get(ctx, c.apiURL("/user/account", cookie), "", &resp); err != nil {
		return UserAccount{}, err
	}

	// Numeric JSON values land in the maps as float64.
	id, ok := resp.Account["id"].(float64)
	if !ok {
		return UserAccount{}, fmt.Errorf("account response missing id (code %d)", resp.Code)
	}
	nickname, _ := resp.Profile["nickname"].(string)
	djStatus, _ := resp.Profile["djStatus"].(float64)

	return UserAccount{
		UserID:   int64(id),
		Nickname: nickname,
		Creator:  int(djStatus) != 0,
	}, nil
}

// Logout revokes a credential on the platform. Returns false when the
// platform rejects the request, which usually means the credential had
// already expired.
func (c *Client) Logout(ctx context.Context, cookie string) (bool, error) {
	var resp plainResponse
	if err := c.get(ctx, c.apiURL("/logout", ""), cookie, &resp); err != nil {
		return false, err
	}
	return resp.Code == 200, nil
}
