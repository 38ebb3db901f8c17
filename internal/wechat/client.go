// Package wechat talks to the WeChat mini-program login API
// (jscode2session). Only the code exchange is implemented; everything else
// about the provider is out of scope.
package wechat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Session is the provider's answer to a successful code exchange.
type Session struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
}

type sessionResponse struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

type Client struct {
	appID     string
	appSecret string
	apiBase   string
	http      *http.Client
}

// NewClient builds a provider client with a bounded request timeout. The
// exchange is never retried; a failed code is surfaced to the member as a
// fresh-login prompt.
func NewClient(appID string, appSecret string, apiBase string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		apiBase:   apiBase,
		http:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (Session, error) {
	query := url.Values{}
	query.Set("appid", c.appID)
	query.Set("secret", c.appSecret)
	query.Set("js_code", code)
	query.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiBase+"/sns/jscode2session?"+query.Encode(), nil)
	if err != nil {
		return Session{}, fmt.Errorf("build exchange request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("exchange code: %w", err)
	}
	defer resp.Body.Close()

	var parsed sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Session{}, fmt.Errorf("decode exchange response: %w", err)
	}

	// WeChat signals failure in the body, not the HTTP status.
	if parsed.ErrCode != 0 || parsed.OpenID == "" {
		return Session{}, fmt.Errorf("provider rejected code: errcode=%d %s", parsed.ErrCode, parsed.ErrMsg)
	}

	return Session{OpenID: parsed.OpenID, SessionKey: parsed.SessionKey}, nil
}
