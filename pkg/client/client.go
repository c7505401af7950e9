// Package client 课表服务的 Go 客户端：HTTP 调用、录入表单的防抖查重与本地列表。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/response"
)

const defaultTimeout = 15 * time.Second

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// IsStatus 判断 err 是否为指定状态码的 APIError
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client 课表服务 HTTP 客户端
// token 为会话令牌，以 Authorization: Bearer 发送
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken 设置会话令牌
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New 创建 Client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ── 课表 ──

// ListMine GET /schedule
func (c *Client) ListMine(ctx context.Context) ([]model.Schedule, error) {
	var out []model.Schedule
	err := c.do(ctx, http.MethodGet, "/schedule", nil, &out)
	return out, err
}

// ListByEmail GET /schedules?email=
func (c *Client) ListByEmail(ctx context.Context, email string) ([]model.Schedule, error) {
	var out []model.Schedule
	err := c.do(ctx, http.MethodGet, "/schedules?email="+url.QueryEscape(email), nil, &out)
	return out, err
}

// Create POST /schedule
func (c *Client) Create(ctx context.Context, form *dto.CreateScheduleRequest) (*model.Schedule, error) {
	var out model.Schedule
	if err := c.do(ctx, http.MethodPost, "/schedule", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update PUT /schedule/:id，提交完整表单
func (c *Client) Update(ctx context.Context, id string, form *dto.CreateScheduleRequest) (*model.Schedule, error) {
	var out model.Schedule
	if err := c.do(ctx, http.MethodPut, "/schedule/"+url.PathEscape(id), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete DELETE /schedule/:id
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/schedule/"+url.PathEscape(id), nil, nil)
}

// CheckDuplicates POST /schedule/check-duplicates
func (c *Client) CheckDuplicates(ctx context.Context, req *dto.CheckDuplicatesRequest) (*dto.DuplicateResult, error) {
	var out dto.DuplicateResult
	if err := c.do(ctx, http.MethodPost, "/schedule/check-duplicates", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── 会话与档案 ──

// Session GET /auth/session
func (c *Client) Session(ctx context.Context) (*dto.SessionResponse, error) {
	var out dto.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout POST /auth/logout
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Profile GET /user/profile
func (c *Client) Profile(ctx context.Context) (*dto.ProfileResponse, error) {
	var out dto.ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveProfile POST /user/profile
func (c *Client) SaveProfile(ctx context.Context, req *dto.ProfileRequest) error {
	return c.do(ctx, http.MethodPost, "/user/profile", req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("编码请求失败: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e response.ErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
