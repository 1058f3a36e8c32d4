package rtdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RESTConfig Realtime Database REST 接口参数（本地模拟器或数据库密钥）
type RESTConfig struct {
	BaseURL   string // 如 http://127.0.0.1:9000 或 https://xxx.firebaseio.com
	Namespace string // 模拟器需要 ?ns=<db>
	AuthToken string // ?auth=<token>
	Timeout   time.Duration
}

// RESTBackend 通过 REST 接口访问 Realtime Database
type RESTBackend struct {
	client *resty.Client
}

type pushResult struct {
	Name string `json:"name"`
}

type restError struct {
	Error string `json:"error"`
}

// NewRESTBackend 创建 REST 存储
func NewRESTBackend(cfg RESTConfig) *RESTBackend {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "Shop-Admin-Go/1.0")
	if cfg.Namespace != "" {
		client.SetQueryParam("ns", cfg.Namespace)
	}
	if cfg.AuthToken != "" {
		client.SetQueryParam("auth", cfg.AuthToken)
	}
	return &RESTBackend{client: client}
}

func restURL(path string) string {
	if path == "" {
		return "/.json"
	}
	return "/" + path + ".json"
}

func (b *RESTBackend) Get(ctx context.Context, path string) (any, error) {
	resp, err := b.client.R().SetContext(ctx).Get(restURL(path))
	if err := checkREST("get", path, resp, err); err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(resp.Body(), &v); err != nil {
		return nil, &Error{Op: "get", Path: path, Code: CodeInvalidData, Err: err}
	}
	return prune(v), nil
}

func (b *RESTBackend) Set(ctx context.Context, path string, value any) error {
	if value == nil {
		return b.Delete(ctx, path)
	}
	body, err := json.Marshal(value)
	if err != nil {
		return &Error{Op: "set", Path: path, Code: CodeInvalidData, Err: err}
	}
	resp, err := b.client.R().SetContext(ctx).SetBody(body).Put(restURL(path))
	return checkREST("set", path, resp, err)
}

func (b *RESTBackend) Push(ctx context.Context, path string, value any) (string, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return "", &Error{Op: "push", Path: path, Code: CodeInvalidData, Err: err}
	}
	var out pushResult
	resp, err := b.client.R().SetContext(ctx).SetBody(body).SetResult(&out).Post(restURL(path))
	if err := checkREST("push", path, resp, err); err != nil {
		return "", err
	}
	if out.Name == "" {
		return "", &Error{Op: "push", Path: path, Code: CodeInvalidData, Err: fmt.Errorf("响应中缺少 name 字段")}
	}
	return out.Name, nil
}

func (b *RESTBackend) Update(ctx context.Context, path string, fields map[string]any) error {
	return b.patch(ctx, "update", path, fields)
}

func (b *RESTBackend) Delete(ctx context.Context, path string) error {
	resp, err := b.client.R().SetContext(ctx).Delete(restURL(path))
	return checkREST("delete", path, resp, err)
}

// MultiUpdate 对根节点 PATCH，多路径写入由服务端原子执行
func (b *RESTBackend) MultiUpdate(ctx context.Context, updates map[string]any) error {
	return b.patch(ctx, "batch", "", updates)
}

func (b *RESTBackend) Close() error {
	return nil
}

func (b *RESTBackend) patch(ctx context.Context, op, path string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return &Error{Op: op, Path: path, Code: CodeInvalidData, Err: err}
	}
	resp, err := b.client.R().SetContext(ctx).SetBody(body).Patch(restURL(path))
	return checkREST(op, path, resp, err)
}

// checkREST 把传输错误和 HTTP 状态码归一化为 *Error
func checkREST(op, path string, resp *resty.Response, err error) error {
	if err != nil {
		return &Error{Op: op, Path: path, Code: CodeUnavailable, Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	msg := resp.Status()
	var re restError
	if json.Unmarshal(resp.Body(), &re) == nil && re.Error != "" {
		msg = re.Error
	}

	code := CodeUnknown
	switch {
	case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
		code = CodePermissionDenied
	case resp.StatusCode() == http.StatusBadRequest:
		code = CodeInvalidData
	case resp.StatusCode() >= http.StatusInternalServerError:
		code = CodeUnavailable
	}
	return &Error{Op: op, Path: path, Code: code, Err: fmt.Errorf("http %d: %s", resp.StatusCode(), msg)}
}
