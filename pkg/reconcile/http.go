package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/d60-Lab/gin-contest/pkg/response"
)

// ServerError 服务端返回的业务错误
type ServerError struct {
	Status     int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server responded %d %s: %s", e.Status, e.Code, e.Message)
}

// HTTPToggler 通过 HTTP 接口调用投票服务
type HTTPToggler struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPToggler(baseURL, token string) *HTTPToggler {
	return &HTTPToggler{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPToggler) Toggle(ctx context.Context, workID, idempotencyKey string) (VoteState, error) {
	var out struct {
		IsVoted   bool  `json:"isVoted"`
		VoteCount int64 `json:"voteCount"`
	}
	hdr := http.Header{}
	if idempotencyKey != "" {
		hdr.Set("Idempotency-Key", idempotencyKey)
	}
	if err := h.do(ctx, http.MethodPost, "/votes/"+url.PathEscape(workID)+"/toggle", hdr, &out); err != nil {
		return VoteState{}, err
	}
	return VoteState{HasVoted: out.IsVoted, VoteCount: out.VoteCount}, nil
}

// Fetch 读取投票状态；不依赖作品墙，未通过审核的作品也能对齐
func (h *HTTPToggler) Fetch(ctx context.Context, workID string) (VoteState, error) {
	var out struct {
		IsVoted   bool  `json:"isVoted"`
		VoteCount int64 `json:"voteCount"`
	}
	if err := h.do(ctx, http.MethodGet, "/votes/"+url.PathEscape(workID), nil, &out); err != nil {
		return VoteState{}, err
	}
	return VoteState{HasVoted: out.IsVoted, VoteCount: out.VoteCount}, nil
}

func (h *HTTPToggler) do(ctx context.Context, method, path string, hdr http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, h.BaseURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range hdr {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var body response.ErrorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, &body)
		return &ServerError{
			Status:     resp.StatusCode,
			Code:       body.Error,
			Message:    body.Message,
			RetryAfter: time.Duration(body.RetryAfter) * time.Second,
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
