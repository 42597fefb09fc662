package cli

import (
	stdcontext "context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Paintersrp/cryo/internal/api"
	httpapi "github.com/Paintersrp/cryo/internal/api/http"
)

const clientTimeout = 10 * time.Second

// apiClient talks to a running daemon's control API. Commands other than
// `up` are thin clients over it.
type apiClient struct {
	base   string
	client *http.Client
}

func newAPIClient(addr string) *apiClient {
	if addr == "" {
		addr = httpapi.DefaultAddr()
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &apiClient{
		base:   strings.TrimRight(addr, "/"),
		client: &http.Client{Timeout: clientTimeout},
	}
}

func (c *apiClient) Status(ctx stdcontext.Context) (*api.StatusReport, error) {
	var report api.StatusReport
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *apiClient) Freeze(ctx stdcontext.Context, group string) (*api.FreezeResult, error) {
	return c.freezeRequest(ctx, "/api/v1/freeze/", group)
}

func (c *apiClient) Thaw(ctx stdcontext.Context, group string) (*api.FreezeResult, error) {
	return c.freezeRequest(ctx, "/api/v1/thaw/", group)
}

func (c *apiClient) freezeRequest(ctx stdcontext.Context, prefix, group string) (*api.FreezeResult, error) {
	var body struct {
		Result *api.FreezeResult `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, prefix+group, &body); err != nil {
		return nil, err
	}
	return body.Result, nil
}

func (c *apiClient) do(ctx stdcontext.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return fmt.Errorf("%s", body.Message)
	}
	return fmt.Errorf("daemon returned status %d", resp.StatusCode)
}
