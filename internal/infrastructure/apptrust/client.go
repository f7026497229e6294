// Package apptrust implements the version registry client over the AppTrust
// HTTP API. Responses are decoded into typed structures at this boundary so
// untyped JSON never reaches the decision logic.
package apptrust

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/bookverse/apptrust-rollback/internal/domain/registry"
	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
)

// DefaultTimeout bounds each registry request when none is configured.
const DefaultTimeout = 30 * time.Second

// DefaultListLimit is the page size used when listing versions. Large enough
// to cover practical release history in one call.
const DefaultListLimit = 1000

// Options configures the registry client.
type Options struct {
	// BaseURL is the registry API base URL without a trailing slash,
	// e.g. https://host.example/apptrust/api/v1.
	BaseURL string
	// Tokens resolves the bearer credential per request.
	Tokens TokenProvider
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// ListLimit is the page size for version listings. Zero means
	// DefaultListLimit.
	ListLimit int
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the AppTrust registry API. Calls are synchronous, bounded
// by a per-request timeout, and never retried: a failed call is escalated
// immediately.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	listLimit  int
	httpClient *http.Client
	bound      timeout.Timeout[[]byte]
}

// NewClient creates a registry client.
func NewClient(opts Options) *Client {
	reqTimeout := opts.Timeout
	if reqTimeout == 0 {
		reqTimeout = DefaultTimeout
	}
	limit := opts.ListLimit
	if limit == 0 {
		limit = DefaultListLimit
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		tokens:     opts.Tokens,
		listLimit:  limit,
		httpClient: httpClient,
		bound: timeout.New[[]byte](timeout.Config{
			DefaultTimeout: reqTimeout,
		}),
	}
}

// versionJSON mirrors one element of the registry's version listing. Tag is
// a pointer because the API reports null for untagged versions.
type versionJSON struct {
	Version       string  `json:"version"`
	Tag           *string `json:"tag"`
	ReleaseStatus string  `json:"release_status"`
}

// listResponse mirrors the registry's version listing envelope.
type listResponse struct {
	Versions []versionJSON `json:"versions"`
}

// ListVersions fetches the application's versions ordered by creation time
// descending. Entries are normalized (null tag to empty string, status
// upper-cased) but not filtered; eligibility is the selection layer's job.
func (c *Client) ListVersions(ctx context.Context, appKey string) ([]registry.VersionEntry, error) {
	const op = "apptrust.ListVersions"

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.listLimit))
	query.Set("order_by", "created")
	query.Set("order_asc", "false")

	path := fmt.Sprintf("/applications/%s/versions", url.PathEscape(appKey))
	raw, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, apterrors.RegistryWrap(err, op, "failed to list versions").
			WithDetail("app", appKey)
	}

	var resp listResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apterrors.RegistryWrap(err, op, "failed to decode version listing").
			WithDetail("app", appKey)
	}

	entries := make([]registry.VersionEntry, 0, len(resp.Versions))
	for _, v := range resp.Versions {
		tag := ""
		if v.Tag != nil {
			tag = *v.Tag
		}
		entries = append(entries, registry.VersionEntry{
			Version: v.Version,
			Tag:     tag,
			Status:  registry.NormalizeStatus(v.ReleaseStatus),
		})
	}
	return entries, nil
}

// versionDetailJSON mirrors the registry's single-version detail, reduced to
// the fields next-version computation needs.
type versionDetailJSON struct {
	Version string `json:"version"`
	Sources struct {
		Builds []struct {
			Number string `json:"number"`
		} `json:"builds"`
	} `json:"sources"`
}

// GetVersion fetches the detailed view of one version, including the number
// of the build it was produced from.
func (c *Client) GetVersion(ctx context.Context, appKey, version string) (registry.VersionDetail, error) {
	const op = "apptrust.GetVersion"

	path := fmt.Sprintf("/applications/%s/versions/%s",
		url.PathEscape(appKey), url.PathEscape(version))

	raw, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return registry.VersionDetail{}, apterrors.RegistryWrap(err, op, "failed to get version").
			WithDetail("app", appKey).
			WithDetail("version", version)
	}

	var resp versionDetailJSON
	if err := json.Unmarshal(raw, &resp); err != nil {
		return registry.VersionDetail{}, apterrors.RegistryWrap(err, op, "failed to decode version detail").
			WithDetail("app", appKey).
			WithDetail("version", version)
	}

	detail := registry.VersionDetail{Version: resp.Version}
	if len(resp.Sources.Builds) > 0 {
		detail.BuildNumber = resp.Sources.Builds[0].Number
	}
	return detail, nil
}

// rollbackRequest is the body of the stage rollback action.
type rollbackRequest struct {
	FromStage string `json:"from_stage"`
}

// RollbackVersion invokes the remote stage rollback action for a version.
// Only success or failure is consumed from the response.
func (c *Client) RollbackVersion(ctx context.Context, appKey, version, fromStage string) error {
	const op = "apptrust.RollbackVersion"

	path := fmt.Sprintf("/applications/%s/versions/%s/rollback",
		url.PathEscape(appKey), url.PathEscape(version))

	if _, err := c.do(ctx, http.MethodPost, path, nil, rollbackRequest{FromStage: fromStage}); err != nil {
		return apterrors.RegistryWrap(err, op, "rollback action failed").
			WithDetail("app", appKey).
			WithDetail("version", version).
			WithDetail("from_stage", fromStage)
	}
	return nil
}

// patchRequest is the body of a version patch.
type patchRequest struct {
	Tag              *string             `json:"tag,omitempty"`
	Properties       map[string][]string `json:"properties,omitempty"`
	DeleteProperties []string            `json:"delete_properties,omitempty"`
}

// PatchVersion updates a version's tag and properties.
func (c *Client) PatchVersion(ctx context.Context, appKey, version string, patch registry.TagPatch) error {
	const op = "apptrust.PatchVersion"

	path := fmt.Sprintf("/applications/%s/versions/%s",
		url.PathEscape(appKey), url.PathEscape(version))

	body := patchRequest{
		Tag:              patch.Tag,
		Properties:       patch.Properties,
		DeleteProperties: patch.DeleteProperties,
	}
	if _, err := c.do(ctx, http.MethodPatch, path, nil, body); err != nil {
		return apterrors.RegistryWrap(err, op, "patch failed").
			WithDetail("app", appKey).
			WithDetail("version", version)
	}
	return nil
}

// do performs one authenticated request inside the bounded timeout and
// returns the raw response body. Non-2xx responses become errors carrying
// the status code and a response excerpt.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	// Zero duration defers to the configured default timeout.
	return c.bound.Execute(ctx, 0, func(ctx context.Context) ([]byte, error) {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		endpoint := c.baseURL + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			reader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, apterrors.TimeoutWrap(err, "apptrust.do", "request deadline exceeded")
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			excerpt := strings.TrimSpace(string(respBody))
			if len(excerpt) > 256 {
				excerpt = excerpt[:256]
			}
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, excerpt)
		}

		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}
		return respBody, nil
	})
}
