package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/whttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

// AddressLookup resolves a postcode to the properties registered under it.
type AddressLookup interface {
	LookupAddresses(ctx context.Context, postcode string) ([]bins.Address, error)
}

// ScheduleService returns the upcoming collections for a property.
type ScheduleService interface {
	FetchSchedule(ctx context.Context, uprn string, forceRefresh bool) (bins.Schedule, error)
}

// VersionInfo describes the backend build.
type VersionInfo struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Build       string `json:"build"`
	Environment string `json:"environment"`
}

// OfflineVersion is reported when the backend cannot be reached.
var OfflineVersion = VersionInfo{Service: "Bindicator API", Version: "unknown", Build: "-", Environment: "offline"}

// Client talks to the Bindicator backend.
type Client struct {
	base   string
	http   *retryablehttp.Client
	lookup singleflight.Group
}

func NewClient(base string, opts whttp.ClientOptions) (*Client, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, errors.New("api base URL is empty")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid api base URL: %w", err)
	}
	hc, err := whttp.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &Client{base: base, http: hc}, nil
}

func (c *Client) BaseURL() string { return c.base }

func (c *Client) get(ctx context.Context, path string) (*whttp.WHTTPRes, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{Method: "GET", URL: c.base + path}, c.http)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errorFromResponse(res)
	}
	return res, nil
}

// LookupAddresses queries the address service. Concurrent lookups of the same
// postcode share one request; a caller whose ctx ends stops waiting for it.
func (c *Client) LookupAddresses(ctx context.Context, postcode string) ([]bins.Address, error) {
	ch := c.lookup.DoChan(postcode, func() (interface{}, error) {
		res, err := c.get(context.WithoutCancel(ctx), "/api/addresses?postcode="+url.QueryEscape(postcode))
		if err != nil {
			return nil, err
		}
		return bins.DecodeAddresses(res.Body)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		addrs := r.Val.([]bins.Address)
		// Shared results must not alias between callers.
		return append([]bins.Address(nil), addrs...), nil
	}
}

func (c *Client) FetchSchedule(ctx context.Context, uprn string, forceRefresh bool) (bins.Schedule, error) {
	path := "/api/bins?uprn=" + url.QueryEscape(uprn)
	if forceRefresh {
		path += "&refresh=true"
	}
	res, err := c.get(ctx, path)
	if err != nil {
		return bins.Schedule{}, err
	}
	s, err := bins.DecodeSchedule(res.Body)
	if err != nil {
		return bins.Schedule{}, fmt.Errorf("decoding schedule for %s: %w", uprn, err)
	}
	return s, nil
}

// Version reports the backend version, or OfflineVersion when unreachable.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	res, err := c.get(ctx, "/api/version")
	if err != nil {
		return OfflineVersion, err
	}
	body := gjson.ParseBytes(res.Body)
	v := VersionInfo{
		Service:     body.Get("service").String(),
		Version:     body.Get("version").String(),
		Build:       body.Get("build").String(),
		Environment: body.Get("environment").String(),
	}
	if v.Version == "" {
		return OfflineVersion, errors.New("version missing from response")
	}
	return v, nil
}
