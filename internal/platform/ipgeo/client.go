// Package ipgeo resolves an IP address to a country and city through the
// ipgeolocation.io HTTP API.
package ipgeo

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/Stikerz/numan/internal/platform/apierr"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	endpointGeolocation = "/ipgeo"
	fieldsParam         = "city,country_name"
	defaultTimeout      = 5 * time.Second
)

// Location is the internal shape of a lookup result.
type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// providerResponse is the subset of the provider payload we read.
type providerResponse struct {
	City        string `json:"city"`
	CountryName string `json:"country_name"`
}

type providerError struct {
	Message string `json:"message"`
}

// Client calls the geolocation provider. A lookup is a single round trip;
// failures are not retried.
type Client struct {
	http   *resty.Client
	apiKey string
	logger zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   client,
		apiKey: cfg.APIKey,
		logger: logger.With().Str("component", "ipgeo").Logger(),
	}
}

// ValidateIP checks that value is a literal IPv4 or IPv6 address.
func ValidateIP(value string) (netip.Addr, error) {
	if value == "" {
		return netip.Addr{}, apierr.Validation("query parameter 'ip' was not set. Please pass ip address as a query parameter")
	}
	addr, err := netip.ParseAddr(value)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, apierr.Validationf("%s does not appear to be an IPv4 or IPv6 address", value)
	}
	return addr, nil
}

// Lookup asks the provider for the city and country of ip. A non-200 reply
// or a reply missing either field is an upstream error.
func (c *Client) Lookup(ctx context.Context, ip netip.Addr) (*Location, error) {
	var payload providerResponse
	var perr providerError

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apiKey": c.apiKey,
			"ip":     ip.String(),
			"fields": fieldsParam,
		}).
		SetResult(&payload).
		SetError(&perr).
		Get(endpointGeolocation)
	if err != nil {
		c.logger.Warn().Err(err).Msg("geolocation request failed")
		return nil, apierr.Upstream("geolocation provider unavailable", err)
	}

	if resp.StatusCode() != http.StatusOK {
		reason := perr.Message
		if reason == "" {
			reason = http.StatusText(resp.StatusCode())
		}
		c.logger.Warn().
			Int("status_code", resp.StatusCode()).
			Str("reason", reason).
			Msg("geolocation provider returned an error")
		return nil, apierr.Upstream(
			fmt.Sprintf("geolocation lookup error, error code: %d error message: %s", resp.StatusCode(), reason),
			nil,
		)
	}

	if payload.City == "" || payload.CountryName == "" {
		c.logger.Warn().Str("body", truncate(resp.String(), 256)).Msg("geolocation response missing fields")
		return nil, apierr.Upstream("geolocation provider response is missing city or country_name", nil)
	}

	return &Location{Country: payload.CountryName, City: payload.City}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
