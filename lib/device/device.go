// Package device implements the web-side wire client for Avalon miners:
// fetching the auth digest and board DNA needed for password recovery, and
// authenticating a recovered password against the web UI.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/avalontools/avalonctl/lib/auth"
	"github.com/avalontools/avalonctl/lib/cgminer"
)

// Wire client errors.
var (
	ErrNoAuth = errors.New("could not parse auth from device")
)

const httpTimeout = 5 * time.Second

// Some firmware builds pad the JSONP bodies with spaces, so both patterns
// tolerate whitespace around the separators.
var (
	authRe  = regexp.MustCompile(`"auth"\s*:\s*"([^"]+)"`)
	loginRe = regexp.MustCompile(`"auth"\s*:\s*"([^"]+)"\s*,\s*"code"\s*:\s*"([^"]+)"`)
)

// Target is the immutable recovery input fetched from a device: the auth
// digest the firmware reports and the board DNA it was derived with.
type Target struct {
	Auth string
	DNA  string
}

/// Client talks to one device over both channels: HTTP for the web CGI
// endpoints and the CGMiner API for everything else.
type Client struct {
	Host string
	API  *cgminer.Client
	HTTP *http.Client
}

// NewClient builds a device client for a host.
func NewClient(host string, apiPort int, timeout time.Duration) *Client {
	return &Client{
		Host: host,
		API:  cgminer.NewClient(host, apiPort, timeout),
		HTTP: &http.Client{Timeout: httpTimeout},
	}
}

// FetchTarget obtains the auth digest from get_auth.cgi and the DNA from the
// CGMiner stats. Both are required before a recovery search can start.
func (c *Client) FetchTarget(ctx context.Context) (Target, error) {
	body, err := c.getCGI(ctx, "get_auth.cgi")
	if err != nil {
		return Target{}, fmt.Errorf("fetching auth from %s: %w", c.Host, err)
	}

	m := authRe.FindStringSubmatch(string(body))
	if m == nil {
		return Target{}, fmt.Errorf("%w %s", ErrNoAuth, c.Host)
	}

	dna, err := c.API.DNA(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("fetching DNA from %s: %w", c.Host, err)
	}

	return Target{Auth: m[1], DNA: dna}, nil
}

// WebAuth authenticates a password against the device's web UI and returns
// the session cookie. The qr_auth ascset primes the session server-side;
// is_login.cgi then hands back the live cookie parts. When the CGI probe
// fails, the locally derived cookie is returned, which the firmware accepts
// equally.
func (c *Client) WebAuth(ctx context.Context, password string) (auth.Credentials, string, error) {
	dna, err := c.API.DNA(ctx)
	if err != nil {
		return auth.Credentials{}, "", fmt.Errorf("fetching DNA from %s: %w", c.Host, err)
	}

	creds := auth.DeriveCredentials(password, dna)

	if _, err := c.API.AscSet(ctx, fmt.Sprintf("0,qr_auth,%s,%s", creds.Auth, creds.Verify)); err != nil {
		return creds, "", fmt.Errorf("sending qr_auth to %s: %w", c.Host, err)
	}

	body, err := c.getCGI(ctx, "is_login.cgi")
	if err == nil {
		if m := loginRe.FindStringSubmatch(string(body)); m != nil {
			return creds, m[1] + m[2], nil
		}
	}

	return creds, creds.Cookie, nil
}

// getCGI fetches a web CGI endpoint and returns the response body.
func (c *Client) getCGI(ctx context.Context, endpoint string) ([]byte, error) {
	url := fmt.Sprintf("http://%s/%s", c.Host, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // Response body is read-only

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
