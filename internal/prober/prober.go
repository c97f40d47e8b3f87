// Package prober executes single health checks against SOCKS5 proxy
// endpoints. A probe issues one GET to the configured echo URL routed
// through the endpoint and reports a structured outcome; every failure
// mode (parse, dial, timeout, bad status) collapses into a failed outcome
// rather than an error.
package prober

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/techroy23/Socksy-Dashboard/internal/proxylist"
	"github.com/techroy23/Socksy-Dashboard/internal/stats"
)

// Echo responses are one IP address; anything past this is garbage.
const maxBodyBytes = 4096

type Prober struct {
	testURL string
	timeout time.Duration
}

// New returns a Prober that fetches testURL through each probed endpoint,
// bounding every probe by timeout.
func New(testURL string, timeout time.Duration) *Prober {
	return &Prober{
		testURL: testURL,
		timeout: timeout,
	}
}

// Probe health-checks one endpoint. Safe for concurrent use; each call
// builds its own client so probes share no mutable state.
func (p *Prober) Probe(ctx context.Context, endpoint string) stats.Outcome {
	out := stats.Outcome{Address: endpoint}

	ep, ok := proxylist.Parse(endpoint)
	if !ok {
		return out
	}

	var auth *proxy.Auth
	if ep.HasAuth() {
		auth = &proxy.Auth{User: ep.Username, Password: ep.Password}
	}

	dialer, err := proxy.SOCKS5("tcp", ep.HostPort(), auth, &net.Dialer{Timeout: p.timeout})
	if err != nil {
		return out
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   p.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.testURL, nil)
	if err != nil {
		return out
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return out
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	if err != nil || resp.StatusCode != http.StatusOK {
		return out
	}

	out.Success = true
	out.IP = strings.TrimSpace(string(body))
	out.RTTMs = float64(elapsed.Nanoseconds()) / 1e6
	return out
}
