package app

import (
	"net"
	"net/http"
	"time"
)

// SharedClientTimeout bounds search and LLM calls.
const SharedClientTimeout = 60 * time.Second

// newSharedHTTPClient returns the client used for the search API and the LLM
// endpoint. Runs are sequential so the idle pool stays small.
func newSharedHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   SharedClientTimeout,
	}
}
