package fetch

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nao1215/tornago"
)

// ErrInvalidProxyAddress is returned when a proxy address is not "host:port".
var ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

// NewProxyFetcher creates a Fetcher whose requests go through the SOCKS5
// proxy at proxyAddr. The proxy is not contacted until the first request.
// Close the Fetcher to release the proxy client.
func NewProxyFetcher(proxyAddr string, timeout time.Duration, opts ...Option) (*Fetcher, error) {
	if !isValidProxyAddress(proxyAddr) {
		return nil, ErrInvalidProxyAddress
	}

	cfg, err := tornago.NewClientConfig(
		tornago.WithClientSocksAddr(proxyAddr),
		tornago.WithClientRequestTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy client config: %w", err)
	}
	client, err := tornago.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy client: %w", err)
	}

	f := NewFetcher(timeout, append([]Option{WithHTTPClient(client.HTTP())}, opts...)...)
	f.closer = client
	return f, nil
}

// isValidProxyAddress checks for a non-empty host and a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}
