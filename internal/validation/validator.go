// Package validation turns raw user input into a normalized http(s) URL
// whose hostname resolves.
package validation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/net/idna"
	"golang.org/x/sync/singleflight"
)

const (
	// MaxURLLength is the longest raw input accepted.
	MaxURLLength = 2048

	DefaultResolveTimeout = 3 * time.Second
	DefaultResolveCache   = 5 * time.Minute
)

// ErrInvalidURL covers malformed syntax, a disallowed scheme and an
// unresolvable hostname alike.
var ErrInvalidURL = errors.New("invalid url")

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Validator checks and normalizes URLs submitted for shortening.
type Validator struct {
	resolver Resolver
	timeout  time.Duration
	lookups  singleflight.Group
	resolved *cache.Cache
	logger   *zap.Logger
}

// NewValidator creates a validator. Hosts that resolved successfully are
// remembered for cacheTTL; a zero cacheTTL disables the cache.
func NewValidator(resolver Resolver, timeout, cacheTTL time.Duration, logger *zap.Logger) *Validator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}

	v := &Validator{
		resolver: resolver,
		timeout:  timeout,
		logger:   logger,
	}

	if cacheTTL > 0 {
		v.resolved = cache.New(cacheTTL, 2*cacheTTL)
	}

	return v
}

// Validate returns the normalized form of raw, or ErrInvalidURL.
func (v *Validator) Validate(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if err := ozzo.Validate(raw,
		ozzo.Required,
		ozzo.Length(1, MaxURLLength),
	); err != nil {
		return "", ErrInvalidURL
	}

	u, err := parseTolerant(raw)
	if err != nil {
		return "", err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}

	host, err := asciiHost(u.Hostname())
	if err != nil || host == "" {
		return "", ErrInvalidURL
	}

	u.Host = joinHostPort(host, u.Port())

	if err := v.resolve(ctx, host); err != nil {
		v.logger.Debug("hostname did not resolve",
			zap.String("host", host),
			zap.Error(err),
		)

		return "", ErrInvalidURL
	}

	return Normalize(u), nil
}

// parseTolerant parses raw as an absolute URL, retrying with an http://
// prefix when raw carries no scheme. http:host is read as http://host.
func parseTolerant(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		if u.Opaque == "" {
			return u, nil
		}

		// http:example.com names the host without slashes.
		if u.Scheme != "http" && u.Scheme != "https" {
			return u, nil
		}

		u, err = url.Parse(u.Scheme + "://" + raw[len(u.Scheme)+1:])
		if err != nil || u.Host == "" {
			return nil, ErrInvalidURL
		}

		return u, nil
	}

	if strings.Contains(raw, "://") {
		return nil, ErrInvalidURL
	}

	u, err = url.Parse("http://" + raw)
	if err != nil || u.Host == "" {
		return nil, ErrInvalidURL
	}

	return u, nil
}

// asciiHost lowercases host and converts internationalized names to their
// punycode form. IP literals are returned unchanged.
func asciiHost(host string) (string, error) {
	if net.ParseIP(host) != nil {
		return host, nil
	}

	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			return idna.Lookup.ToASCII(host)
		}
	}

	return strings.ToLower(host), nil
}

func joinHostPort(host, port string) string {
	if port != "" {
		return net.JoinHostPort(host, port)
	}

	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}

	return host
}

// Normalize lowercases scheme and host and drops a default port. Path,
// query and fragment are kept as given.
func Normalize(u *url.URL) string {
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)

	if port := n.Port(); (port == "80" && n.Scheme == "http") || (port == "443" && n.Scheme == "https") {
		n.Host = strings.TrimSuffix(n.Host, ":"+port)
	}

	return n.String()
}

func (v *Validator) resolve(ctx context.Context, host string) error {
	if v.resolved != nil {
		if _, ok := v.resolved.Get(host); ok {
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	// The shared lookup runs on its own deadline so one caller's cancellation
	// does not fail the others waiting on it.
	ch := v.lookups.DoChan(host, func() (interface{}, error) {
		lookupCtx, lookupCancel := context.WithTimeout(context.Background(), v.timeout)
		defer lookupCancel()

		return v.resolver.LookupHost(lookupCtx, host)
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("resolve %s: %w", host, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}

		if addrs, _ := res.Val.([]string); len(addrs) == 0 {
			return fmt.Errorf("resolve %s: no addresses", host)
		}

		if v.resolved != nil {
			v.resolved.SetDefault(host, struct{}{})
		}

		return nil
	}
}
