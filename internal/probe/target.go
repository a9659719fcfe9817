package probe

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Target is the endpoint URL broken into what the request needs.
type Target struct {
	Scheme string
	Host   string // hostname without brackets or port
	Port   int
	Path   string // escaped path plus "?query" when present
}

// ParseTarget accepts absolute http and https URLs only. Missing ports default
// to 443 for https and 80 for http.
func ParseTarget(raw string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, err
	}
	if !u.IsAbs() {
		return Target{}, fmt.Errorf("url %q is not absolute", raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Target{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("url %q has no host", raw)
	}

	port := defaultPort(scheme)
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return Target{}, fmt.Errorf("invalid port %q", p)
		}
		port = n
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return Target{Scheme: scheme, Host: u.Hostname(), Port: port, Path: path}, nil
}

// URL always carries the explicit port.
func (t Target) URL() string {
	return t.Scheme + "://" + net.JoinHostPort(t.Host, strconv.Itoa(t.Port)) + t.Path
}

// HostHeader omits the port when it is the scheme default.
func (t Target) HostHeader() string {
	if t.Port == defaultPort(t.Scheme) {
		if strings.Contains(t.Host, ":") {
			return "[" + t.Host + "]"
		}
		return t.Host
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}
