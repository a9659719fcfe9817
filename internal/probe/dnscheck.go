package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DNS classes reported by DNSChecker.
const (
	DNSResolves       = "RESOLVES"
	DNSNoARecord      = "NO_A_RECORD"
	DNSNXDomain       = "NXDOMAIN"
	DNSServfailOrTime = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName    = "INVALID_NAME"
	DNSIPLiteral      = "IP_LITERAL"
)

type DNSStatus struct {
	Domain        string
	IPs           []string
	CNAME         string
	Nameservers   []string
	Class         string
	ResolverError string
}

// DNSChecker asks one resolver directly so the classification is not hidden
// behind the OS resolver's caching and search domains.
type DNSChecker struct {
	Server  string // host:port
	Timeout time.Duration
	client  *dns.Client
}

// NewDNSChecker uses server when given, else the first nameserver in
// /etc/resolv.conf, else 127.0.0.1:53.
func NewDNSChecker(server string) *DNSChecker {
	if server == "" {
		server = "127.0.0.1:53"
		if cc, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(cc.Servers) > 0 {
			server = net.JoinHostPort(cc.Servers[0], cc.Port)
		}
	}
	timeout := 3 * time.Second
	return &DNSChecker{
		Server:  server,
		Timeout: timeout,
		client:  &dns.Client{Timeout: timeout},
	}
}

func (d *DNSChecker) Check(ctx context.Context, host string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(host)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if net.ParseIP(s.Domain) != nil {
		s.Class = DNSIPLiteral
		s.IPs = []string{s.Domain}
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	nxdomain := false
	for _, qt := range []uint16{dns.TypeA, dns.TypeAAAA} {
		in, err := d.query(ctx, s.Domain, qt)
		if err != nil {
			s.ResolverError = err.Error()
			continue
		}
		switch in.Rcode {
		case dns.RcodeNameError:
			nxdomain = true
		case dns.RcodeSuccess:
		default:
			s.ResolverError = dns.RcodeToString[in.Rcode]
		}
		for _, rr := range in.Answer {
			switch v := rr.(type) {
			case *dns.A:
				s.IPs = append(s.IPs, v.A.String())
			case *dns.AAAA:
				s.IPs = append(s.IPs, v.AAAA.String())
			case *dns.CNAME:
				s.CNAME = strings.TrimSuffix(v.Target, ".")
			}
		}
	}

	if in, err := d.query(ctx, s.Domain, dns.TypeNS); err == nil {
		for _, rr := range in.Answer {
			if ns, ok := rr.(*dns.NS); ok {
				s.Nameservers = append(s.Nameservers, strings.TrimSuffix(ns.Ns, "."))
			}
		}
	}

	switch {
	case len(s.IPs) > 0:
		s.Class = DNSResolves
	case len(s.Nameservers) > 0:
		s.Class = DNSNoARecord
	case nxdomain:
		s.Class = DNSNXDomain
	case s.ResolverError != "":
		s.Class = DNSServfailOrTime
	default:
		s.Class = DNSNoARecord
	}
	return s
}

func (d *DNSChecker) query(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true
	in, _, err := d.client.ExchangeContext(ctx, m, d.Server)
	return in, err
}
