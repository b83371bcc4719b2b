package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service type and domain.
const (
	ServiceType = "_dissect._tcp"
	Domain      = "local."
)

// TXT record keys.
const (
	TXTKeyVersion     = "ver"
	TXTKeyFingerprint = "fp"
	TXTKeyProtocols   = "np"
	TXTKeyAPI         = "api"
)

// Defaults.
const (
	DefaultAPIPrefix = "/api/v1"
	DefaultTTL       = 120 * time.Second
	BrowseTimeout    = 3 * time.Second

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrInvalidPort         = errors.New("invalid port")
)

// ServiceInfo is what a server advertises about itself.
type ServiceInfo struct {
	// Instance is the DNS-SD instance name.
	Instance string

	// Port is the TCP port of the HTTP API.
	Port uint16

	Version     string
	Fingerprint string
	Protocols   int

	// APIPrefix is the path prefix of the API routes.
	APIPrefix string
}

// Validate checks the fields required for advertising.
func (i *ServiceInfo) Validate() error {
	if err := ValidateInstanceName(i.Instance); err != nil {
		return err
	}
	if i.Port == 0 {
		return ErrInvalidPort
	}
	if i.Fingerprint == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyFingerprint)
	}
	return nil
}

// Service is a server found while browsing.
type Service struct {
	ServiceInfo

	// Host is the advertised host name.
	Host string

	// Addresses holds every IPv4 and IPv6 address seen for the instance.
	Addresses []string
}

// BaseURL returns the API base URL of the service using its first address.
func (s *Service) BaseURL() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	prefix := s.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(int(s.Port))) + prefix
}
