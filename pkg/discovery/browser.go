package discovery

import (
	"context"
	"net"
	"sort"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures service browsing.
type BrowserConfig struct {
	// Timeout bounds Discover. Zero uses BrowseTimeout.
	Timeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// Browser finds API servers on the local network.
type Browser struct {
	config BrowserConfig
}

// NewBrowser creates a new mDNS browser.
func NewBrowser(config BrowserConfig) *Browser {
	if config.Timeout == 0 {
		config.Timeout = BrowseTimeout
	}
	return &Browser{config: config}
}

func (b *Browser) options() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		if iface, err := net.InterfaceByName(b.config.Interface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// Browse streams services as they are found. Addresses of an instance seen
// on several interfaces are merged; an instance is emitted again whenever it
// gains an address. Every emitted value is a snapshot. The channel is closed
// when ctx is done.
func (b *Browser) Browse(ctx context.Context) (<-chan *Service, error) {
	out := make(chan *Service)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go aggregate(ctx, entries, removed, out)
	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, b.options()...)
	}()
	return out, nil
}

// Discover browses for the configured timeout and returns the services that
// are still present, sorted by instance name.
func (b *Browser) Discover(ctx context.Context) ([]*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	found, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]*Service)
	for svc := range found {
		latest[svc.Instance] = svc
	}
	out := make([]*Service, 0, len(latest))
	for _, svc := range latest {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out, nil
}

// aggregate turns raw entries into services and emits snapshots.
func aggregate(ctx context.Context, entries, removed <-chan *zeroconf.ServiceEntry, out chan<- *Service) {
	defer close(out)

	services := make(map[string]*Service)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			svc := entryToService(entry)
			if svc == nil {
				continue
			}
			if existing, found := services[svc.Instance]; found {
				before := len(existing.Addresses)
				existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
				if len(existing.Addresses) == before {
					continue
				}
				svc = existing
			} else {
				services[svc.Instance] = svc
			}
			select {
			case out <- svc.snapshot():
			case <-ctx.Done():
				return
			}

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			if existing, found := services[entry.Instance]; found {
				existing.Addresses = removeAddresses(existing.Addresses, entry)
				if len(existing.Addresses) == 0 {
					delete(services, entry.Instance)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// entryToService converts a zeroconf entry. Entries with malformed TXT data
// are dropped.
func entryToService(entry *zeroconf.ServiceEntry) *Service {
	info, err := DecodeTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil
	}
	info.Instance = entry.Instance
	info.Port = uint16(entry.Port)

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return &Service{ServiceInfo: *info, Host: entry.HostName, Addresses: addrs}
}

func (s *Service) snapshot() *Service {
	cp := *s
	cp.Addresses = append([]string(nil), s.Addresses...)
	return &cp
}

func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	drop := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		drop[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		drop[ip.String()] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !drop[addr] {
			result = append(result, addr)
		}
	}
	return result
}
