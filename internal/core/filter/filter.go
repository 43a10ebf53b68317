package filter

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/yndnr/kvantum-go/internal/core/socket"
)

// Namespace is the settings namespace holding filter enablement flags.
const Namespace = "socketFilters"

// Built-in filter keys.
const (
	KeyIsActive  = "isActive"
	KeyAll       = "all"
	KeyAllowList = "allowList"
	KeyLockdown  = "lockdown"
)

// Func is an admission predicate. It must not block or perform I/O and must
// be safe for concurrent use.
type Func func(sc *socket.Context) bool

// Entry is one catalog tuple.
type Entry struct {
	Key            string
	Eval           Func
	DefaultEnabled bool
}

// IsActive admits only contexts whose transport is still usable.
func IsActive(sc *socket.Context) bool {
	return sc.IsActive()
}

// AlwaysAdmit admits every context.
func AlwaysAdmit(*socket.Context) bool {
	return true
}

// Lockdown rejects every context.
func Lockdown(*socket.Context) bool {
	return false
}

// AllowList returns a filter admitting only peers whose IP falls inside one
// of cidrs. Peers without an IP address (pipes, unix sockets) are rejected.
func AllowList(cidrs []string) (Func, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, s := range cidrs {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			addr, addrErr := netip.ParseAddr(s)
			if addrErr != nil {
				return nil, fmt.Errorf("filter: invalid allow list entry %q: %w", s, err)
			}
			p = netip.PrefixFrom(addr, addr.BitLen())
		}
		prefixes = append(prefixes, p.Masked())
	}

	return func(sc *socket.Context) bool {
		ip, ok := remoteIP(sc.RemoteAddr())
		if !ok {
			return false
		}
		for _, p := range prefixes {
			if p.Contains(ip) {
				return true
			}
		}
		return false
	}, nil
}

func remoteIP(addr net.Addr) (netip.Addr, bool) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		ip, ok := netip.AddrFromSlice(a.IP)
		return ip.Unmap(), ok
	case *net.UDPAddr:
		ip, ok := netip.AddrFromSlice(a.IP)
		return ip.Unmap(), ok
	case nil:
		return netip.Addr{}, false
	default:
		ap, err := netip.ParseAddrPort(a.String())
		if err != nil {
			return netip.Addr{}, false
		}
		return ap.Addr().Unmap(), true
	}
}

// DefaultCatalog returns the built-in filters in evaluation order.
func DefaultCatalog(allowList []string) ([]Entry, error) {
	allow, err := AllowList(allowList)
	if err != nil {
		return nil, err
	}

	return []Entry{
		{Key: KeyIsActive, Eval: IsActive, DefaultEnabled: true},
		{Key: KeyAll, Eval: AlwaysAdmit, DefaultEnabled: false},
		{Key: KeyAllowList, Eval: allow, DefaultEnabled: false},
		{Key: KeyLockdown, Eval: Lockdown, DefaultEnabled: false},
	}, nil
}
