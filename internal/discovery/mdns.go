// Package discovery resolves a device's address over multicast DNS.
//
// Devices announce the ESPHome-compatible service type and answer for
// <name>.local. The resolver sends one-shot queries from an ephemeral port
// on every multicast-capable interface and collects the unicast replies for
// a short window.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
)

// ServiceType is the service devices advertise.
const ServiceType = "_esphomelib._tcp.local."

// DefaultWindow is how long replies are collected.
const DefaultWindow = time.Second

const mdnsPort = 5353

var (
	group4 = &net.UDPAddr{IP: net.IPv4(224, 0, 0, 251), Port: mdnsPort}
	group6 = net.ParseIP("ff02::fb")
)

// DeviceNotFoundError is returned when no reply named the device in time.
type DeviceNotFoundError struct {
	Host string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("cannot find address of %s for network upload", e.Host)
}

func (e *DeviceNotFoundError) Is(target error) bool            { return target == ErrDeviceNotFound }
func (e *DeviceNotFoundError) Category() ferrors.ErrorCategory { return ferrors.CategoryNetwork }
func (e *DeviceNotFoundError) Hint() string {
	return "check the device is powered and on the network, or pass its address with --device"
}

// ErrDeviceNotFound matches DeviceNotFoundError.
var ErrDeviceNotFound = errors.New("device not found")

// Resolver finds the address of a named device.
type Resolver interface {
	Resolve(ctx context.Context, name string) (netip.Addr, error)
}

// MDNSResolver implements Resolver with multicast DNS.
type MDNSResolver struct {
	// Window bounds reply collection; DefaultWindow when zero.
	Window time.Duration
	// Interfaces restricts queries to the named interfaces.
	Interfaces []string
	Logger     *slog.Logger
}

// Hostname returns the fully qualified mDNS name for a device.
func Hostname(name string) string {
	name = strings.TrimSuffix(name, ".")
	if !strings.HasSuffix(strings.ToLower(name), ".local") {
		name += ".local"
	}
	return name + "."
}

// Resolve returns the first IPv6 address announced for name, or an IPv4
// address when none was seen by the end of the window.
func (r *MDNSResolver) Resolve(ctx context.Context, name string) (netip.Addr, error) {
	host := Hostname(name)
	logger := r.logger().With(logfields.Device(host))

	query, err := BuildQuery(host)
	if err != nil {
		return netip.Addr{}, ferrors.WrapError(err, ferrors.CategoryInternal, "build mdns query").Build()
	}
	ifaces, err := r.interfaces()
	if err != nil {
		return netip.Addr{}, ferrors.WrapError(err, ferrors.CategoryNetwork, "list network interfaces").Build()
	}

	window := r.Window
	if window <= 0 {
		window = DefaultWindow
	}
	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()
	deadline, _ := ctx.Deadline()

	replies := make(chan reply, 32)
	var wg sync.WaitGroup
	var conns []net.PacketConn

	if c, err := r.open4(query, ifaces); err == nil {
		conns = append(conns, c)
	} else {
		logger.Debug("IPv4 mDNS unavailable", logfields.Error(err))
	}
	if c, err := r.open6(query, ifaces); err == nil {
		conns = append(conns, c)
	} else {
		logger.Debug("IPv6 mDNS unavailable", logfields.Error(err))
	}
	if len(conns) == 0 {
		return netip.Addr{}, ferrors.NetworkError("no multicast-capable socket could be opened").Build()
	}
	for _, c := range conns {
		_ = c.SetReadDeadline(deadline)
		wg.Add(1)
		go func(c net.PacketConn) {
			defer wg.Done()
			readReplies(ctx, c, replies)
		}(c)
	}
	defer func() {
		cancel()
		for _, c := range conns {
			_ = c.Close()
		}
		wg.Wait()
	}()

	var fallback netip.Addr
	for {
		select {
		case rep := <-replies:
			v6, v4 := ParseAnswers(rep.msg, host)
			if len(v6) > 0 {
				addr := v6[0]
				if addr.IsLinkLocalUnicast() && rep.zone != "" {
					addr = addr.WithZone(rep.zone)
				}
				logger.Debug("Resolved device", logfields.Address(addr.String()))
				return addr, nil
			}
			if len(v4) > 0 && !fallback.IsValid() {
				fallback = v4[0]
			}
		case <-ctx.Done():
			if fallback.IsValid() {
				logger.Debug("Resolved device over IPv4", logfields.Address(fallback.String()))
				return fallback, nil
			}
			return netip.Addr{}, &DeviceNotFoundError{Host: host}
		}
	}
}

// reply is one received datagram and the interface zone it arrived on.
type reply struct {
	msg  []byte
	zone string
}

func readReplies(ctx context.Context, c net.PacketConn, out chan<- reply) {
	buf := make([]byte, 9000)
	for {
		n, src, err := c.ReadFrom(buf)
		if err != nil {
			return
		}
		rep := reply{msg: make([]byte, n)}
		copy(rep.msg, buf[:n])
		if ua, ok := src.(*net.UDPAddr); ok {
			rep.zone = ua.Zone
		}
		select {
		case out <- rep:
		case <-ctx.Done():
			return
		}
	}
}

func (r *MDNSResolver) open4(query []byte, ifaces []net.Interface) (net.PacketConn, error) {
	c, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return nil, err
	}
	p := ipv4.NewPacketConn(c)
	_ = p.SetMulticastTTL(255)
	sent := false
	for i := range ifaces {
		if err := p.SetMulticastInterface(&ifaces[i]); err != nil {
			continue
		}
		if _, err := p.WriteTo(query, nil, group4); err == nil {
			sent = true
		}
	}
	if !sent {
		_ = c.Close()
		return nil, errors.New("ipv4 query not sent on any interface")
	}
	return c, nil
}

func (r *MDNSResolver) open6(query []byte, ifaces []net.Interface) (net.PacketConn, error) {
	c, err := net.ListenUDP("udp6", &net.UDPAddr{IP: net.IPv6unspecified})
	if err != nil {
		return nil, err
	}
	p := ipv6.NewPacketConn(c)
	_ = p.SetMulticastHopLimit(255)
	sent := false
	for _, ifi := range ifaces {
		dst := &net.UDPAddr{IP: group6, Port: mdnsPort, Zone: ifi.Name}
		if _, err := p.WriteTo(query, &ipv6.ControlMessage{IfIndex: ifi.Index}, dst); err == nil {
			sent = true
		}
	}
	if !sent {
		_ = c.Close()
		return nil, errors.New("ipv6 query not sent on any interface")
	}
	return c, nil
}

func (r *MDNSResolver) interfaces() ([]net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []net.Interface
	for _, ifi := range all {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		if len(r.Interfaces) > 0 && !slices.Contains(r.Interfaces, ifi.Name) {
			continue
		}
		out = append(out, ifi)
	}
	return out, nil
}

func (r *MDNSResolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
