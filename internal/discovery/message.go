package discovery

import (
	"net/netip"
	"strings"

	"golang.org/x/net/dns/dnsmessage"
)

// BuildQuery encodes a query for the service browse and the device's
// address records.
func BuildQuery(host string) ([]byte, error) {
	service, err := dnsmessage.NewName(ServiceType)
	if err != nil {
		return nil, err
	}
	name, err := dnsmessage.NewName(host)
	if err != nil {
		return nil, err
	}

	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{})
	b.EnableCompression()
	if err := b.StartQuestions(); err != nil {
		return nil, err
	}
	for _, q := range []dnsmessage.Question{
		{Name: service, Type: dnsmessage.TypePTR, Class: dnsmessage.ClassINET},
		{Name: name, Type: dnsmessage.TypeAAAA, Class: dnsmessage.ClassINET},
		{Name: name, Type: dnsmessage.TypeA, Class: dnsmessage.ClassINET},
	} {
		if err := b.Question(q); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// ParseAnswers extracts the AAAA and A records for host from the answer
// and additional sections of a reply. Malformed messages yield nothing.
func ParseAnswers(msg []byte, host string) (v6, v4 []netip.Addr) {
	var p dnsmessage.Parser
	h, err := p.Start(msg)
	if err != nil || !h.Response {
		return nil, nil
	}
	if err := p.SkipAllQuestions(); err != nil {
		return nil, nil
	}

	collect := func(next func() (dnsmessage.ResourceHeader, error), skip func() error) bool {
		for {
			rh, err := next()
			if err == dnsmessage.ErrSectionDone {
				return true
			}
			if err != nil {
				return false
			}
			if !strings.EqualFold(rh.Name.String(), host) {
				if skip() != nil {
					return false
				}
				continue
			}
			switch rh.Type {
			case dnsmessage.TypeAAAA:
				r, err := p.AAAAResource()
				if err != nil {
					return false
				}
				v6 = append(v6, netip.AddrFrom16(r.AAAA))
			case dnsmessage.TypeA:
				r, err := p.AResource()
				if err != nil {
					return false
				}
				v4 = append(v4, netip.AddrFrom4(r.A))
			default:
				if skip() != nil {
					return false
				}
			}
		}
	}

	if !collect(p.AnswerHeader, p.SkipAnswer) {
		return v6, v4
	}
	if err := p.SkipAllAuthorities(); err != nil {
		return v6, v4
	}
	collect(p.AdditionalHeader, p.SkipAdditional)
	return v6, v4
}
