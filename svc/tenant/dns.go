package tenant

import (
	"context"
	"errors"
	"net"
	"strings"
)

// TXTResolver looks up DNS TXT records. *net.Resolver satisfies it.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

const ownershipRecordPrefix = "chatblast-checkowner="

// OwnershipRecord returns the TXT record that proves control of the domain
// of tenant id.
func OwnershipRecord(id string) string {
	return ownershipRecordPrefix + id
}

func hasOwnershipRecord(ctx context.Context, r TXTResolver, domain, id string) (bool, error) {
	if host, _, err := net.SplitHostPort(domain); err == nil {
		domain = host
	}

	records, err := r.LookupTXT(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, err
	}

	want := OwnershipRecord(id)
	for _, rec := range records {
		if strings.TrimSpace(rec) == want {
			return true, nil
		}
	}
	return false, nil
}
