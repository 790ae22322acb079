package digitalocean

import (
	"context"
	"fmt"

	"github.com/digitalocean/godo"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

// DNS manages A records of hostnames inside one DigitalOcean domain.
type DNS struct {
	client *godo.Client
	zone   string
	ttl    int
	logger logger.Interface
}

var _ provider.DNSProvider = (*DNS)(nil)

func NewDNS(client *godo.Client, zone string, ttl int, logger logger.Interface) *DNS {
	return &DNS{client: client, zone: zone, ttl: ttl, logger: logger}
}

func (d *DNS) fqdn(hostname string) string {
	return hostname + "." + d.zone
}

// CreateARecord points hostname at ip, updating an existing record in place.
func (d *DNS) CreateARecord(ctx context.Context, hostname, ip string) error {
	req := &godo.DomainRecordEditRequest{
		Type: "A",
		Name: hostname,
		Data: ip,
		TTL:  d.ttl,
	}

	existing, err := d.records(ctx, hostname)
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		if _, _, err := d.client.Domains.EditRecord(ctx, d.zone, existing[0].ID, req); err != nil {
			return fmt.Errorf("failed to update A record %s: %w", d.fqdn(hostname), err)
		}
	} else if _, _, err := d.client.Domains.CreateRecord(ctx, d.zone, req); err != nil {
		return fmt.Errorf("failed to create A record %s: %w", d.fqdn(hostname), err)
	}

	d.logger.Infow("dns record set", "hostname", d.fqdn(hostname), "ip", ip)
	return nil
}

func (d *DNS) DeleteRecord(ctx context.Context, hostname string) error {
	existing, err := d.records(ctx, hostname)
	if err != nil {
		return err
	}

	for _, rec := range existing {
		if _, err := d.client.Domains.DeleteRecord(ctx, d.zone, rec.ID); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete A record %s: %w", d.fqdn(hostname), err)
		}
	}
	return nil
}

func (d *DNS) records(ctx context.Context, hostname string) ([]godo.DomainRecord, error) {
	records, _, err := d.client.Domains.RecordsByTypeAndName(ctx, d.zone, "A", d.fqdn(hostname), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to look up A record %s: %w", d.fqdn(hostname), err)
	}
	return records, nil
}
