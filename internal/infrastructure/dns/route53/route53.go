// Package route53 manages server A records in an Amazon Route 53 hosted zone.
package route53

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/shared/config"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

const defaultTTL = 300

// API is the subset of the Route 53 client used here.
type API interface {
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
	ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
}

type DNS struct {
	api          API
	hostedZoneID string
	zone         string
	ttl          int64
	logger       logger.Interface
}

var _ provider.DNSProvider = (*DNS)(nil)

// NewFromConfig builds a Route 53 client from the default AWS credential chain.
func NewFromConfig(ctx context.Context, cfg config.DNSConfig, logger logger.Interface) (*DNS, error) {
	if cfg.HostedZoneID == "" {
		return nil, fmt.Errorf("route53 hosted zone ID is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return New(route53.NewFromConfig(awsCfg), cfg.HostedZoneID, cfg.Zone, cfg.TTL, logger), nil
}

func New(api API, hostedZoneID, zone string, ttl int, logger logger.Interface) *DNS {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &DNS{
		api:          api,
		hostedZoneID: hostedZoneID,
		zone:         strings.TrimSuffix(zone, "."),
		ttl:          int64(ttl),
		logger:       logger,
	}
}

func (d *DNS) fqdn(hostname string) string {
	return hostname + "." + d.zone + "."
}

func (d *DNS) CreateARecord(ctx context.Context, hostname, ip string) error {
	set := &r53types.ResourceRecordSet{
		Name: aws.String(d.fqdn(hostname)),
		Type: r53types.RRTypeA,
		TTL:  aws.Int64(d.ttl),
		ResourceRecords: []r53types.ResourceRecord{
			{Value: aws.String(ip)},
		},
	}

	if err := d.change(ctx, r53types.ChangeActionUpsert, set); err != nil {
		return fmt.Errorf("failed to upsert A record %s: %w", d.fqdn(hostname), err)
	}

	d.logger.Infow("dns record set", "hostname", d.fqdn(hostname), "ip", ip)
	return nil
}

// DeleteRecord removes the A record if present. Route 53 only deletes a set
// that matches the stored values, so it is looked up first.
func (d *DNS) DeleteRecord(ctx context.Context, hostname string) error {
	name := d.fqdn(hostname)

	out, err := d.api.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(d.hostedZoneID),
		StartRecordName: aws.String(name),
		StartRecordType: r53types.RRTypeA,
		MaxItems:        aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("failed to look up A record %s: %w", name, err)
	}

	for i := range out.ResourceRecordSets {
		set := out.ResourceRecordSets[i]
		if set.Type != r53types.RRTypeA || set.Name == nil || !strings.EqualFold(*set.Name, name) {
			continue
		}
		if err := d.change(ctx, r53types.ChangeActionDelete, &set); err != nil {
			return fmt.Errorf("failed to delete A record %s: %w", name, err)
		}
		d.logger.Infow("dns record deleted", "hostname", name)
	}
	return nil
}

func (d *DNS) change(ctx context.Context, action r53types.ChangeAction, set *r53types.ResourceRecordSet) error {
	_, err := d.api.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(d.hostedZoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Changes: []r53types.Change{
				{Action: action, ResourceRecordSet: set},
			},
		},
	})
	return err
}
