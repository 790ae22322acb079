package digitalocean

import (
	"context"
	"fmt"
	"slices"

	"github.com/digitalocean/godo"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
)

const maxAlternatives = 3

// AvailabilityChecker answers capacity questions from the size and region
// catalogues.
type AvailabilityChecker struct {
	client *godo.Client
}

var _ provider.AvailabilityChecker = (*AvailabilityChecker)(nil)

func NewAvailabilityChecker(client *godo.Client) *AvailabilityChecker {
	return &AvailabilityChecker{client: client}
}

func (c *AvailabilityChecker) CheckAvailability(ctx context.Context, providerName, region, resourceType string) (*provider.Availability, error) {
	if providerName != ProviderName {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnknownProvider, providerName)
	}

	size, err := c.findSize(ctx, resourceType)
	if err != nil {
		return nil, err
	}
	if size == nil {
		return &provider.Availability{
			IsAvailable: false,
			Reason:      fmt.Sprintf("server type %s does not exist", resourceType),
		}, nil
	}

	regions, err := c.availableRegions(ctx)
	if err != nil {
		return nil, err
	}

	var offered []string
	for _, slug := range size.Regions {
		if regions[slug] {
			offered = append(offered, slug)
		}
	}
	slices.Sort(offered)

	if size.Available && slices.Contains(offered, region) {
		return &provider.Availability{IsAvailable: true}, nil
	}

	alternatives := slices.DeleteFunc(offered, func(slug string) bool { return slug == region })
	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}

	reason := fmt.Sprintf("server type %s is not available in %s", resourceType, region)
	if !size.Available {
		reason = fmt.Sprintf("server type %s is sold out", resourceType)
		alternatives = nil
	}

	return &provider.Availability{
		IsAvailable:  false,
		Reason:       reason,
		Alternatives: alternatives,
	}, nil
}

func (c *AvailabilityChecker) findSize(ctx context.Context, slug string) (*godo.Size, error) {
	opt := &godo.ListOptions{Page: 1, PerPage: 200}
	for {
		sizes, resp, err := c.client.Sizes.List(ctx, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to list sizes: %w", err)
		}
		for i := range sizes {
			if sizes[i].Slug == slug {
				return &sizes[i], nil
			}
		}
		if isLastPage(resp) {
			return nil, nil
		}
		opt.Page++
	}
}

func (c *AvailabilityChecker) availableRegions(ctx context.Context) (map[string]bool, error) {
	available := make(map[string]bool)

	opt := &godo.ListOptions{Page: 1, PerPage: 200}
	for {
		regions, resp, err := c.client.Regions.List(ctx, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to list regions: %w", err)
		}
		for _, r := range regions {
			if r.Available {
				available[r.Slug] = true
			}
		}
		if isLastPage(resp) {
			return available, nil
		}
		opt.Page++
	}
}
