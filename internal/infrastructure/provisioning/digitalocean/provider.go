package digitalocean

import (
	"context"
	"fmt"
	"strconv"

	"github.com/digitalocean/godo"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/shared/config"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

const (
	configKeyImage   = "image"
	configKeyBackups = "backups"
	dropletTag       = "cloudbilling"
)

// Provider provisions servers as droplets.
type Provider struct {
	client *godo.Client
	cfg    config.DigitalOceanConfig
	logger logger.Interface
}

var _ provider.ProvisioningProvider = (*Provider)(nil)

func NewProvider(client *godo.Client, cfg config.DigitalOceanConfig, logger logger.Interface) *Provider {
	return &Provider{client: client, cfg: cfg, logger: logger}
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) RequiresNetworkIdentity() bool {
	return true
}

func (p *Provider) Defaults() provider.Defaults {
	return provider.Defaults{
		Region:     p.cfg.DefaultRegion,
		ServerType: p.cfg.DefaultServerType,
	}
}

func (p *Provider) Provision(ctx context.Context, req provider.ProvisionRequest) (string, error) {
	createReq := p.buildCreateRequest(req)

	droplet, _, err := p.client.Droplets.Create(ctx, createReq)
	if err != nil {
		p.logger.Errorw("failed to create droplet",
			"subscription_item_id", req.SubscriptionItemID,
			"region", createReq.Region,
			"size", createReq.Size,
			"error", err,
		)
		return "", fmt.Errorf("failed to create droplet: %w", err)
	}

	reference := strconv.Itoa(droplet.ID)
	p.logger.Infow("droplet created",
		"subscription_item_id", req.SubscriptionItemID,
		"droplet_id", reference,
		"name", droplet.Name,
	)
	return reference, nil
}

func (p *Provider) buildCreateRequest(req provider.ProvisionRequest) *godo.DropletCreateRequest {
	name := req.Hostname
	if name == "" {
		name = fmt.Sprintf("item-%d", req.SubscriptionItemID)
	}

	image := p.cfg.Image
	if v, ok := req.Config[configKeyImage].(string); ok && v != "" {
		image = v
	}
	backups, _ := req.Config[configKeyBackups].(bool)

	sshKeys := make([]godo.DropletCreateSSHKey, 0, len(p.cfg.SSHKeyFingerprint))
	for _, fp := range p.cfg.SSHKeyFingerprint {
		sshKeys = append(sshKeys, godo.DropletCreateSSHKey{Fingerprint: fp})
	}

	return &godo.DropletCreateRequest{
		Name:    name,
		Region:  req.Region,
		Size:    req.ServerType,
		Image:   godo.DropletCreateImage{Slug: image},
		SSHKeys: sshKeys,
		Backups: backups,
		Tags:    []string{dropletTag, fmt.Sprintf("item-%d", req.SubscriptionItemID)},
	}
}

// Deprovision treats an already deleted droplet as success.
func (p *Provider) Deprovision(ctx context.Context, reference string) error {
	dropletID, err := parseDropletID(reference)
	if err != nil {
		return err
	}

	if _, err := p.client.Droplets.Delete(ctx, dropletID); err != nil {
		if isNotFound(err) {
			p.logger.Warnw("droplet already deleted", "droplet_id", dropletID)
			return nil
		}
		return fmt.Errorf("failed to delete droplet %d: %w", dropletID, err)
	}

	p.logger.Infow("droplet deleted", "droplet_id", dropletID)
	return nil
}

func (p *Provider) GetServerInfo(ctx context.Context, reference string) (*provider.ServerInfo, error) {
	dropletID, err := parseDropletID(reference)
	if err != nil {
		return nil, err
	}

	droplet, _, err := p.client.Droplets.Get(ctx, dropletID)
	if err != nil {
		return nil, fmt.Errorf("failed to get droplet %d: %w", dropletID, err)
	}

	// a droplet that is still booting has no public address yet
	ip, _ := droplet.PublicIPv4()

	info := &provider.ServerInfo{
		Reference: reference,
		Name:      droplet.Name,
		Status:    droplet.Status,
		PublicIP:  ip,
	}
	if droplet.Region != nil {
		info.Region = droplet.Region.Slug
	}
	return info, nil
}

func (p *Provider) Start(ctx context.Context, reference string) error {
	return p.powerAction(ctx, reference, "power_on", p.client.DropletActions.PowerOn)
}

func (p *Provider) Stop(ctx context.Context, reference string) error {
	return p.powerAction(ctx, reference, "power_off", p.client.DropletActions.PowerOff)
}

func (p *Provider) Restart(ctx context.Context, reference string) error {
	return p.powerAction(ctx, reference, "reboot", p.client.DropletActions.Reboot)
}

func (p *Provider) powerAction(
	ctx context.Context,
	reference, name string,
	action func(context.Context, int) (*godo.Action, *godo.Response, error),
) error {
	dropletID, err := parseDropletID(reference)
	if err != nil {
		return err
	}

	result, _, err := action(ctx, dropletID)
	if err != nil {
		return fmt.Errorf("failed to %s droplet %d: %w", name, dropletID, err)
	}

	p.logger.Infow("droplet action submitted", "droplet_id", dropletID, "action", name, "action_id", result.ID)
	return nil
}
