package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/utils/logutil"
)

const (
	configKeyRegion     = "region"
	configKeyServerType = "server_type"

	maxFailureReasonLength = 1000
)

// ProvisionInput is a validated subscription request ready to be created.
type ProvisionInput struct {
	UserID      uint
	Plan        *subscription.Plan
	ServiceType *subscription.ServiceType
	Config      map[string]any
	Placement   subscription.ItemPlacement
}

// Provisioner creates subscriptions with their item and drives the item
// through provisioning. Subscription creation and backorder fulfilment share
// it.
type Provisioner struct {
	txMgr            db.Transactor
	subscriptionRepo subscription.SubscriptionRepository
	itemRepo         subscription.ItemRepository
	planRepo         subscription.PlanRepository
	serviceTypeRepo  subscription.ServiceTypeRepository
	registry         *provider.Registry
	hostnames        HostnameReserver
	dns              provider.DNSProvider
	now              func() time.Time
	logger           logger.Interface
}

// NewProvisioner creates a Provisioner. dns may be nil when no DNS provider
// is configured.
func NewProvisioner(
	txMgr db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	itemRepo subscription.ItemRepository,
	planRepo subscription.PlanRepository,
	serviceTypeRepo subscription.ServiceTypeRepository,
	registry *provider.Registry,
	hostnames HostnameReserver,
	dns provider.DNSProvider,
	logger logger.Interface,
) *Provisioner {
	return &Provisioner{
		txMgr:            txMgr,
		subscriptionRepo: subscriptionRepo,
		itemRepo:         itemRepo,
		planRepo:         planRepo,
		serviceTypeRepo:  serviceTypeRepo,
		registry:         registry,
		hostnames:        hostnames,
		dns:              dns,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// Prepare turns a request into a ProvisionInput. The plan must be active and
// the merged configuration must satisfy the service type schema.
func (p *Provisioner) Prepare(ctx context.Context, userID, planID uint, requested map[string]any) (ProvisionInput, error) {
	plan, err := p.planRepo.GetByID(ctx, planID)
	if err != nil {
		return ProvisionInput{}, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return ProvisionInput{}, apperrors.NewNotFoundError("Plan not found").WithCause(subscription.ErrPlanNotFound)
	}
	if !plan.IsActive() {
		return ProvisionInput{}, apperrors.NewBadRequestError("Plan is not active").WithCause(subscription.ErrPlanInactive)
	}

	st, err := p.serviceTypeRepo.GetByID(ctx, plan.ServiceTypeID())
	if err != nil {
		return ProvisionInput{}, fmt.Errorf("failed to get service type: %w", err)
	}
	if st == nil {
		return ProvisionInput{}, apperrors.NewNotFoundError("Service type not found").WithCause(subscription.ErrServiceTypeNotFound)
	}

	config, err := st.MergeConfig(plan, requested)
	if err != nil {
		return ProvisionInput{}, apperrors.NewValidationError("Invalid configuration", err.Error()).WithCause(err)
	}

	placement, err := p.ResolvePlacement(st, config)
	if err != nil {
		return ProvisionInput{}, err
	}

	return ProvisionInput{
		UserID:      userID,
		Plan:        plan,
		ServiceType: st,
		Config:      config,
		Placement:   placement,
	}, nil
}

// ResolvePlacement picks the provider from the service type and region and
// server type from the config, falling back to the provider defaults.
func (p *Provisioner) ResolvePlacement(st *subscription.ServiceType, config map[string]any) (subscription.ItemPlacement, error) {
	prov, err := p.registry.Get(st.Provider())
	if err != nil {
		return subscription.ItemPlacement{}, err
	}
	defaults := prov.Defaults()

	placement := subscription.ItemPlacement{
		Provider:   prov.Name(),
		Region:     defaults.Region,
		ServerType: defaults.ServerType,
	}
	if v, ok := config[configKeyRegion].(string); ok && v != "" {
		placement.Region = v
	}
	if v, ok := config[configKeyServerType].(string); ok && v != "" {
		placement.ServerType = v
	}
	return placement, nil
}

// Create persists an ACTIVE subscription and its pending item in one
// transaction, then provisions the item. A non-nil subscription with an
// error means the records exist and provisioning failed.
func (p *Provisioner) Create(ctx context.Context, in ProvisionInput) (*subscription.Subscription, *subscription.Item, error) {
	now := p.now()

	sub, err := subscription.NewSubscription(in.UserID, in.Plan.ID(), in.Plan.Schedule(now), now)
	if err != nil {
		return nil, nil, err
	}
	item, err := subscription.NewItem(in.ServiceType.ID(), in.Placement, in.Config, now)
	if err != nil {
		return nil, nil, err
	}

	err = p.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := p.subscriptionRepo.Create(txCtx, sub); err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		if err := item.AttachToSubscription(sub.ID()); err != nil {
			return err
		}
		if err := p.itemRepo.Create(txCtx, item); err != nil {
			return fmt.Errorf("failed to create subscription item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	p.logger.Infow("subscription created",
		"subscription_id", sub.ID(),
		"user_id", sub.UserID(),
		"plan_id", sub.PlanID(),
		"provider", item.Provider(),
		"next_billing_at", sub.NextBillingAt(),
	)

	if err := p.Provision(ctx, item); err != nil {
		return sub, item, err
	}
	return sub, item, nil
}

// Provision reserves a hostname when the provider needs one, provisions the
// server and attaches DNS. On failure the hostname is released, the item is
// marked failed and the provisioning error is returned.
func (p *Provisioner) Provision(ctx context.Context, item *subscription.Item) error {
	prov, err := p.registry.Get(item.Provider())
	if err != nil {
		p.markFailed(ctx, item, err)
		return err
	}

	var hostname string
	if prov.RequiresNetworkIdentity() {
		hostname, err = p.hostnames.Reserve(ctx, item.ID())
		if err != nil {
			p.markFailed(ctx, item, err)
			return fmt.Errorf("failed to reserve hostname: %w", err)
		}
		item.AssignHostname(hostname, p.now())
	}

	placement := item.Placement()
	reference, err := prov.Provision(ctx, provider.ProvisionRequest{
		SubscriptionItemID: item.ID(),
		Region:             placement.Region,
		ServerType:         placement.ServerType,
		Hostname:           hostname,
		Config:             item.ConfigSnapshot(),
	})
	if err != nil {
		p.logger.Errorw("provisioning failed",
			"subscription_item_id", item.ID(),
			"provider", prov.Name(),
			"region", placement.Region,
			"server_type", placement.ServerType,
			"error", err,
		)
		if hostname != "" {
			p.releaseHostname(ctx, item)
		}
		p.markFailed(ctx, item, err)
		return fmt.Errorf("failed to provision server: %w", err)
	}

	if err := item.MarkActive(reference, p.now()); err != nil {
		return err
	}
	if err := p.itemRepo.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to mark item active: %w", err)
	}

	p.logger.Infow("server provisioned",
		"subscription_item_id", item.ID(),
		"provider", prov.Name(),
		"provider_reference", reference,
	)

	if hostname != "" {
		p.attachDNS(ctx, prov, item)
	}
	return nil
}

// Teardown deprovisions the item's server and drops its DNS record and
// hostname. Every step is attempted; the first error is returned.
func (p *Provisioner) Teardown(ctx context.Context, item *subscription.Item) error {
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if item.HasProviderReference() {
		prov, err := p.registry.Get(item.Provider())
		if err == nil {
			err = prov.Deprovision(ctx, item.ProviderReference())
		}
		if err != nil {
			p.logger.Errorw("failed to deprovision server",
				"subscription_item_id", item.ID(),
				"provider_reference", item.ProviderReference(),
				"error", err,
			)
			keep(fmt.Errorf("failed to deprovision item %d: %w", item.ID(), err))
		}
	}

	if hostname := item.Hostname(); hostname != "" {
		if p.dns != nil {
			if err := p.dns.DeleteRecord(ctx, hostname); err != nil {
				p.logger.Warnw("failed to delete DNS record",
					"subscription_item_id", item.ID(),
					"hostname", hostname,
					"error", err,
				)
			}
		}
		if err := p.hostnames.Release(ctx, item.ID()); err != nil {
			p.logger.Warnw("failed to release hostname",
				"subscription_item_id", item.ID(),
				"hostname", hostname,
				"error", err,
			)
			keep(err)
		}
	}
	return firstErr
}

func (p *Provisioner) attachDNS(ctx context.Context, prov provider.ProvisioningProvider, item *subscription.Item) {
	if p.dns == nil {
		return
	}

	info, err := prov.GetServerInfo(ctx, item.ProviderReference())
	if err != nil {
		p.logger.Warnw("failed to get server info for DNS",
			"subscription_item_id", item.ID(),
			"error", err,
		)
		return
	}
	if info.PublicIP == "" {
		p.logger.Warnw("server has no public IP yet, DNS record skipped",
			"subscription_item_id", item.ID(),
			"hostname", item.Hostname(),
		)
		return
	}

	if err := p.dns.CreateARecord(ctx, item.Hostname(), info.PublicIP); err != nil {
		p.logger.Warnw("failed to create DNS record",
			"subscription_item_id", item.ID(),
			"hostname", item.Hostname(),
			"ip", info.PublicIP,
			"error", err,
		)
		return
	}
	p.logger.Infow("DNS record created", "hostname", item.Hostname(), "ip", info.PublicIP)
}

func (p *Provisioner) releaseHostname(ctx context.Context, item *subscription.Item) {
	if err := p.hostnames.Release(ctx, item.ID()); err != nil {
		p.logger.Warnw("failed to release hostname after provisioning failure",
			"subscription_item_id", item.ID(),
			"hostname", item.Hostname(),
			"error", err,
		)
	}
	item.ClearHostname(p.now())
}

func (p *Provisioner) markFailed(ctx context.Context, item *subscription.Item, cause error) {
	item.MarkFailed(logutil.TruncateForLog(cause.Error(), maxFailureReasonLength), p.now())
	if err := p.itemRepo.Update(ctx, item); err != nil {
		p.logger.Errorw("failed to mark item failed",
			"subscription_item_id", item.ID(),
			"error", err,
		)
	}
}
