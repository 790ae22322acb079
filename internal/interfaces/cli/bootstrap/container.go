package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	backorderusecases "github.com/orris-inc/cloudbilling/internal/application/backorder/usecases"
	billingusecases "github.com/orris-inc/cloudbilling/internal/application/billing/usecases"
	"github.com/orris-inc/cloudbilling/internal/application/hostname"
	"github.com/orris-inc/cloudbilling/internal/application/provider"
	subscriptionusecases "github.com/orris-inc/cloudbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/cache"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/config"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/dns/route53"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/email"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/invoicing"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/provisioning/digitalocean"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/repository"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/scheduler"
	sharedConfig "github.com/orris-inc/cloudbilling/internal/shared/config"
	"github.com/orris-inc/cloudbilling/internal/shared/db"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/services/markdown"
)

// Container holds every wired use case plus the resources it must release.
type Container struct {
	RedisClient *redis.Client
	Locker      gocron.Locker

	CreateSubscription *subscriptionusecases.CreateSubscriptionUseCase
	CancelSubscription *subscriptionusecases.CancelSubscriptionUseCase
	ResumeSubscription *subscriptionusecases.ResumeSubscriptionUseCase
	ControlServer      *subscriptionusecases.ControlServerUseCase
	GetServerInfo      *subscriptionusecases.GetServerInfoUseCase
	SaveBillingAccount *billingusecases.SaveBillingAccountUseCase
	RecordUsage        *billingusecases.RecordUsageUseCase
	RecordOpenPosition *billingusecases.RecordOpenPositionUseCase
	CreateBackorder    *backorderusecases.CreateBackorderUseCase
	CancelBackorder    *backorderusecases.CancelBackorderUseCase
	RetryBackorder     *backorderusecases.RetryBackorderUseCase

	ProcessDueBilling       *billingusecases.ProcessDueBillingUseCase
	ExpireSubscriptions     *subscriptionusecases.ExpireSubscriptionsUseCase
	RetryPendingBackorders  *backorderusecases.RetryPendingBackordersUseCase
	SyncInvoiceStatus       *billingusecases.SyncInvoiceStatusUseCase
	AccumulateOpenPositions *billingusecases.AccumulateOpenPositionsUseCase
	// SendRenewalReminders is nil when redis is disabled.
	SendRenewalReminders *subscriptionusecases.SendRenewalRemindersUseCase
}

func (c *Container) Close() {
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
}

type providers struct {
	registry     *provider.Registry
	availability provider.AvailabilityChecker
	dns          provider.DNSProvider
}

func newProviders(ctx context.Context, cfg *config.Config, log logger.Interface) (*providers, error) {
	doCfg := cfg.Provisioning.DigitalOcean
	if !doCfg.Enabled {
		return nil, fmt.Errorf("no provisioning provider enabled")
	}

	client, err := digitalocean.NewClient(ctx, doCfg.Token)
	if err != nil {
		return nil, err
	}

	registry := provider.NewRegistry(cfg.Billing.DefaultProvider)
	if err := registry.Register(digitalocean.NewProvider(client, doCfg, logger.WithComponent("digitalocean"))); err != nil {
		return nil, err
	}

	p := &providers{
		registry:     registry,
		availability: digitalocean.NewAvailabilityChecker(client),
	}

	switch cfg.DNS.Provider {
	case "":
		log.Warnw("dns provider not configured, servers get no A records")
	case digitalocean.ProviderName:
		p.dns = digitalocean.NewDNS(client, cfg.DNS.Zone, cfg.DNS.TTL, logger.WithComponent("dns"))
	case "route53":
		r53, err := route53.NewFromConfig(ctx, cfg.DNS, logger.WithComponent("dns"))
		if err != nil {
			return nil, err
		}
		p.dns = r53
	default:
		return nil, fmt.Errorf("unknown dns provider %q", cfg.DNS.Provider)
	}

	return p, nil
}

// NewContainer wires the application against gdb. Redis is connected when
// enabled in cfg.
func NewContainer(ctx context.Context, cfg *config.Config, gdb *gorm.DB, log logger.Interface) (*Container, error) {
	c := &Container{}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.RedisClient = client
		c.Locker = cache.NewSchedulerLocker(client, cfg.Scheduler.LockTTL)
		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
	}

	p, err := newProviders(ctx, cfg, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	invoicingProvider, err := invoicing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Billing.InvoiceDaysUntilDue, logger.WithComponent("stripe"))
	if err != nil {
		c.Close()
		return nil, err
	}

	subscriptionRepo := repository.NewSubscriptionRepository(gdb, log)
	itemRepo := repository.NewSubscriptionItemRepository(gdb, log)
	planRepo := repository.NewPlanRepository(gdb, log)
	serviceTypeRepo := repository.NewServiceTypeRepository(gdb, log)
	backorderRepo := repository.NewBackorderRepository(gdb, log)
	refRepo := repository.NewInvoiceRefRepository(gdb, log)
	positionRepo := repository.NewOpenPositionRepository(gdb, log)
	accountRepo := repository.NewBillingAccountRepository(gdb, log)
	usageRepo := repository.NewUsageRecordRepository(gdb, log)
	hostnameRepo := repository.NewHostnameRepository(gdb, log)
	txMgr := db.NewTransactionManager(gdb)

	batchSize := cfg.Scheduler.BatchSize
	currency := cfg.Billing.Currency

	allocator := hostname.NewAllocator(hostnameRepo, itemRepo, logger.WithComponent("hostname"))
	provisioner := subscriptionusecases.NewProvisioner(
		txMgr, subscriptionRepo, itemRepo, planRepo, serviceTypeRepo,
		p.registry, allocator, p.dns, logger.WithComponent("provisioner"),
	)
	createInvoice := billingusecases.NewCreateInvoiceUseCase(
		txMgr, subscriptionRepo, planRepo, refRepo, usageRepo, accountRepo,
		invoicingProvider, currency, logger.WithComponent("invoicing"),
	)

	c.CreateSubscription = subscriptionusecases.NewCreateSubscriptionUseCase(backorderRepo, p.availability, provisioner, log)
	c.CancelSubscription = subscriptionusecases.NewCancelSubscriptionUseCase(subscriptionRepo, planRepo, log)
	c.ResumeSubscription = subscriptionusecases.NewResumeSubscriptionUseCase(subscriptionRepo, log)
	c.ControlServer = subscriptionusecases.NewControlServerUseCase(subscriptionRepo, itemRepo, p.registry, log)
	c.GetServerInfo = subscriptionusecases.NewGetServerInfoUseCase(subscriptionRepo, itemRepo, p.registry, log)
	c.SaveBillingAccount = billingusecases.NewSaveBillingAccountUseCase(accountRepo, log)
	c.RecordUsage = billingusecases.NewRecordUsageUseCase(subscriptionRepo, usageRepo, log)
	c.RecordOpenPosition = billingusecases.NewRecordOpenPositionUseCase(subscriptionRepo, positionRepo, log)
	c.CreateBackorder = backorderusecases.NewCreateBackorderUseCase(backorderRepo, planRepo, log)
	c.CancelBackorder = backorderusecases.NewCancelBackorderUseCase(backorderRepo, log)
	c.RetryBackorder = backorderusecases.NewRetryBackorderUseCase(backorderRepo, p.availability, provisioner, log)

	c.ProcessDueBilling = billingusecases.NewProcessDueBillingUseCase(
		txMgr, subscriptionRepo, itemRepo, planRepo, createInvoice, batchSize, logger.WithComponent("billing-due"),
	)
	c.ExpireSubscriptions = subscriptionusecases.NewExpireSubscriptionsUseCase(
		subscriptionRepo, itemRepo, provisioner, createInvoice, batchSize, logger.WithComponent("expiration"),
	)
	c.RetryPendingBackorders = backorderusecases.NewRetryPendingBackordersUseCase(
		backorderRepo, c.RetryBackorder, batchSize, logger.WithComponent("backorder-retry"),
	)
	c.SyncInvoiceStatus = billingusecases.NewSyncInvoiceStatusUseCase(
		refRepo, invoicingProvider, batchSize, logger.WithComponent("invoice-sync"),
	)
	c.AccumulateOpenPositions = billingusecases.NewAccumulateOpenPositionsUseCase(
		txMgr, accountRepo, positionRepo, subscriptionRepo, planRepo, refRepo, usageRepo,
		invoicingProvider, currency, batchSize, logger.WithComponent("open-positions"),
	)

	if c.RedisClient != nil {
		c.SendRenewalReminders = subscriptionusecases.NewSendRenewalRemindersUseCase(
			subscriptionRepo, planRepo, accountRepo,
			cache.NewReminderStore(c.RedisClient, cfg.Billing.ReminderDedupTTL),
			email.NewSMTPNotifier(cfg.Email, logger.WithComponent("email")),
			markdown.NewRenderer(),
			cfg.Billing.ReminderWindow, batchSize, logger.WithComponent("renewal-reminders"),
		)
	}

	return c, nil
}

// NewScheduler registers every periodic driver on a scheduler guarded by the
// container's distributed locker.
func (c *Container) NewScheduler(cfg sharedConfig.SchedulerConfig, log logger.Interface) (*scheduler.SchedulerManager, error) {
	if c.Locker == nil {
		log.Warnw("redis disabled, jobs are not guarded against concurrent workers")
	}

	sched, err := scheduler.NewSchedulerManager(logger.WithComponent("scheduler"), c.Locker)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := []struct {
		name string
		cfg  sharedConfig.JobConfig
		job  scheduler.BatchJob
	}{
		{"billing-due", cfg.BillingDue, c.ProcessDueBilling},
		{"expiration", cfg.Expiration, c.ExpireSubscriptions},
		{"backorder-retry", cfg.BackorderRetry, c.RetryPendingBackorders},
		{"invoice-sync", cfg.InvoiceSync, c.SyncInvoiceStatus},
		{"open-positions", cfg.OpenPositions, c.AccumulateOpenPositions},
	}
	for _, j := range jobs {
		if err := sched.RegisterBatchJob(j.name, j.cfg, j.job); err != nil {
			return nil, err
		}
	}

	if c.SendRenewalReminders == nil {
		log.Warnw("renewal reminders need redis for deduplication, job not registered")
		return sched, nil
	}
	if err := sched.RegisterBatchJob("renewal-reminders", cfg.RenewalReminders, c.SendRenewalReminders); err != nil {
		return nil, err
	}

	return sched, nil
}
