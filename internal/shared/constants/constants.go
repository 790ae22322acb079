package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Database table names
	TableServiceTypes      = "service_types"
	TableServicePlans      = "service_plans"
	TableSubscriptions     = "subscriptions"
	TableSubscriptionItems = "subscription_items"
	TableBackorders        = "backorders"
	TableInvoiceRefs       = "invoice_refs"
	TableOpenPositions     = "open_positions"
	TableReservedHostnames = "reserved_hostnames"
	TableBillingAccounts   = "billing_accounts"
	TableUsageRecords      = "usage_records"

	// Redis key prefixes
	RedisPrefixSchedulerLock = "cloudbilling:lock:"
	RedisPrefixReminder      = "cloudbilling:reminder:"
)
