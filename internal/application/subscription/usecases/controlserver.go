package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	vo "github.com/orris-inc/cloudbilling/internal/domain/subscription/valueobjects"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/validation"
)

const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

type ControlServerCommand struct {
	SubscriptionID uint   `json:"subscription_id" validate:"required"`
	UserID         uint   `json:"user_id" validate:"required"`
	Action         string `json:"action" validate:"required,oneof=start stop restart"`
}

// ControlServerUseCase starts, stops or restarts the servers behind a
// subscription.
type ControlServerUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	itemRepo         subscription.ItemRepository
	registry         *provider.Registry
	logger           logger.Interface
}

func NewControlServerUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	itemRepo subscription.ItemRepository,
	registry *provider.Registry,
	logger logger.Interface,
) *ControlServerUseCase {
	return &ControlServerUseCase{
		subscriptionRepo: subscriptionRepo,
		itemRepo:         itemRepo,
		registry:         registry,
		logger:           logger,
	}
}

// Execute applies the action to every active item and returns how many were
// acted on.
func (uc *ControlServerUseCase) Execute(ctx context.Context, cmd ControlServerCommand) (int, error) {
	if err := validation.Struct(cmd); err != nil {
		return 0, err
	}

	sub, err := loadOwned(ctx, uc.subscriptionRepo, cmd.SubscriptionID, cmd.UserID)
	if err != nil {
		return 0, err
	}
	if sub.Status().IsTerminal() {
		return 0, apperrors.NewConflictError("Subscription is canceled")
	}

	items, err := activeItems(ctx, uc.itemRepo, sub.ID())
	if err != nil {
		return 0, err
	}

	for _, item := range items {
		prov, err := uc.registry.Get(item.Provider())
		if err != nil {
			return 0, err
		}

		ref := item.ProviderReference()
		switch cmd.Action {
		case ActionStart:
			err = prov.Start(ctx, ref)
		case ActionStop:
			err = prov.Stop(ctx, ref)
		case ActionRestart:
			err = prov.Restart(ctx, ref)
		}
		if err != nil {
			uc.logger.Errorw("server action failed",
				"subscription_id", sub.ID(),
				"subscription_item_id", item.ID(),
				"action", cmd.Action,
				"error", err,
			)
			return 0, fmt.Errorf("failed to %s server: %w", cmd.Action, err)
		}

		uc.logger.Infow("server action applied",
			"subscription_id", sub.ID(),
			"subscription_item_id", item.ID(),
			"action", cmd.Action,
		)
	}
	return len(items), nil
}

type GetServerInfoQuery struct {
	SubscriptionID uint `json:"subscription_id" validate:"required"`
	UserID         uint `json:"user_id" validate:"required"`
}

type GetServerInfoUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	itemRepo         subscription.ItemRepository
	registry         *provider.Registry
	logger           logger.Interface
}

func NewGetServerInfoUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	itemRepo subscription.ItemRepository,
	registry *provider.Registry,
	logger logger.Interface,
) *GetServerInfoUseCase {
	return &GetServerInfoUseCase{
		subscriptionRepo: subscriptionRepo,
		itemRepo:         itemRepo,
		registry:         registry,
		logger:           logger,
	}
}

func (uc *GetServerInfoUseCase) Execute(ctx context.Context, query GetServerInfoQuery) ([]*provider.ServerInfo, error) {
	if err := validation.Struct(query); err != nil {
		return nil, err
	}

	sub, err := loadOwned(ctx, uc.subscriptionRepo, query.SubscriptionID, query.UserID)
	if err != nil {
		return nil, err
	}

	items, err := activeItems(ctx, uc.itemRepo, sub.ID())
	if err != nil {
		return nil, err
	}

	infos := make([]*provider.ServerInfo, 0, len(items))
	for _, item := range items {
		prov, err := uc.registry.Get(item.Provider())
		if err != nil {
			return nil, err
		}
		info, err := prov.GetServerInfo(ctx, item.ProviderReference())
		if err != nil {
			uc.logger.Errorw("failed to get server info",
				"subscription_item_id", item.ID(),
				"error", err,
			)
			return nil, fmt.Errorf("failed to get server info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func activeItems(ctx context.Context, repo subscription.ItemRepository, subscriptionID uint) ([]*subscription.Item, error) {
	items, err := repo.ListBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription items: %w", err)
	}

	active := make([]*subscription.Item, 0, len(items))
	for _, item := range items {
		if item.ProvisioningStatus() == vo.ProvisioningActive && item.HasProviderReference() {
			active = append(active, item)
		}
	}
	return active, nil
}
