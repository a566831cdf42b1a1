package service

import (
	"context"
	"database/sql"
	"errors"

	"recorss/internal/logger"
	"recorss/internal/metrics"
	"recorss/internal/model"
	"recorss/internal/repository"
)

const (
	defaultItemLimit = 100
	maxItemLimit     = 1000
)

type ItemListParams struct {
	FeedSource *string
	Verdict    *model.Label
	Limit      int
}

type ItemService interface {
	// SetUserLabel records a reader's label and returns the updated item.
	SetUserLabel(ctx context.Context, id int64, label model.Label) (model.Item, error)
	// List returns stored items, newest first.
	List(ctx context.Context, params ItemListParams) ([]model.Item, error)
}

type itemService struct {
	items repository.ItemRepository
}

func NewItemService(items repository.ItemRepository) ItemService {
	return &itemService{items: items}
}

func (s *itemService) SetUserLabel(ctx context.Context, id int64, label model.Label) (model.Item, error) {
	if label != model.LabelPositive && label != model.LabelNegative {
		return model.Item{}, ErrInvalid
	}

	if err := s.items.UpdateUserLabel(ctx, id, label); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, ErrNotFound
		}
		return model.Item{}, err
	}

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, ErrNotFound
		}
		return model.Item{}, err
	}

	metrics.RecordFeedback(label.String())
	logger.Info("user label set", "module", "service", "action", "update", "resource", "item", "result", "ok", "item_id", id, "label", label.String())
	return item, nil
}

func (s *itemService) List(ctx context.Context, params ItemListParams) ([]model.Item, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultItemLimit
	}
	if limit > maxItemLimit {
		limit = maxItemLimit
	}

	filter := repository.ItemListFilter{
		FeedSource:  params.FeedSource,
		NewestFirst: true,
		Limit:       limit,
	}
	if params.Verdict != nil {
		filter.Verdicts = []model.Label{*params.Verdict}
	}

	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}
