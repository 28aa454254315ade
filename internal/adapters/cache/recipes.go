package cache

import (
	"context"
	"log/slog"
	"time"

	recipestore "innercircle/internal/adapters/storage/recipe"
	domain "innercircle/internal/domain/recipe"
)

const activeRecipesKey = "recipes:active"

// RecipeStore caches the active recipe catalogue in front of a recipe store.
// Writes that change the catalogue drop the cached list. Download counters in the
// cached list may lag by up to the TTL.
type RecipeStore struct {
	recipestore.Store
	cache Cache
	ttl   time.Duration
}

// NewRecipeStore wraps store with a catalogue cache.
// PRE: ttl > 0
func NewRecipeStore(store recipestore.Store, cache Cache, ttl time.Duration) *RecipeStore {
	return &RecipeStore{Store: store, cache: cache, ttl: ttl}
}

// List serves the active catalogue from cache; the full list always reads through.
func (s *RecipeStore) List(ctx context.Context, activeOnly bool) ([]domain.Recipe, error) {
	if !activeOnly {
		return s.Store.List(ctx, false)
	}
	var recipes []domain.Recipe
	err := s.cache.Get(ctx, activeRecipesKey, &recipes)
	if err == nil {
		return recipes, nil
	}
	if err != ErrMiss {
		slog.Warn("cache_event", "event", "get_failed", "key", activeRecipesKey, "error", err)
	}

	recipes, err = s.Store.List(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, activeRecipesKey, recipes, s.ttl); err != nil {
		slog.Warn("cache_event", "event", "set_failed", "key", activeRecipesKey, "error", err)
	}
	return recipes, nil
}

// Save persists a recipe and drops the cached catalogue.
func (s *RecipeStore) Save(ctx context.Context, r domain.Recipe) error {
	if err := s.Store.Save(ctx, r); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a recipe and drops the cached catalogue.
func (s *RecipeStore) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *RecipeStore) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, activeRecipesKey); err != nil {
		slog.Warn("cache_event", "event", "invalidate_failed", "key", activeRecipesKey, "error", err)
	}
}

var _ recipestore.Store = (*RecipeStore)(nil)
