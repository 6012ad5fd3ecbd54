package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/voyagen/xtreamgate/internal/cache"
	"github.com/voyagen/xtreamgate/internal/metrics"
	"github.com/voyagen/xtreamgate/internal/models"
	"github.com/voyagen/xtreamgate/internal/store"
)

// reconcile compares known classifications with the current upstream list.
// It returns the upstream categories nobody has classified yet, both lists
// pruned to ids that still exist upstream, and whether anything changed.
func reconcile(upstream []models.Category, allowed, notAllowed []string) (fresh []models.Category, keptAllowed, keptNotAllowed []string, changed bool) {
	present := categoryIDs(upstream)
	known := idSet(allowed)
	for _, id := range notAllowed {
		known[id] = struct{}{}
	}

	fresh = []models.Category{}
	seen := make(map[string]struct{})
	for _, c := range upstream {
		id := string(c.ID)
		if _, ok := known[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		fresh = append(fresh, c)
	}

	prune := func(ids []string) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if _, ok := present[id]; ok {
				out = append(out, id)
			}
		}
		return out
	}
	keptAllowed = prune(allowed)
	keptNotAllowed = prune(notAllowed)
	changed = len(fresh) > 0 || len(keptAllowed)+len(keptNotAllowed) != len(allowed)+len(notAllowed)
	return fresh, keptAllowed, keptNotAllowed, changed
}

func (e *Engine) lock(ctx context.Context, accountID string, ct models.ContentType) (func(), error) {
	key := fmt.Sprintf("categories:%s:%s", normalizeID(accountID), ct)
	unlock, err := e.locker.TryLock(ctx, key, e.lockTTL)
	if errors.Is(err, cache.ErrLocked) {
		return nil, fmt.Errorf("%s categories for %q are being updated: %w", ct, accountID, err)
	}
	return unlock, err
}

// RefreshCategories reconciles the account's category lists for ct against
// upstream. New categories are reported, never classified; ids gone upstream
// are pruned. The account is saved only when something changed.
func (e *Engine) RefreshCategories(ctx context.Context, accountID string, ct models.ContentType, creds Credentials) (models.CategoryRefreshResult, error) {
	var res models.CategoryRefreshResult
	unlock, err := e.lock(ctx, accountID, ct)
	if err != nil {
		return res, err
	}
	defer unlock()

	acc, t, err := e.target(ctx, accountID, creds)
	if err != nil {
		return res, err
	}
	cats, err := e.up.Categories(ctx, t, ct)
	if err != nil {
		return res, err
	}
	allowed, notAllowed := acc.FilterSettings.Lists(ct)
	fresh, keptAllowed, keptNotAllowed, changed := reconcile(cats, allowed, notAllowed)
	res = models.CategoryRefreshResult{NewCategories: fresh, HasChanges: changed}
	metrics.CategoryReconciles.WithLabelValues(ct.String(), strconv.FormatBool(changed)).Inc()
	if !changed {
		return res, nil
	}

	acc.FilterSettings.SetLists(ct, keptAllowed, keptNotAllowed)
	if err := e.saveAccount(ctx, acc); err != nil {
		return res, err
	}
	log.Info().Str("account", acc.ID).Str("content_type", ct.String()).
		Int("new", len(fresh)).
		Int("pruned", len(allowed)+len(notAllowed)-len(keptAllowed)-len(keptNotAllowed)).
		Msg("categories reconciled")
	return res, nil
}

// InitializeCategories allows every category upstream currently lists, for
// all content types, and clears the not-allowed lists.
func (e *Engine) InitializeCategories(ctx context.Context, accountID string, creds Credentials) (*models.FilterSettings, error) {
	for _, ct := range models.ContentTypes {
		unlock, err := e.lock(ctx, accountID, ct)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	acc, t, err := e.target(ctx, accountID, creds)
	if err != nil {
		return nil, err
	}
	lists := make([][]models.Category, len(models.ContentTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, ct := range models.ContentTypes {
		g.Go(func() error {
			cats, err := e.up.Categories(gctx, t, ct)
			lists[i] = cats
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, ct := range models.ContentTypes {
		ids := make([]string, 0, len(lists[i]))
		for id := range categoryIDs(lists[i]) {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		acc.FilterSettings.SetLists(ct, ids, nil)
	}
	if err := e.saveAccount(ctx, acc); err != nil {
		return nil, err
	}
	log.Info().Str("account", acc.ID).Msg("categories initialized")
	return &acc.FilterSettings, nil
}

// UpdateCategories replaces the allowed and not-allowed lists for ct.
func (e *Engine) UpdateCategories(ctx context.Context, accountID string, ct models.ContentType, allowed, notAllowed []string) (*models.FilterSettings, error) {
	allow := idSet(allowed)
	for _, id := range notAllowed {
		if _, ok := allow[id]; ok {
			return nil, validationf("category %q is both allowed and not allowed", id)
		}
	}
	unlock, err := e.lock(ctx, accountID, ct)
	if err != nil {
		return nil, err
	}
	defer unlock()

	acc, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	acc.FilterSettings.SetLists(ct, dedupe(allowed), dedupe(notAllowed))
	if err := e.saveAccount(ctx, acc); err != nil {
		return nil, err
	}
	return &acc.FilterSettings, nil
}

// UpstreamCategories returns the unfiltered upstream category list for ct.
func (e *Engine) UpstreamCategories(ctx context.Context, accountID string, ct models.ContentType, creds Credentials) ([]models.Category, error) {
	acc, t, err := e.target(ctx, accountID, creds)
	if err != nil {
		return nil, err
	}
	return e.categories(ctx, acc, t, ct, true)
}

// ProcessRefreshJob runs a queued reconciliation. An empty content type
// refreshes all three.
func (e *Engine) ProcessRefreshJob(ctx context.Context, job cache.RefreshJob) (map[string]models.CategoryRefreshResult, error) {
	types := models.ContentTypes
	if job.ContentType != "" {
		ct, err := models.ParseContentType(job.ContentType)
		if err != nil {
			return nil, validationf("%v", err)
		}
		types = []models.ContentType{ct}
	}
	out := make(map[string]models.CategoryRefreshResult, len(types))
	var errs []error
	for _, ct := range types {
		res, err := e.RefreshCategories(ctx, job.AccountID, ct, Credentials{})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ct, err))
			continue
		}
		out[ct.String()] = res
	}
	return out, errors.Join(errs...)
}

func (e *Engine) saveAccount(ctx context.Context, acc *models.Account) error {
	ok, err := e.store.UpdateAccount(ctx, acc)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
