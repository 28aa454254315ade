package projections

import (
	"context"
	"fmt"
	"sync"
	"time"

	"innercircle/internal/adapters/storage/lead"
	"innercircle/internal/adapters/storage/recipe"
	domainLead "innercircle/internal/domain/lead"
	domainRecipe "innercircle/internal/domain/recipe"
)

// AdminOverview is everything the admin dashboard shows on first load.
type AdminOverview struct {
	Leads         []domainLead.Lead
	LeadStats     domainLead.Stats
	Downloads     []domainRecipe.Download
	Recipes       []domainRecipe.Recipe
	DownloadStats domainRecipe.DownloadStats
}

// AdminOverviewDeps holds dependencies for AdminOverview.
type AdminOverviewDeps struct {
	LeadStore   LeadStore
	RecipeStore RecipeStore
	Now         func() time.Time // in the display time zone
}

// QueryAdminOverview loads leads, stats, downloads and recipes concurrently.
// PRE: none
// POST: Either every part is loaded or the first error is returned
func QueryAdminOverview(ctx context.Context, deps AdminOverviewDeps) (AdminOverview, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		out      AdminOverview
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	run := func(name string, load func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := load(); err != nil {
				once.Do(func() {
					firstErr = fmt.Errorf("load %s: %w", name, err)
					cancel()
				})
			}
		}()
	}

	run("leads", func() (err error) {
		out.Leads, err = deps.LeadStore.List(ctx, lead.ListFilter{})
		return err
	})
	run("lead stats", func() error {
		statuses, err := deps.LeadStore.ListStatuses(ctx)
		out.LeadStats = domainLead.ComputeStats(statuses)
		return err
	})
	run("downloads", func() (err error) {
		out.Downloads, err = deps.RecipeStore.ListDownloads(ctx, recipe.DownloadFilter{})
		return err
	})
	run("recipes", func() (err error) {
		out.Recipes, err = deps.RecipeStore.List(ctx, false)
		return err
	})
	run("download stats", func() error {
		stamps, err := deps.RecipeStore.ListDownloadStamps(ctx)
		out.DownloadStats = domainRecipe.ComputeDownloadStats(stamps, deps.Now())
		return err
	})

	wg.Wait()
	if firstErr != nil {
		return AdminOverview{}, firstErr
	}
	return out, nil
}
