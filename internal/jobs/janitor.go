package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dan9191/recipe-service/internal/storage"
	"github.com/Dan9191/recipe-service/internal/utils"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ImageReferences lists image keys still referenced by recipes
type ImageReferences interface {
	ListImages(ctx context.Context) ([]string, error)
}

// Janitor removes stored recipe images that no recipe references. A key is
// deleted only after it was unreferenced on two consecutive runs, so uploads
// in flight are left alone.
type Janitor struct {
	refs     ImageReferences
	images   storage.ImageStore
	log      *logrus.Logger
	schedule string

	mu       sync.Mutex
	suspects map[string]struct{}
}

// NewJanitor initializes a new janitor running on a cron schedule
func NewJanitor(refs ImageReferences, images storage.ImageStore, log *logrus.Logger, schedule string) *Janitor {
	return &Janitor{
		refs:     refs,
		images:   images,
		log:      log,
		schedule: schedule,
		suspects: make(map[string]struct{}),
	}
}

// RunOnce performs one sweep and returns the number of deleted images
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	referenced, err := j.refs.ListImages(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list referenced images: %w", err)
	}
	inUse := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		inUse[key] = struct{}{}
	}

	stored, err := j.images.List(ctx, utils.RecipeImageDir+"/")
	if err != nil {
		return 0, fmt.Errorf("failed to list stored images: %w", err)
	}

	deleted := 0
	suspects := make(map[string]struct{})
	for _, key := range stored {
		if _, ok := inUse[key]; ok {
			continue
		}
		if _, seen := j.suspects[key]; !seen {
			suspects[key] = struct{}{}
			continue
		}
		if err := j.images.Delete(ctx, key); err != nil {
			j.log.Warnf("Failed to delete orphaned image %s: %v", key, err)
			suspects[key] = struct{}{}
			continue
		}
		deleted++
	}
	j.suspects = suspects

	if deleted > 0 {
		j.log.Infof("Janitor deleted %d orphaned images", deleted)
	}
	return deleted, nil
}

// Run schedules sweeps until ctx is canceled
func (j *Janitor) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(j.schedule, func() {
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.Errorf("Janitor run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", j.schedule, err)
	}

	j.log.Infof("Janitor scheduled: %s", j.schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
