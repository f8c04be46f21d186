package nih

import (
	"context"
	"fmt"

	"github.com/Veraticus/grantlens/internal/model"
)

// Store persists NIH tables.
type Store interface {
	SaveAwards(ctx context.Context, awards []model.Award) error
	SaveTopicSummaries(ctx context.Context, kind string, rows []model.TopicSummary) error
}

// Save writes the loaded awards and topic summaries to store. Tables that
// failed to load are skipped so their previously stored rows remain.
func Save(ctx context.Context, store Store, d *Data) error {
	if _, failed := d.Errors[FileAwards]; !failed {
		if err := store.SaveAwards(ctx, d.Awards); err != nil {
			return fmt.Errorf("failed to save awards: %w", err)
		}
	}
	for _, kind := range AllTopicKinds() {
		rows, ok := d.Topics[kind]
		if !ok {
			continue
		}
		if err := store.SaveTopicSummaries(ctx, string(kind), rows); err != nil {
			return fmt.Errorf("failed to save %s topics: %w", kind, err)
		}
	}
	return nil
}
