package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cyclecraft/bikeshare/internal/store"
)

// ------------------- Export -------------------

// exportResult validates a materialized frame and replaces the matching
// relational table with it.
func exportResult(ctx context.Context, rel *store.Relational, t *store.Table, maxRows int, rules *ValidationRules) error {
	if err := validateFrame(t, maxRows, rules); err != nil {
		return errors.Wrap(err, "validate")
	}
	if err := rel.ReplaceTable(ctx, t); err != nil {
		return errors.Wrap(err, "replace")
	}
	return nil
}
