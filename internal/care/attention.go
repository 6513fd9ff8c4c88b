package care

import (
	"context"
	"strings"

	"github.com/leafcare/planty/internal/store"
)

// PersistAttention writes a plant's derived attention state back to the
// store, but only when something changed. The needs-attention timestamp is
// set the first time any category fires and cleared when none do, preserving
// "first became due" ordering across passes. Returns whether a write
// happened.
func PersistAttention(ctx context.Context, st *store.Store, p *store.Plant, needs []string, now int64) (bool, error) {
	joined := strings.Join(needs, ",")

	switch {
	case len(needs) > 0 && p.NeedsAttentionAt == nil:
		snapshot := *p
		snapshot.NeedsAttentionAt = &now
		snapshot.AttentionReasons = &joined
		return true, st.UpdatePlant(ctx, &snapshot)

	case len(needs) == 0 && p.NeedsAttentionAt != nil:
		snapshot := *p
		snapshot.NeedsAttentionAt = nil
		snapshot.AttentionReasons = nil
		return true, st.UpdatePlant(ctx, &snapshot)

	case len(needs) > 0 && (p.AttentionReasons == nil || *p.AttentionReasons != joined):
		snapshot := *p
		snapshot.AttentionReasons = &joined
		return true, st.UpdatePlant(ctx, &snapshot)
	}

	return false, nil
}
