package listview

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kolah/oclist/internal/fieldschema"
	"github.com/samber/lo"
)

const columnsKeySuffix = ":tableColumns"

// ColumnsKey is the store key of an operation's column preference.
func ColumnsKey(operationID string) string {
	return operationID + columnsKeySuffix
}

// AvailableColumns lists every column the operation can show, in schema order.
func (c *Controller) AvailableColumns() []string {
	return slices.Clone(c.available)
}

// Columns lists the visible columns in schema order.
func (c *Controller) Columns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.columns)
}

// Sortable reports whether the operation accepts name as a sortBy value.
func (c *Controller) Sortable(name string) bool {
	return lo.Contains(c.sortable, name)
}

// ToggleColumn shows or hides a column and persists the preference.
func (c *Controller) ToggleColumn(ctx context.Context, name string) ([]string, error) {
	if !lo.Contains(c.available, name) {
		return nil, fmt.Errorf("unknown column %q for %s", name, c.op.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var next []string
	if lo.Contains(c.columns, name) {
		next = lo.Without(c.columns, name)
	} else {
		next = append(slices.Clone(c.columns), name)
	}
	next = c.ordered(next)

	data, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if err := c.kv.Set(ctx, ColumnsKey(c.op.ID), data); err != nil {
		return nil, fmt.Errorf("saving columns for %s: %w", c.op.ID, err)
	}
	c.columns = next
	return slices.Clone(next), nil
}

// loadColumns reads the stored preference. Stored names that are no longer
// available are dropped. Without a readable preference every column shows.
func (c *Controller) loadColumns(ctx context.Context) ([]string, error) {
	data, ok, err := c.kv.Get(ctx, ColumnsKey(c.op.ID))
	if err != nil {
		return nil, fmt.Errorf("loading columns for %s: %w", c.op.ID, err)
	}
	if !ok {
		return slices.Clone(c.available), nil
	}
	var saved []string
	if err := json.Unmarshal(data, &saved); err != nil {
		c.log.Warn("ignoring unreadable column preference", "err", err)
		return slices.Clone(c.available), nil
	}
	return c.ordered(saved), nil
}

// ordered sorts names into available-column order, dropping duplicates.
func (c *Controller) ordered(names []string) []string {
	return lo.Filter(c.available, func(name string, _ int) bool {
		return lo.Contains(names, name)
	})
}

// ColumnKind returns how a column renders. Unknown columns are KindOther.
func (c *Controller) ColumnKind(name string) fieldschema.Kind {
	if f, ok := c.fields[name]; ok {
		return f.Kind
	}
	return fieldschema.KindOther
}
