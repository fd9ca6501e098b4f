package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	"stockflow/internal/domain/stocktake"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	inventoriesTable    = "inventories"
	inventoryItemsTable = "inventory_items"
)

var inventoryItemColumns = []string{"id", "inventory_id", "product_id", "system_qty", "actual_qty", "difference"}

var inventorySorts = sortColumns{
	"created_at": "h.created_at",
	"closed_at":  "h.closed_at",
	"status":     "h.status",
}

// InventoryRepo implements stocktake.Repository.
type InventoryRepo struct {
	*BaseDocumentRepo
	inserter *postgres.BatchInserter
}

// NewInventoryRepo creates a new inventory count repository.
func NewInventoryRepo(txManager *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager, inventoriesTable, "inventory"),
		inserter:         postgres.NewBatchInserter(txManager),
	}
}

var _ stocktake.Repository = (*InventoryRepo)(nil)

// Create inserts the header and copies the snapshot rows in bulk.
func (r *InventoryRepo) Create(ctx context.Context, c *stocktake.Count) error {
	_, err := r.exec(ctx, r.Builder().
		Insert(inventoriesTable).
		Columns("id", "version", "location_id", "status", "note", "created_by", "created_at", "updated_at").
		Values(c.ID, c.Version, c.LocationID, c.Status, c.Note, c.CreatedBy, c.CreatedAt, c.UpdatedAt))
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(c.Items))
	for _, it := range c.Items {
		rows = append(rows, []any{
			it.ID, c.ID, it.ProductID,
			postgres.NumericQuantity(it.SystemQty),
			postgres.NullableNumericQuantity(it.ActualQty),
			postgres.NumericQuantity(it.Difference),
		})
	}
	_, err = r.inserter.CopyFromSlice(ctx, inventoryItemsTable, inventoryItemColumns, rows)
	return err
}

func (r *InventoryRepo) headerSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select("h.id", "h.version", "h.location_id", "h.status", "h.note", "h.closed_at",
			"h.created_by", "h.created_at", "h.updated_at", "l.name AS location_name",
			"(SELECT COUNT(*) FROM inventory_items i WHERE i.inventory_id = h.id) AS items_count").
		From(inventoriesTable + " h").
		Join("locations l ON l.id = h.location_id")
}

func (r *InventoryRepo) load(ctx context.Context, countID id.ID, forUpdate bool) (*stocktake.Count, error) {
	q := r.headerSelect().Where(squirrel.Eq{"h.id": countID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE OF h")
	}
	c := &stocktake.Count{}
	if err := r.getOne(ctx, c, q, countID.String()); err != nil {
		return nil, err
	}

	items := r.Builder().
		Select("i.id", "i.inventory_id", "i.product_id", "i.system_qty", "i.actual_qty", "i.difference",
			"p.name AS product_name", "p.unit", "c.name AS category_name").
		From(inventoryItemsTable + " i").
		Join("products p ON p.id = i.product_id").
		Join("categories c ON c.id = p.category_id").
		Where(squirrel.Eq{"i.inventory_id": countID}).
		OrderBy("p.name")
	if err := r.selectAll(ctx, &c.Items, items); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID loads the count with items ordered by product name.
func (r *InventoryRepo) GetByID(ctx context.Context, countID id.ID) (*stocktake.Count, error) {
	return r.load(ctx, countID, false)
}

// GetForUpdate loads the count and locks its header row.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, countID id.ID) (*stocktake.Count, error) {
	return r.load(ctx, countID, true)
}

// SaveActuals stores the actual quantity of each given item in one round trip.
func (r *InventoryRepo) SaveActuals(ctx context.Context, items []stocktake.Item) error {
	if len(items) == 0 {
		return nil
	}
	queries := make([]postgres.BatchQuery, 0, len(items))
	for _, it := range items {
		queries = append(queries, postgres.BatchQuery{
			SQL:  `UPDATE inventory_items SET actual_qty = $1 WHERE id = $2`,
			Args: []any{it.ActualQty, it.ID},
		})
	}
	_, err := r.inserter.ExecuteBatch(ctx, queries)
	return err
}

// Complete stores differences, status and closed_at.
func (r *InventoryRepo) Complete(ctx context.Context, c *stocktake.Count) error {
	queries := make([]postgres.BatchQuery, 0, len(c.Items))
	for _, it := range c.Items {
		queries = append(queries, postgres.BatchQuery{
			SQL:  `UPDATE inventory_items SET difference = $1 WHERE id = $2`,
			Args: []any{it.Difference, it.ID},
		})
	}
	if len(queries) > 0 {
		if _, err := r.inserter.ExecuteBatch(ctx, queries); err != nil {
			return err
		}
	}

	v, err := r.updateHeader(ctx, c.ID, c.Version, map[string]any{
		"status":     c.Status,
		"closed_at":  c.ClosedAt,
		"updated_at": c.UpdatedAt,
	})
	if err != nil {
		return err
	}
	c.SetVersion(v)
	return nil
}

// List returns count headers.
func (r *InventoryRepo) List(ctx context.Context, filter stocktake.ListFilter) (domain.ListResult[*stocktake.Count], error) {
	q := r.headerSelect()
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"h.status": *filter.Status})
	}
	if len(filter.LocationIDs) > 0 {
		q = q.Where(squirrel.Eq{"h.location_id": filter.LocationIDs})
	}
	return page[*stocktake.Count](ctx, r.BaseDocumentRepo, q, filter.ListFilter, inventorySorts)
}
