package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/replenishment"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	requestsTable     = "requests"
	requestItemsTable = "request_items"
	issueRecordsTable = "issue_records"
)

var requestSorts = sortColumns{
	"created_at": "r.created_at",
	"updated_at": "r.updated_at",
	"status":     "r.status",
}

// RequestRepo implements replenishment.Repository.
type RequestRepo struct {
	*BaseDocumentRepo
}

// NewRequestRepo creates a new replenishment request repository.
func NewRequestRepo(txManager *postgres.TxManager) *RequestRepo {
	return &RequestRepo{BaseDocumentRepo: NewBaseDocumentRepo(txManager, requestsTable, "request")}
}

var _ replenishment.Repository = (*RequestRepo)(nil)

// Create inserts the request and its items.
func (r *RequestRepo) Create(ctx context.Context, req *replenishment.Request) error {
	_, err := r.exec(ctx, r.Builder().
		Insert(requestsTable).
		Columns("id", "version", "location_id", "status", "note", "created_by", "created_at", "updated_at").
		Values(req.ID, req.Version, req.LocationID, req.Status, req.Note, req.CreatedBy, req.CreatedAt, req.UpdatedAt))
	if err != nil {
		return err
	}

	if len(req.Items) == 0 {
		return nil
	}
	ins := r.Builder().Insert(requestItemsTable).Columns("id", "request_id", "product_id", "quantity", "issued")
	for _, it := range req.Items {
		ins = ins.Values(it.ID, req.ID, it.ProductID, it.Quantity, it.Issued)
	}
	_, err = r.exec(ctx, ins)
	return err
}

func (r *RequestRepo) headerSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select("r.id", "r.version", "r.location_id", "r.status", "r.note",
			"r.created_by", "r.created_at", "r.updated_at", "l.name AS location_name").
		From(requestsTable + " r").
		Join("locations l ON l.id = r.location_id")
}

func (r *RequestRepo) load(ctx context.Context, requestID id.ID, forUpdate bool) (*replenishment.Request, error) {
	q := r.headerSelect().Where(squirrel.Eq{"r.id": requestID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE OF r")
	}
	req := &replenishment.Request{}
	if err := r.getOne(ctx, req, q, requestID.String()); err != nil {
		return nil, err
	}

	items := r.Builder().
		Select("i.id", "i.request_id", "i.product_id", "i.quantity", "i.issued",
			"p.name AS product_name", "p.unit").
		From(requestItemsTable + " i").
		Join("products p ON p.id = i.product_id").
		Where(squirrel.Eq{"i.request_id": requestID}).
		OrderBy("p.name")
	if forUpdate {
		items = items.Suffix("FOR UPDATE OF i")
	}
	if err := r.selectAll(ctx, &req.Items, items); err != nil {
		return nil, err
	}
	return req, nil
}

// GetByID loads the request with items.
func (r *RequestRepo) GetByID(ctx context.Context, requestID id.ID) (*replenishment.Request, error) {
	return r.load(ctx, requestID, false)
}

// GetForUpdate loads the request with items and locks both.
func (r *RequestRepo) GetForUpdate(ctx context.Context, requestID id.ID) (*replenishment.Request, error) {
	return r.load(ctx, requestID, true)
}

// UpdateStatus persists status and updated_at.
func (r *RequestRepo) UpdateStatus(ctx context.Context, req *replenishment.Request) error {
	v, err := r.updateHeader(ctx, req.ID, req.Version, map[string]any{
		"status":     req.Status,
		"updated_at": req.UpdatedAt,
	})
	if err != nil {
		return err
	}
	req.SetVersion(v)
	return nil
}

// SetIssued stores an item's issued counter.
func (r *RequestRepo) SetIssued(ctx context.Context, itemID id.ID, issued types.Quantity) error {
	n, err := r.exec(ctx, r.Builder().
		Update(requestItemsTable).
		Set("issued", issued).
		Where(squirrel.Eq{"id": itemID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("request item %s not found", itemID)
	}
	return nil
}

// CreateIssueRecords appends issue records.
func (r *RequestRepo) CreateIssueRecords(ctx context.Context, records []replenishment.IssueRecord) error {
	if len(records) == 0 {
		return nil
	}
	ins := r.Builder().Insert(issueRecordsTable).
		Columns("id", "request_id", "product_id", "quantity", "issued_by", "note", "issued_at")
	for _, rec := range records {
		ins = ins.Values(rec.ID, rec.RequestID, rec.ProductID, rec.Quantity, rec.IssuedBy, rec.Note, rec.IssuedAt)
	}
	_, err := r.exec(ctx, ins)
	return err
}

// ListIssues returns a request's issue records, newest first.
func (r *RequestRepo) ListIssues(ctx context.Context, requestID id.ID) ([]replenishment.IssueRecord, error) {
	q := r.Builder().
		Select("ir.id", "ir.request_id", "ir.product_id", "ir.quantity", "ir.issued_by", "ir.note",
			"ir.issued_at", "p.name AS product_name").
		From(issueRecordsTable + " ir").
		Join("products p ON p.id = ir.product_id").
		Where(squirrel.Eq{"ir.request_id": requestID}).
		OrderBy("ir.issued_at DESC")

	var records []replenishment.IssueRecord
	if err := r.selectAll(ctx, &records, q); err != nil {
		return nil, err
	}
	return records, nil
}

// List returns request headers.
func (r *RequestRepo) List(ctx context.Context, filter replenishment.ListFilter) (domain.ListResult[*replenishment.Request], error) {
	return page[*replenishment.Request](ctx, r.BaseDocumentRepo, requestListQuery(r.headerSelect(), filter), filter.ListFilter, requestSorts)
}

func requestListQuery(q squirrel.SelectBuilder, filter replenishment.ListFilter) squirrel.SelectBuilder {
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"r.status": *filter.Status})
	}
	if len(filter.LocationIDs) > 0 {
		q = q.Where(squirrel.Eq{"r.location_id": filter.LocationIDs})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"l.name": "%" + filter.Search + "%"})
	}
	return q
}
