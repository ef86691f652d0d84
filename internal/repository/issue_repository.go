package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

// ErrStaleStatus signals a compare-and-swap write that matched no row
// because a concurrent transition changed the status first. Callers re-read
// and surface NoChange or IllegalTransition; the repository never retries.
var ErrStaleStatus = errors.New("issue status changed concurrently")

// IssueFilter narrows listings to an actor's visibility scope plus optional
// query refinements. At most one of SubmittedBy/District/Branch is set.
type IssueFilter struct {
	SubmittedBy *string
	District    *string
	Branch      *string
	Statuses    []domain.IssueStatus
	Limit       int
	Offset      int
}

// IssueRepository encapsulates issue persistence. Writes always carry the
// full next-state object, audit trail included, in a single statement.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	// UpdateFromStatus persists the issue only if the stored status still
	// equals expected. Returns ErrStaleStatus when the row moved on.
	UpdateFromStatus(ctx context.Context, issue *domain.Issue, expected domain.IssueStatus) error
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	// DeletePending removes the issue only while it is still Pending.
	DeletePending(ctx context.Context, id string) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, device_id, complaint_type, description, priority_level, under_warranty,
               attachment_ref, location, branch, status, last_requested_status, audit_trail,
               assigned_to, submitted_by, submitted_at, dc_decided_at, super_admin_decided_at,
               assigned_at, started_at, resolved_at, reviewed_at, completed_at, reopened_at,
               created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (device_id, complaint_type, description, priority_level, under_warranty,
            attachment_ref, location, branch, status, last_requested_status, audit_trail,
            submitted_by, submitted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.DeviceID,
		issue.ComplaintType,
		issue.Description,
		issue.PriorityLevel,
		issue.UnderWarranty,
		issue.AttachmentRef,
		issue.Location,
		issue.Branch,
		issue.Status,
		nullableStatus(issue.LastRequestedStatus),
		issue.AuditTrail,
		issue.SubmittedBy,
		issue.SubmittedAt,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanIssue(row)
}

func (r *issueRepository) UpdateFromStatus(ctx context.Context, issue *domain.Issue, expected domain.IssueStatus) error {
	// Historical rows may still carry a legacy free-text status; the guard
	// matches every stored form that resolves to the expected value and
	// always writes the canonical value back.
	const query = `
        UPDATE issues SET status=$1, last_requested_status=$2, audit_trail=$3, assigned_to=$4,
            dc_decided_at=$5, super_admin_decided_at=$6, assigned_at=$7, started_at=$8,
            resolved_at=$9, reviewed_at=$10, completed_at=$11, reopened_at=$12, updated_at=NOW()
        WHERE id=$13 AND LOWER(status) = ANY($14)`
	cmd, err := r.pool.Exec(ctx, query,
		issue.Status,
		nullableStatus(issue.LastRequestedStatus),
		issue.AuditTrail,
		issue.AssignedTo,
		issue.DCDecidedAt,
		issue.SuperAdminDecidedAt,
		issue.AssignedAt,
		issue.StartedAt,
		issue.ResolvedAt,
		issue.ReviewedAt,
		issue.CompletedAt,
		issue.ReopenedAt,
		issue.ID,
		expected.StorageForms(),
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmittedBy != nil {
		args = append(args, *filter.SubmittedBy)
		clauses = append(clauses, fmt.Sprintf("submitted_by=$%d", len(args)))
	}
	if filter.District != nil {
		args = append(args, *filter.District)
		clauses = append(clauses, fmt.Sprintf("location=$%d", len(args)))
	}
	if filter.Branch != nil {
		args = append(args, domain.HeadOfficeLocation(*filter.Branch))
		composite := fmt.Sprintf("location=$%d", len(args))
		args = append(args, domain.HeadOfficePrefix)
		bare := fmt.Sprintf("location=$%d", len(args))
		args = append(args, *filter.Branch)
		clauses = append(clauses, fmt.Sprintf("(%s OR (%s AND branch=$%d))", composite, bare, len(args)))
	}
	if len(filter.Statuses) > 0 {
		forms := []string{}
		for _, status := range filter.Statuses {
			forms = append(forms, status.StorageForms()...)
		}
		args = append(args, forms)
		clauses = append(clauses, fmt.Sprintf("LOWER(status) = ANY($%d)", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d`,
		issueColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

func (r *issueRepository) DeletePending(ctx context.Context, id string) error {
	const query = `DELETE FROM issues WHERE id=$1 AND LOWER(status) = ANY($2)`
	cmd, err := r.pool.Exec(ctx, query, id, domain.StatusPending.StorageForms())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	var rawStatus string
	var rawRequested *string
	if err := row.Scan(
		&issue.ID,
		&issue.DeviceID,
		&issue.ComplaintType,
		&issue.Description,
		&issue.PriorityLevel,
		&issue.UnderWarranty,
		&issue.AttachmentRef,
		&issue.Location,
		&issue.Branch,
		&rawStatus,
		&rawRequested,
		&issue.AuditTrail,
		&issue.AssignedTo,
		&issue.SubmittedBy,
		&issue.SubmittedAt,
		&issue.DCDecidedAt,
		&issue.SuperAdminDecidedAt,
		&issue.AssignedAt,
		&issue.StartedAt,
		&issue.ResolvedAt,
		&issue.ReviewedAt,
		&issue.CompletedAt,
		&issue.ReopenedAt,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	issue.Status = normalizeStatus(rawStatus)
	if rawRequested != nil {
		issue.LastRequestedStatus = normalizeStatus(*rawRequested)
	}
	return &issue, nil
}

// normalizeStatus resolves legacy free-text statuses on read. Values the
// registry cannot resolve pass through untouched so old rows stay visible.
func normalizeStatus(raw string) domain.IssueStatus {
	if status, ok := domain.ParseStatus(raw); ok {
		return status
	}
	return domain.IssueStatus(raw)
}

func nullableStatus(status domain.IssueStatus) *string {
	if status == "" {
		return nil
	}
	s := string(status)
	return &s
}
