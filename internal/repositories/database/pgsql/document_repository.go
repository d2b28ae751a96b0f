package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
)

type PgxDocumentRepository struct {
	BaseRepository
}

func newPgxDocumentRepository(db *pgxpool.Pool) portsrepo.DocumentRepository {
	return &PgxDocumentRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.DocumentRepository = (*PgxDocumentRepository)(nil)

const documentColumns = `document_id, loan_id, name, type, status, due_date,
	file_path, file_name, uploaded_at, created_at, updated_at`

// document scope keys off the owning loan's officer.
const documentScopeCol = "loan_id IN (SELECT loan_id FROM loans WHERE loan_officer_id"

func applyDocumentScope(b *condBuilder, scope access.Scope) {
	if scope.Unrestricted {
		return
	}
	if scope.MatchesNothing() {
		b.conds = append(b.conds, "FALSE")
		return
	}
	b.addf(documentScopeCol+" = $%d)", scope.LoanOfficerID)
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(
		&d.DocumentID,
		&d.LoanID,
		&d.Name,
		&d.Type,
		&d.Status,
		&d.DueDate,
		&d.FilePath,
		&d.FileName,
		&d.UploadedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PgxDocumentRepository) SaveDocument(ctx context.Context, doc domain.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		doc.DocumentID,
		doc.LoanID,
		doc.Name,
		doc.Type,
		doc.Status,
		doc.DueDate,
		doc.FilePath,
		doc.FileName,
		doc.UploadedAt,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (r *PgxDocumentRepository) FindDocumentByID(ctx context.Context, documentID string, scope access.Scope) (*domain.Document, error) {
	b := &condBuilder{}
	b.addf("document_id = $%d", documentID)
	applyDocumentScope(b, scope)

	query := `SELECT ` + documentColumns + ` FROM documents` + b.where() + `;`
	doc, err := scanDocument(r.Pool.QueryRow(ctx, query, b.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document by ID %s: %w", documentID, err)
	}
	return doc, nil
}

func (r *PgxDocumentRepository) FindDocuments(ctx context.Context, filter portsrepo.DocumentFilter) ([]domain.Document, int, error) {
	filter.Page.Normalize()

	b := &condBuilder{}
	applyDocumentScope(b, filter.Scope)
	if filter.LoanID != "" {
		b.addf("loan_id = $%d", filter.LoanID)
	}
	if filter.Status != "" {
		b.addf("status = $%d", filter.Status)
	}
	if filter.Type != "" {
		b.addf("type = $%d", filter.Type)
	}

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`+b.where(), b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+documentColumns+` FROM documents%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d;`,
		b.where(), b.next(0), b.next(1))
	rows, err := r.Pool.Query(ctx, query, append(b.args, filter.Page.Limit, filter.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, *d)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating document rows: %w", rows.Err())
	}
	return docs, total, nil
}

func (r *PgxDocumentRepository) UpdateDocument(ctx context.Context, doc domain.Document) error {
	query := `
		UPDATE documents
		SET name = $1, type = $2, status = $3, due_date = $4, file_path = $5,
			file_name = $6, uploaded_at = $7, updated_at = $8
		WHERE document_id = $9;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		doc.Name,
		doc.Type,
		doc.Status,
		doc.DueDate,
		doc.FilePath,
		doc.FileName,
		doc.UploadedAt,
		doc.UpdatedAt,
		doc.DocumentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", doc.DocumentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxDocumentRepository) DeleteDocument(ctx context.Context, documentID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM documents WHERE document_id = $1;`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxDocumentRepository) CountDocumentsByStatus(ctx context.Context, scope access.Scope) ([]domain.GroupCount, error) {
	b := &condBuilder{}
	applyDocumentScope(b, scope)

	query := `SELECT status, COUNT(*) FROM documents` + b.where() + ` GROUP BY status;`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group documents by status: %w", err)
	}
	defer rows.Close()

	counts := []domain.GroupCount{}
	for rows.Next() {
		var g domain.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan document group row: %w", err)
		}
		counts = append(counts, g)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating document group rows: %w", rows.Err())
	}
	return counts, nil
}
