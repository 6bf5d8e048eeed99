package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"rotorcharter/internal/domain"
	apperrors "rotorcharter/pkg/errors"
)

// GormRepository stores records in a SQL table through gorm.
type GormRepository[T any, PT recordPtr[T]] struct {
	db            *gorm.DB
	resource      string
	searchColumns []string
}

// NewGormContactRepository returns the SQL contact store.
func NewGormContactRepository(db *gorm.DB) *GormRepository[domain.ContactRecord, *domain.ContactRecord] {
	return &GormRepository[domain.ContactRecord, *domain.ContactRecord]{
		db:            db,
		resource:      "contact",
		searchColumns: []string{"name", "email", "message"},
	}
}

// NewGormQuoteRepository returns the SQL quote store.
func NewGormQuoteRepository(db *gorm.DB) *GormRepository[domain.QuoteRecord, *domain.QuoteRecord] {
	return &GormRepository[domain.QuoteRecord, *domain.QuoteRecord]{
		db:            db,
		resource:      "quote",
		searchColumns: []string{"first_name", "last_name", "email", "special_requests"},
	}
}

func (r *GormRepository[T, PT]) Create(ctx context.Context, rec *T) error {
	PT(rec).Stamp(newID(), now())
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return apperrors.Persistence("save "+r.resource, err)
	}
	return nil
}

func (r *GormRepository[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	var rec T
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(r.resource, id)
		}
		return nil, apperrors.Persistence("get "+r.resource, err)
	}
	return &rec, nil
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *GormRepository[T, PT]) List(ctx context.Context, f ListFilter) ([]T, error) {
	f = f.Bounded()
	q := r.db.WithContext(ctx).Model(new(T))

	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		clauses := make([]string, len(r.searchColumns))
		args := make([]any, len(r.searchColumns))
		for i, col := range r.searchColumns {
			clauses[i] = "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
			args[i] = like
		}
		q = q.Where(strings.Join(clauses, " OR "), args...)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Read != nil {
		q = q.Where("is_read = ?", *f.Read)
	}

	records := make([]T, 0)
	if err := q.Order("created_at DESC").Offset(f.Skip).Limit(f.Limit).Find(&records).Error; err != nil {
		return nil, apperrors.Persistence("list "+r.resource+"s", err)
	}
	return records, nil
}

func (r *GormRepository[T, PT]) Replace(ctx context.Context, id string, rec *T) (*T, error) {
	PT(rec).Stamp(id, now())
	PT(rec).Touch(now())

	res := r.db.WithContext(ctx).Model(rec).Select("*").Omit("created_at").Updates(rec)
	if res.Error != nil {
		return nil, apperrors.Persistence("update "+r.resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound(r.resource, id)
	}
	return r.Get(ctx, id)
}

func (r *GormRepository[T, PT]) SetStatus(ctx context.Context, id, status string) (*T, error) {
	return r.patch(ctx, id, "status", status)
}

func (r *GormRepository[T, PT]) SetRead(ctx context.Context, id string, read bool) (*T, error) {
	return r.patch(ctx, id, "is_read", read)
}

func (r *GormRepository[T, PT]) patch(ctx context.Context, id, column string, value any) (*T, error) {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(map[string]any{
		column:       value,
		"updated_at": now(),
	})
	if res.Error != nil {
		return nil, apperrors.Persistence("update "+r.resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound(r.resource, id)
	}
	return r.Get(ctx, id)
}

func (r *GormRepository[T, PT]) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return apperrors.Persistence("delete "+r.resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(r.resource, id)
	}
	return nil
}

func (r *GormRepository[T, PT]) Stats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{ByStatus: map[string]int64{}}

	if err := db.Model(new(T)).Count(&stats.Total).Error; err != nil {
		return nil, apperrors.Persistence("count "+r.resource+"s", err)
	}
	if err := db.Model(new(T)).Where("is_read = ?", false).Count(&stats.Unread).Error; err != nil {
		return nil, apperrors.Persistence("count "+r.resource+"s", err)
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(new(T)).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, apperrors.Persistence("count "+r.resource+"s", err)
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
	}
	return stats, nil
}

func (r *GormRepository[T, PT]) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
