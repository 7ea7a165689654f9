package option

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/billflow/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

// QueryOption mutates a gorm statement before it runs.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ    Operator = "="
	NEQ   Operator = "<>"
	GT    Operator = ">"
	GTE   Operator = ">="
	LT    Operator = "<"
	LTE   Operator = "<="
	IN    Operator = "IN"
	LIKE  Operator = "LIKE"
	ILIKE Operator = "ILIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds one WHERE condition. ILIKE lowers both sides so it
// behaves the same on every dialect.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		col := clause.Column{Name: cond.Field}
		switch cond.Operator {
		case EQ, "":
			return db.Where(clause.Eq{Column: col, Value: cond.Value})
		case NEQ:
			return db.Where(clause.Neq{Column: col, Value: cond.Value})
		case GT:
			return db.Where(clause.Gt{Column: col, Value: cond.Value})
		case GTE:
			return db.Where(clause.Gte{Column: col, Value: cond.Value})
		case LT:
			return db.Where(clause.Lt{Column: col, Value: cond.Value})
		case LTE:
			return db.Where(clause.Lte{Column: col, Value: cond.Value})
		case IN:
			return db.Where(clause.IN{Column: col, Values: toValues(cond.Value)})
		case LIKE:
			return db.Where(clause.Like{Column: col, Value: cond.Value})
		case ILIKE:
			value := strings.ToLower(fmt.Sprint(cond.Value))
			return db.Where(fmt.Sprintf("LOWER(%s) LIKE ?", cond.Field), value)
		default:
			db.AddError(fmt.Errorf("unsupported operator %q", cond.Operator))
			return db
		}
	})
}

// WithSortBy orders by field; desc selects descending order.
func WithSortBy(field string, desc bool) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: desc})
	})
}

// WithQuerySortBy parses "field" or "field:desc".
func WithQuerySortBy(sortBy string) QueryOption {
	field, dir, _ := strings.Cut(strings.TrimSpace(sortBy), ":")
	return WithSortBy(field, strings.EqualFold(dir, "desc"))
}

// WithPreload eager-loads an association.
func WithPreload(association string, args ...any) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Preload(association, args...)
	})
}

// WithLockForUpdate locks selected rows until the transaction ends.
// sqlite has no row locks; its single writer already serialises transactions.
func WithLockForUpdate() QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
			return db
		}
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	})
}

// WithLimit caps the result set; a non-positive limit is ignored.
func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		return db
	})
}

// ApplyPagination seeks past the cursor in page.PageToken and fetches one
// extra row so callers can tell whether another page exists. Rows must be
// ordered by created_at desc, id desc.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 10
		}
		if token := strings.TrimSpace(page.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err != nil {
				db.AddError(ErrInvalidPageToken)
				return db
			}
			createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
			if err != nil {
				db.AddError(ErrInvalidPageToken)
				return db
			}
			id, err := strconv.ParseInt(cursor.ID, 10, 64)
			if err != nil {
				db.AddError(ErrInvalidPageToken)
				return db
			}
			db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
		}
		return db.Order("created_at desc, id desc").Limit(size + 1)
	})
}

func toValues(v any) []any {
	switch vals := v.(type) {
	case []any:
		return vals
	case []string:
		out := make([]any, len(vals))
		for i := range vals {
			out[i] = vals[i]
		}
		return out
	case []int64:
		out := make([]any, len(vals))
		for i := range vals {
			out[i] = vals[i]
		}
		return out
	default:
		return []any{v}
	}
}
