package softdelete

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// deleteBatchSize bounds the number of records one bulk statement touches,
// keeping bind lists below the drivers' parameter limits.
const deleteBatchSize = 1000

// Hooks are the cascade actions run before records of one kind are deleted.
// Both run inside the deleting transaction; tx and the query set handed to
// PreDeleteBulk are bound to it.
type Hooks[T any] struct {
	// PreDelete runs before a single active instance is deleted.
	PreDelete func(ctx context.Context, tx *gorm.DB, instance *T) error
	// PreDeleteBulk runs before a set of active records is deleted.
	PreDeleteBulk func(ctx context.Context, active *QuerySet[T]) error
}

// Pagination restricts materialising reads to one page.
type Pagination struct {
	Page     int
	PageSize int
}

type preload struct {
	name string
	args []interface{}
}

// QuerySet accumulates predicates over one soft-deletable model. Nothing is
// executed until a materialising or deleting method is called, and every
// chaining method returns a new query set leaving the receiver untouched.
type QuerySet[T any] struct {
	db     *gorm.DB
	hooks  Hooks[T]
	entity func(*T) Entity

	scopes   []func(*gorm.DB) *gorm.DB
	orders   []interface{}
	preloads []preload
	page     *Pagination
}

// New creates a query set over every record of T, deleted or not.
func New[T any, PT interface {
	*T
	Entity
}](db *gorm.DB, hooks Hooks[T]) *QuerySet[T] {
	return &QuerySet[T]{
		db:     db,
		hooks:  hooks,
		entity: func(instance *T) Entity { return PT(instance) },
	}
}

func (qs *QuerySet[T]) clone() *QuerySet[T] {
	c := *qs
	c.scopes = append([]func(*gorm.DB) *gorm.DB(nil), qs.scopes...)
	c.orders = append([]interface{}(nil), qs.orders...)
	c.preloads = append([]preload(nil), qs.preloads...)
	return &c
}

func (qs *QuerySet[T]) with(scope func(*gorm.DB) *gorm.DB) *QuerySet[T] {
	c := qs.clone()
	c.scopes = append(c.scopes, scope)
	return c
}

// DB returns the connection the query set executes on.
func (qs *QuerySet[T]) DB() *gorm.DB {
	return qs.db
}

// On returns the same query set bound to another connection, typically a
// transaction.
func (qs *QuerySet[T]) On(db *gorm.DB) *QuerySet[T] {
	c := qs.clone()
	c.db = db
	return c
}

// Filter adds a condition in any form accepted by gorm's Where.
func (qs *QuerySet[T]) Filter(query interface{}, args ...interface{}) *QuerySet[T] {
	return qs.with(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

// Exclude adds a negated condition in any form accepted by gorm's Not.
func (qs *QuerySet[T]) Exclude(query interface{}, args ...interface{}) *QuerySet[T] {
	return qs.with(func(db *gorm.DB) *gorm.DB {
		return db.Not(query, args...)
	})
}

// Active restricts the query set to records that have not been deleted.
func (qs *QuerySet[T]) Active() *QuerySet[T] {
	return qs.Filter(clause.Eq{Column: deletionColumn(), Value: nil})
}

// Deleted restricts the query set to records that have been deleted.
func (qs *QuerySet[T]) Deleted() *QuerySet[T] {
	return qs.Filter(clause.Neq{Column: deletionColumn(), Value: nil})
}

// All returns an unchanged copy of the query set.
func (qs *QuerySet[T]) All() *QuerySet[T] {
	return qs.clone()
}

// None returns a query set that matches nothing.
func (qs *QuerySet[T]) None() *QuerySet[T] {
	return qs.Filter("1 = 0")
}

// Order sorts materialised results.
func (qs *QuerySet[T]) Order(value interface{}) *QuerySet[T] {
	c := qs.clone()
	c.orders = append(c.orders, value)
	return c
}

// Preload loads an association alongside materialised results.
func (qs *QuerySet[T]) Preload(name string, args ...interface{}) *QuerySet[T] {
	c := qs.clone()
	c.preloads = append(c.preloads, preload{name: name, args: args})
	return c
}

// Paginate restricts materialised results to one page. Deletes ignore it.
func (qs *QuerySet[T]) Paginate(p Pagination) *QuerySet[T] {
	c := qs.clone()
	c.page = &p
	return c
}

// Subquery selects one column of the matching records, for use as a value
// in another query's conditions.
func (qs *QuerySet[T]) Subquery(column string) *gorm.DB {
	return qs.query(context.Background()).
		Select("?", clause.Column{Table: clause.CurrentTable, Name: column})
}

func (qs *QuerySet[T]) query(ctx context.Context) *gorm.DB {
	tx := qs.db.WithContext(ctx).Unscoped().Model(new(T))
	for _, scope := range qs.scopes {
		tx = scope(tx)
	}
	return tx
}

func (qs *QuerySet[T]) read(ctx context.Context) *gorm.DB {
	tx := qs.query(ctx)
	for _, order := range qs.orders {
		tx = tx.Order(order)
	}
	for _, p := range qs.preloads {
		tx = tx.Preload(p.name, p.args...)
	}
	if qs.page != nil {
		tx = paginate(*qs.page)(tx)
	}
	return tx
}

func paginate(pagination Pagination) func(*gorm.DB) *gorm.DB {
	return func(conn *gorm.DB) *gorm.DB {
		page := 1
		if pagination.Page > 0 {
			page = pagination.Page
		}

		pageSize := 25
		if pagination.PageSize > 0 {
			pageSize = pagination.PageSize
		}

		offset := (page - 1) * pageSize
		return conn.Offset(offset).Limit(pageSize)
	}
}

// Find materialises the matching records.
func (qs *QuerySet[T]) Find(ctx context.Context) ([]T, error) {
	var records []T
	if err := qs.read(ctx).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// First returns the first matching record in the query set's order, or by
// primary key if none was given.
func (qs *QuerySet[T]) First(ctx context.Context) (*T, error) {
	var record T
	if err := qs.read(ctx).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Get returns the matching record with the given ID.
func (qs *QuerySet[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	record, err := qs.Filter(clause.Eq{Column: idColumn(), Value: id}).First(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("record with ID %s does not exist: %w", id, ErrNotFound)
	}
	return record, err
}

// Count returns the number of matching records.
func (qs *QuerySet[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := qs.query(ctx).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists reports whether any record matches.
func (qs *QuerySet[T]) Exists(ctx context.Context) (bool, error) {
	count, err := qs.Count(ctx)
	return count > 0, err
}

// IDs returns the primary keys of the matching records.
func (qs *QuerySet[T]) IDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := qs.query(ctx).
		Distinct("?", clause.Column{Table: clause.CurrentTable, Name: "id"}).
		Find(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// unfiltered is a fresh query set over every record, sharing the receiver's
// hooks but bound to db.
func (qs *QuerySet[T]) unfiltered(db *gorm.DB) *QuerySet[T] {
	return &QuerySet[T]{db: db, hooks: qs.hooks, entity: qs.entity}
}

// byIDs is a fresh query set, sharing the receiver's connection and hooks,
// over exactly the given records.
func (qs *QuerySet[T]) byIDs(ids []uuid.UUID) *QuerySet[T] {
	values := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}

	return qs.unfiltered(qs.db).Filter(clause.IN{Column: idColumn(), Values: values})
}

// batches splits ids into runs of at most deleteBatchSize.
func batches(ids []uuid.UUID) [][]uuid.UUID {
	var chunks [][]uuid.UUID
	for len(ids) > deleteBatchSize {
		chunks = append(chunks, ids[:deleteBatchSize])
		ids = ids[deleteBatchSize:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

// Delete soft-deletes the active subset of the query set. The bulk cascade
// hook sees exactly the records that are about to be marked, one batch at a
// time, and every batch shares the same transaction and deletion time.
func (qs *QuerySet[T]) Delete(ctx context.Context) error {
	return qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := qs.On(tx).Active().IDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to select records to delete: %w", err)
		}

		now := tx.NowFunc()
		for _, chunk := range batches(ids) {
			active := qs.On(tx).byIDs(chunk).Active()
			if qs.hooks.PreDeleteBulk != nil {
				if err := qs.hooks.PreDeleteBulk(ctx, active); err != nil {
					return err
				}
			}

			err = active.query(ctx).Update(DeletionColumn, now).Error
			if err != nil {
				return fmt.Errorf("failed to mark records deleted: %w", err)
			}
		}
		return nil
	})
}

// HardDelete soft-deletes the query set, so cascade hooks fire exactly as
// they would for Delete, then physically removes every record it matched.
func (qs *QuerySet[T]) HardDelete(ctx context.Context) error {
	return qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := qs.On(tx).IDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to select records to delete: %w", err)
		}

		for _, chunk := range batches(ids) {
			matched := qs.On(tx).byIDs(chunk)
			if err := matched.Delete(ctx); err != nil {
				return err
			}

			if err := matched.query(ctx).Delete(new(T)).Error; err != nil {
				return fmt.Errorf("failed to remove records: %w", err)
			}
		}
		return nil
	})
}

// DeleteOne soft-deletes a single instance. Deleting an instance that is
// already deleted, in memory or in storage, does nothing, so PreDelete never
// fires twice for it and the stored deletion time is kept.
func (qs *QuerySet[T]) DeleteOne(ctx context.Context, instance *T) error {
	entity := qs.entity(instance)
	if entity.IsDeleted() {
		return nil
	}

	return qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return qs.deleteOne(ctx, tx, instance, entity)
	})
}

func (qs *QuerySet[T]) deleteOne(ctx context.Context, tx *gorm.DB, instance *T, entity Entity) error {
	pk, err := primaryKey(ctx, tx, instance)
	if err != nil {
		return err
	}

	active, err := qs.unfiltered(tx).Active().Filter(clause.Eq{Column: pk.column, Value: pk.value}).Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check record: %w", err)
	}
	if !active {
		return nil
	}

	if qs.hooks.PreDelete != nil {
		if err := qs.hooks.PreDelete(ctx, tx, instance); err != nil {
			return err
		}
	}

	now := tx.NowFunc()
	res := tx.Unscoped().
		Model(instance).
		Where(clause.Eq{Column: deletionColumn(), Value: nil}).
		Update(DeletionColumn, now)
	if res.Error != nil {
		return fmt.Errorf("failed to mark record deleted: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		entity.markDeleted(now)
	}

	return nil
}

// HardDeleteOne soft-deletes the instance, if it is still active, then
// physically removes it.
func (qs *QuerySet[T]) HardDeleteOne(ctx context.Context, instance *T) error {
	entity := qs.entity(instance)

	return qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entity.IsActive() {
			if err := qs.deleteOne(ctx, tx, instance, entity); err != nil {
				return err
			}
		}

		if err := tx.Unscoped().Delete(instance).Error; err != nil {
			return fmt.Errorf("failed to remove record: %w", err)
		}
		return nil
	})
}

type primaryKeyValue struct {
	column clause.Column
	value  interface{}
}

// primaryKey reads the instance's primary key through its gorm schema.
func primaryKey(ctx context.Context, tx *gorm.DB, instance interface{}) (primaryKeyValue, error) {
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(instance); err != nil {
		return primaryKeyValue{}, fmt.Errorf("failed to parse model: %w", err)
	}

	field := stmt.Schema.PrioritizedPrimaryField
	if field == nil {
		return primaryKeyValue{}, fmt.Errorf("%s has no primary key", stmt.Schema.Name)
	}

	value, _ := field.ValueOf(ctx, reflect.Indirect(reflect.ValueOf(instance)))
	return primaryKeyValue{
		column: clause.Column{Table: clause.CurrentTable, Name: field.DBName},
		value:  value,
	}, nil
}

func deletionColumn() clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: DeletionColumn}
}

func idColumn() clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: "id"}
}
