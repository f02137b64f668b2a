//*****************************************************************************
// Copyright 2024-2025 The SiteForge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//*****************************************************************************

package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/siteforge/siteforge/internal/datastore"
	"github.com/siteforge/siteforge/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLite implements the Datastore interface.
type SQLite struct {
	db *gorm.DB
}

// New creates a new SQLite instance backed by the file at dbPath.
func New(dbPath string) (*SQLite, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		file, err := os.Create(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create database file: %v", err)
		}
		if err = file.Close(); err != nil {
			return nil, fmt.Errorf("failed to close database file: %v", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	return &SQLite{db: db}, nil
}

// Init auto-migrates the host table structures.
func (ds *SQLite) Init() error {
	if err := ds.db.AutoMigrate(
		&types.PluginRecord{},
	); err != nil {
		return fmt.Errorf("failed to initialize database tables: %v", err)
	}
	return nil
}

// GetDB exposes the underlying *gorm.DB. The entity registrar uses it to
// consult the live persistence metamodel.
func (ds *SQLite) GetDB() *gorm.DB {
	return ds.db
}

// Add inserts a new record.
func (ds *SQLite) Add(ctx context.Context, entity datastore.Entity) error {
	if entity == nil {
		return datastore.ErrNilEntity
	}
	if entity.TableName() == "" {
		return datastore.ErrTableNameEmpty
	}

	now := time.Now()
	entity.SetCreateTime(now)
	entity.SetUpdateTime(now)

	if err := ds.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("failed to add record: %v", err)
	}
	return nil
}

// Put inserts the record if its index matches nothing, updates it otherwise.
func (ds *SQLite) Put(ctx context.Context, entity datastore.Entity) error {
	if entity == nil {
		return datastore.ErrNilEntity
	}
	if entity.TableName() == "" {
		return datastore.ErrTableNameEmpty
	}

	exist, err := ds.IsExist(ctx, entity)
	if err != nil {
		return err
	}
	if !exist {
		return ds.Add(ctx, entity)
	}

	entity.SetUpdateTime(time.Now())
	db := ds.db.WithContext(ctx).Model(entity)
	for key, value := range entity.Index() {
		db = db.Where(fmt.Sprintf("%s = ?", key), value)
	}
	if err := db.Updates(entity).Error; err != nil {
		return fmt.Errorf("failed to update record: %v", err)
	}
	return nil
}

// Delete removes all records matching the entity's index.
func (ds *SQLite) Delete(ctx context.Context, entity datastore.Entity) error {
	if entity == nil {
		return datastore.ErrNilEntity
	}
	if entity.PrimaryKey() == "" {
		return datastore.ErrPrimaryEmpty
	}
	if entity.TableName() == "" {
		return datastore.ErrTableNameEmpty
	}

	db := ds.db.WithContext(ctx).Model(entity)
	for key, value := range entity.Index() {
		db = db.Where(fmt.Sprintf("%s = ?", key), value)
	}

	if err := db.Delete(entity).Error; err != nil {
		return fmt.Errorf("failed to delete record: %v", err)
	}
	return nil
}

// Get retrieves a single record.
func (ds *SQLite) Get(ctx context.Context, entity datastore.Entity) error {
	if entity == nil {
		return datastore.ErrNilEntity
	}
	if entity.PrimaryKey() == "" {
		return datastore.ErrPrimaryEmpty
	}
	if entity.TableName() == "" {
		return datastore.ErrTableNameEmpty
	}

	db := ds.db.WithContext(ctx).Model(entity)
	for key, value := range entity.Index() {
		db = db.Where(fmt.Sprintf("%s = ?", key), value)
	}

	if err := db.First(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return datastore.ErrRecordNotExist
		}
		return fmt.Errorf("failed to get record: %v", err)
	}
	return nil
}

// List queries multiple records.
func (ds *SQLite) List(ctx context.Context, entity datastore.Entity, options *datastore.ListOptions) ([]datastore.Entity, error) {
	if entity == nil {
		return nil, datastore.ErrNilEntity
	}
	if entity.TableName() == "" {
		return nil, datastore.ErrTableNameEmpty
	}

	db := ds.db.WithContext(ctx).Model(entity)
	for key, value := range entity.Index() {
		db = db.Where(fmt.Sprintf("%s = ?", key), value)
	}

	if options != nil {
		filters := buildFilterConditions(options.FilterOptions)
		if len(filters) > 0 {
			db = db.Where(strings.Join(filters, " AND "))
		}

		if len(options.SortBy) > 0 {
			for _, sort := range options.SortBy {
				order := "ASC"
				if sort.Order == datastore.SortOrderDescending {
					order = "DESC"
				}
				db = db.Order(sort.Key + " " + order)
			}
		}

		if options.PageSize > 0 {
			offset := (options.Page - 1) * options.PageSize
			db = db.Limit(options.PageSize).Offset(offset)
		}
	}

	list := make([]datastore.Entity, 0)
	rows, err := db.Rows()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, datastore.ErrRecordNotExist
		}
		return nil, datastore.NewDBError(err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		e, err := datastore.NewEntity(entity)
		if err != nil {
			return nil, datastore.ErrEntityInvalid
		}
		if err := ds.db.ScanRows(rows, e); err != nil {
			return nil, datastore.ErrEntityInvalid
		}
		list = append(list, e)
	}
	return list, nil
}

// Count counts the number of records.
func (ds *SQLite) Count(ctx context.Context, entity datastore.Entity, options *datastore.FilterOptions) (int64, error) {
	if entity == nil {
		return 0, datastore.ErrNilEntity
	}
	if entity.TableName() == "" {
		return 0, datastore.ErrTableNameEmpty
	}

	db := ds.db.WithContext(ctx).Model(entity)
	for key, value := range entity.Index() {
		db = db.Where(fmt.Sprintf("%s = ?", key), value)
	}

	if options != nil {
		filters := buildFilterConditions(*options)
		if len(filters) > 0 {
			db = db.Where(strings.Join(filters, " AND "))
		}
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %v", err)
	}
	return count, nil
}

// IsExist checks if a record exists.
func (ds *SQLite) IsExist(ctx context.Context, entity datastore.Entity) (bool, error) {
	if entity == nil {
		return false, datastore.ErrNilEntity
	}
	if entity.PrimaryKey() == "" {
		return false, datastore.ErrPrimaryEmpty
	}
	if entity.TableName() == "" {
		return false, datastore.ErrTableNameEmpty
	}

	db := ds.db.WithContext(ctx).Model(entity)
	for key, value := range entity.Index() {
		db = db.Where(fmt.Sprintf("%s = ?", key), value)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check record existence: %v", err)
	}
	return count > 0, nil
}

// buildFilterConditions builds filter conditions.
func buildFilterConditions(options datastore.FilterOptions) []string {
	filters := make([]string, 0)

	for _, query := range options.Queries {
		filters = append(filters, fmt.Sprintf("%s LIKE '%%%s%%'", query.Key, query.Query))
	}

	for _, in := range options.In {
		quotedValues := make([]string, len(in.Values))
		for i, value := range in.Values {
			quotedValues[i] = "'" + value + "'"
		}
		filters = append(filters, fmt.Sprintf("%s IN (%s)", in.Key, strings.Join(quotedValues, ", ")))
	}

	for _, notExist := range options.IsNotExist {
		filters = append(filters, fmt.Sprintf("%s IS NULL", notExist.Key))
	}

	return filters
}
