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

package datastore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	ErrNilEntity      = errors.New("entity is nil")
	ErrPrimaryEmpty   = errors.New("entity primary key is empty")
	ErrTableNameEmpty = errors.New("entity table name is empty")
	ErrRecordExist    = errors.New("record already exists")
	ErrRecordNotExist = errors.New("record does not exist")
	ErrEntityInvalid  = errors.New("entity is invalid")
)

// NewDBError wraps a low-level database error.
func NewDBError(err error) error {
	return fmt.Errorf("database error: %w", err)
}

// Entity is the contract every persisted table type implements.
type Entity interface {
	SetCreateTime(time time.Time)
	SetUpdateTime(time time.Time)
	PrimaryKey() string
	TableName() string
	Index() map[string]interface{}
}

// NewEntity creates a fresh instance of the same concrete type as the
// prototype entity, for scanning query rows.
func NewEntity(prototype Entity) (Entity, error) {
	if prototype == nil {
		return nil, ErrNilEntity
	}
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	e, ok := reflect.New(t).Interface().(Entity)
	if !ok {
		return nil, ErrEntityInvalid
	}
	return e, nil
}

const (
	SortOrderAscending  = 1
	SortOrderDescending = -1
)

// SortOption orders query results by a column.
type SortOption struct {
	Key   string
	Order int
}

// FuzzyQueryOption is a LIKE-style filter.
type FuzzyQueryOption struct {
	Key   string
	Query string
}

// InQueryOption is an IN-style filter.
type InQueryOption struct {
	Key    string
	Values []string
}

// IsNotExistQueryOption filters rows where the column is NULL.
type IsNotExistQueryOption struct {
	Key string
}

type FilterOptions struct {
	Queries    []FuzzyQueryOption
	In         []InQueryOption
	IsNotExist []IsNotExistQueryOption
}

type ListOptions struct {
	FilterOptions
	Page     int
	PageSize int
	SortBy   []SortOption
}

// Datastore is the persistence contract the host and plugin manager use.
type Datastore interface {
	// Add inserts a new record; fails if the indexed record already exists.
	Add(ctx context.Context, entity Entity) error

	// Put inserts or updates a record keyed by its index.
	Put(ctx context.Context, entity Entity) error

	// Get loads a single record matching the entity's index into the entity.
	Get(ctx context.Context, entity Entity) error

	// List queries records matching the entity's index plus options.
	List(ctx context.Context, entity Entity, options *ListOptions) ([]Entity, error)

	// Count counts records matching the entity's index plus filters.
	Count(ctx context.Context, entity Entity, options *FilterOptions) (int64, error)

	// IsExist reports whether a record matching the entity's index exists.
	IsExist(ctx context.Context, entity Entity) (bool, error)

	// Delete removes all records matching the entity's index.
	Delete(ctx context.Context, entity Entity) error
}

var defaultDatastore Datastore

// SetDefaultDatastore installs the process-wide datastore (called once at
// startup).
func SetDefaultDatastore(ds Datastore) {
	defaultDatastore = ds
}

// GetDefaultDatastore returns the process-wide datastore, nil before startup.
func GetDefaultDatastore() Datastore {
	return defaultDatastore
}
