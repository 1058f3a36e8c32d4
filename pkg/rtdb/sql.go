package rtdb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Node 每个顶层集合一行，Value 保存整棵子树的 JSON
type Node struct {
	Key       string         `gorm:"column:node_key;primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (Node) TableName() string {
	return "rtdb_nodes"
}

// SQLBackend 基于 GORM 的持久化树形存储（SQLite / PostgreSQL）
// 每次写入在一个数据库事务内完成
type SQLBackend struct {
	db   *gorm.DB
	keys KeyGenerator
}

// NewSQLBackend 创建 SQL 存储并自动建表
func NewSQLBackend(db *gorm.DB) (*SQLBackend, error) {
	if err := db.AutoMigrate(&Node{}); err != nil {
		return nil, err
	}
	return &SQLBackend{db: db, keys: NewKeyGenerator()}, nil
}

func (b *SQLBackend) Get(ctx context.Context, path string) (any, error) {
	segs := Segments(path)
	tree, err := b.load(b.db.WithContext(ctx), []string{segs[0]})
	if err != nil {
		return nil, err
	}
	return getAt(tree, segs), nil
}

func (b *SQLBackend) Set(ctx context.Context, path string, value any) error {
	return b.mutate(ctx, []string{path}, func(tree map[string]any) {
		setAt(tree, Segments(path), value)
	})
}

func (b *SQLBackend) Push(ctx context.Context, path string, value any) (string, error) {
	key := b.keys.NewKey()
	err := b.mutate(ctx, []string{path}, func(tree map[string]any) {
		setAt(tree, append(Segments(path), key), value)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (b *SQLBackend) Update(ctx context.Context, path string, fields map[string]any) error {
	return b.mutate(ctx, []string{path}, func(tree map[string]any) {
		updateAt(tree, Segments(path), fields)
	})
}

func (b *SQLBackend) Delete(ctx context.Context, path string) error {
	return b.mutate(ctx, []string{path}, func(tree map[string]any) {
		setAt(tree, Segments(path), nil)
	})
}

func (b *SQLBackend) MultiUpdate(ctx context.Context, updates map[string]any) error {
	paths := make([]string, 0, len(updates))
	for p := range updates {
		paths = append(paths, p)
	}
	return b.mutate(ctx, paths, func(tree map[string]any) {
		for p, v := range updates {
			setAt(tree, Segments(p), v)
		}
	})
}

func (b *SQLBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mutate 在事务中加载受影响的顶层节点，应用修改后写回
func (b *SQLBackend) mutate(ctx context.Context, paths []string, apply func(tree map[string]any)) error {
	roots := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		r := Root(p)
		if !seen[r] {
			seen[r] = true
			roots = append(roots, r)
		}
	}

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tree, err := b.load(tx, roots)
		if err != nil {
			return err
		}

		apply(tree)

		for _, r := range roots {
			value, ok := tree[r]
			if !ok || value == nil {
				if err := tx.Delete(&Node{}, "node_key = ?", r).Error; err != nil {
					return err
				}
				continue
			}
			raw, err := json.Marshal(value)
			if err != nil {
				return err
			}
			node := Node{Key: r, Value: datatypes.JSON(raw), UpdatedAt: time.Now()}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "node_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&node).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *SQLBackend) load(tx *gorm.DB, roots []string) (map[string]any, error) {
	var nodes []Node
	if err := tx.Where("node_key IN ?", roots).Find(&nodes).Error; err != nil {
		return nil, err
	}
	tree := make(map[string]any, len(nodes))
	for _, n := range nodes {
		var v any
		if err := json.Unmarshal(n.Value, &v); err != nil {
			return nil, errors.Join(ErrInvalidData, err)
		}
		tree[n.Key] = v
	}
	return tree, nil
}
