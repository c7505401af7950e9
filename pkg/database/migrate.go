package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtyMigration 上次迁移中途失败，需要人工修复后再启动
var ErrDirtyMigration = errors.New("数据库迁移处于 dirty 状态")

// Migrator 内嵌 SQL 迁移（users / accounts / sessions / schedules）
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewMigrator 基于已有连接创建迁移器，不另开连接
func NewMigrator(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载迁移文件失败: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		return nil, fmt.Errorf("创建迁移驱动失败: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("初始化迁移实例失败: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// Up 应用全部未执行的迁移；dirty 状态下拒绝继续
func (g *Migrator) Up() error {
	if _, dirty, err := g.Version(); err != nil {
		return err
	} else if dirty {
		return ErrDirtyMigration
	}
	if err := g.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}
	version, _, err := g.Version()
	if err != nil {
		return err
	}
	g.logger.Info("数据库迁移完成", zap.Uint("version", version))
	return nil
}

// Down 回滚全部迁移，仅集成测试清理时使用
func (g *Migrator) Down() error {
	if err := g.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("回滚迁移失败: %w", err)
	}
	return nil
}

// Version 当前版本；尚未迁移时返回 0
func (g *Migrator) Version() (uint, bool, error) {
	v, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("读取迁移版本失败: %w", err)
	}
	return v, dirty, nil
}

// RunMigrations 启动时执行迁移
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	g, err := NewMigrator(db, logger)
	if err != nil {
		return err
	}
	return g.Up()
}
