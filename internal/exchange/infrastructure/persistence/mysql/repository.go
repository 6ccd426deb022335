// Package mysql 提供仓储接口的 GORM 实现。
// 所有互斥都依赖数据库行锁（SELECT ... FOR UPDATE）与事务，
// 事务句柄经由 contextx 在同一工作单元内的各仓储之间传递。
package mysql

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/wyfcoding/exchange/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MySQL 错误码：锁等待超时 / 死锁回滚
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// getDB 优先使用 context 中的事务句柄
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db
}

// lockForUpdate 追加行锁子句
// sqlite（单元测试用）不支持 FOR UPDATE，事务本身退化为单写者串行
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// isLockContention 判断是否为锁等待超时或死锁
// 两者对调用方都意味着本次工作单元整体可重试
func isLockContention(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrLockWaitTimeout || mysqlErr.Number == mysqlErrDeadlock
	}
	return false
}

// runInTx 在事务中执行回调，事务句柄写入 context
func runInTx(ctx context.Context, db *gorm.DB, fn func(txCtx context.Context) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

// sortPair 返回升序排列的两个 ID
func sortPair(a, b uint) (uint, uint) {
	if a <= b {
		return a, b
	}
	return b, a
}
