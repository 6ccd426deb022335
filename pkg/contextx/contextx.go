// Package contextx 提供事务句柄在 context 中的传递，
// 使仓储在同一工作单元内共享同一个数据库事务。
package contextx

import "context"

type txKey struct{}

// WithTx 将事务句柄写入 context
func WithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx 从 context 中取出事务句柄，不存在时返回 nil
func GetTx(ctx context.Context) any {
	if ctx == nil {
		return nil
	}
	return ctx.Value(txKey{})
}
