package repository

import (
	"context"
	"time"

	"bookbazar/internal/domain/model"
)

// /admin/audit-logs の絞り込み。ゼロ値の項目は条件にしない
type AdminAuditLogListFilter struct {
	Page  int
	Limit int

	ActorUserID  *int64
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

// 追記のみ。更新・削除はしない
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順
	ListAdmin(ctx context.Context, f AdminAuditLogListFilter) ([]model.AuditLog, int64, error)
}
