package repository

import (
	"context"
	"time"

	"github.com/feastline/backoffice/internal/auth"
	"github.com/feastline/backoffice/internal/domain/catalog"
)

// Audit stamping is an explicit pre-write step: every insert sets all four
// audit fields, every update refreshes update_time/update_user only. The
// operator id comes from the request context; writes outside a request
// (seeding, tooling) stamp user 0.

func stampInsert(ctx context.Context, a *catalog.Audit) {
	now := time.Now()
	uid, _ := auth.UserID(ctx)
	a.CreateTime = now
	a.CreateUser = uid
	a.UpdateTime = now
	a.UpdateUser = uid
}

func stampUpdate(ctx context.Context, a *catalog.Audit) {
	uid, _ := auth.UserID(ctx)
	a.UpdateTime = time.Now()
	a.UpdateUser = uid
}
