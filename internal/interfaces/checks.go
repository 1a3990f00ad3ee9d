package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/library"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

// =============================================================================
// Background Work
// =============================================================================

// Delay sweep
var _ tasks.DelayRecorder = (*library.Service)(nil)
var _ library.DelayQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)

// Audit retention
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Sessions
// =============================================================================

var _ scs.Store = (*auth.RedisStore)(nil)
