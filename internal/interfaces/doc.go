// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// ## Background Work
//
//   - tasks.DelayRecorder: records delays for overdue loans (library.Service)
//   - library.DelayQueue: lets the service hand a sweep to the queue (tasks.Client)
//   - scheduler.Enqueuer: cron jobs enqueue tasks instead of running inline (tasks.Client)
//   - tasks.AuditEventCleaner: prunes the audit trail (audit.Service)
//
// ## Sessions
//
//   - scs.Store: session persistence. SQLite uses scs/sqlite3store, MySQL
//     deployments use auth.RedisStore or the in-memory store.
//
// # Adding a New Right
//
// Rights are plain names checked by library.Service.authorize:
//
//  1. Add the constant in internal/entities/account.go
//
//     const RightManageReservations = "manage_reservations"
//
//  2. List it in internal/database/seed.yaml and grant it to the roles that
//     need it. Existing databases pick up new rights on the next start; new
//     grants to existing roles go through POST /api/roles/:id/rights/:right.
//
//  3. Guard the operation with
//     s.authorize(identity, entities.RightManageReservations) before any
//     read or write.
//
// # Adding a New Background Task
//
//  1. Define the task and its queue in internal/tasks/
//
//     type SendRemindersTask struct{}
//
//     func (t SendRemindersTask) Config() backlite.QueueConfig
//
//     func NewSendRemindersQueue(sender ReminderSender) backlite.Queue
//
//  2. Register the queue in entrypoint.NewApp
//
//  3. Schedule it from scheduler.MaintenanceScheduler or enqueue it with
//     tasks.Client.Enqueue
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/reservations/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Add the entity to Database.migrate and wire the repository into
//     library.NewService
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
