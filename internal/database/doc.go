// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, role/right seeding
//	├── seed.yaml        # Built-in roles and rights
//	├── catalog/         # Books and stock rows
//	├── loans/           # Borrow/return workflow and delay records
//	├── accounts/        # Users, roles, rights and right-set resolution
//	├── stats/           # Read-only dashboard aggregation
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type over a *gorm.DB:
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	catalogRepo := catalog.NewRepository(db.DB)
//	loansRepo := loans.NewRepository(db.DB)
//
//	book, err := catalogRepo.GetBook(42)
//	loan, err := loansRepo.Borrow(userID, book.ID, start, due)
//
// Repositories return the sentinel errors declared in their package (all
// built with apperr.New) so callers can branch on the failure kind.
//
// # Drivers
//
// SQLite is the default. The DSN enables foreign keys and immediate
// transactions. MySQL is selected with DATABASE_DRIVER=mysql and
// DATABASE_DSN; row locks taken with SELECT ... FOR UPDATE replace the
// partial unique index SQLite gets.
package database
