package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./library.db"

	// DefaultLoanPeriodDays is how long a book may be kept before it is due.
	DefaultLoanPeriodDays = 21

	// DefaultTopBooks is the size of the popularity ranking in statistics.
	DefaultTopBooks = 10
)

// Supported database drivers
const (
	DatabaseDriverSQLite = "sqlite"
	DatabaseDriverMySQL  = "mysql"
)

// Supported session stores
const (
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
)
