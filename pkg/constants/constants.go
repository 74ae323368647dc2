// Package constants provides shared constants for the loanledger application.
package constants

// DateLayout is the format expected for calendar dates in stored data and in
// the HTTP API, and is also the output date format.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent).
	// Settlement and paid-installment checks use this margin instead of
	// exact equality to absorb cumulative floating-point rounding.
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// LatePenaltyFlatRate is the flat surcharge applied to an installment
	// once it is past due (2%).
	LatePenaltyFlatRate = 0.02

	// LatePenaltyDailyRate is the additional surcharge accrued per day of
	// delay (0.1% per day).
	LatePenaltyDailyRate = 0.001
)

// Payment day bounds (day-of-month an installment can be due on).
const (
	MinPaymentDay = 1
	MaxPaymentDay = 30
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Storage backend constants
const (
	// StorageBackendFile stores the snapshot as a JSON file on disk
	StorageBackendFile = "file"

	// StorageBackendRedis stores the snapshot in redis
	StorageBackendRedis = "redis"

	// StorageBackendPostgres stores the snapshot in PostgreSQL
	StorageBackendPostgres = "postgres"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultDataFile is the default path for the file storage backend
	DefaultDataFile = "loanledger.json"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"
)

// Sweep configuration defaults
const (
	// DefaultSweepSchedule runs the delinquency sweep once a day
	DefaultSweepSchedule = "@daily"

	// DefaultSweepHorizonDays is how far ahead the sweep looks for
	// upcoming installments
	DefaultSweepHorizonDays = 7
)
