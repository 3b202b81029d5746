package config

type StoreConfig interface {
	// GetDatabaseURL returns the Postgres DSN, or empty to run against the
	// in-memory store (local development).
	GetDatabaseURL() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}
