// Package config provides driver-specific configuration presets
package config

// PostgresConfig returns a Config preset for PostgreSQL data sources.
// The preset pins the postgres driver and seeds properties that suit
// pooled short-lived statements.
func PostgresConfig(name, url string) *Config {
	cfg := New(name)
	cfg.Driver = "postgres"
	cfg.URL = url
	cfg.Properties = Properties{
		"application_name": "conduit",
	}
	return cfg
}

// MySQLConfig returns a Config preset for MySQL data sources.
func MySQLConfig(name, url string) *Config {
	cfg := New(name)
	cfg.Driver = "mysql"
	cfg.URL = url
	cfg.Properties = Properties{
		"parseTime": "true",
	}
	return cfg
}
