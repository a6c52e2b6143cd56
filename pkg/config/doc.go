// Package config provides configuration management for Conduit data sources.
//
// A single Config structure describes everything needed to build a data
// source: driver identity, connection URL, credentials, driver properties,
// and pool sizing.
//
// # Key Features
//
// - Config: single structure covering driver, URL, credentials, properties, pool and timeouts
// - Property-string parsing ("key1=value1;key2=value2;key3") into a Properties map
// - Environment variable substitution with ${VAR_NAME} syntax when loading files
// - Automatic defaults and validation
//
// # Usage
//
// ## Programmatic Configuration
//
//	cfg := config.New("orders")
//	cfg.Driver = "postgres"
//	cfg.URL = "postgres://db.example.com:5432/orders"
//	cfg.Credentials.Username = "app"
//	cfg.Credentials.Password = "secret"
//	cfg.Pool.Capacity = 16
//
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// ## Property Strings
//
// Legacy-style property strings are parsed with ParseProperties:
//
//	props, err := config.ParseProperties("sslmode=require;application_name=conduit;autocommit")
//	// {"sslmode": "require", "application_name": "conduit", "autocommit": ""}
//
// A key without '=' maps to the empty string, duplicate keys overwrite
// earlier ones, and a segment with an empty key is rejected.
//
// ## File Loading
//
//	# conduit.yaml
//	datasources:
//	  - name: orders
//	    driver: postgres
//	    url: postgres://db.example.com:5432/orders
//	    credentials:
//	      username: ${DB_USERNAME}
//	      password: ${DB_PASSWORD}
//	    pool:
//	      capacity: 16
//
//	configs, err := config.LoadFile("conduit.yaml")
//
// Absent fields take the defaults from New (capacity 32, 30s borrow
// timeout, 10s connect timeout, 5s validate timeout). Environment
// variables are substituted before parsing, and every data source is
// validated on load.
package config
