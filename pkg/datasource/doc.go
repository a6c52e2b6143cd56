// Package datasource is Conduit's top-level entry point: a named,
// lazily initialized source of pooled database connections.
//
// A DataSource is configured first and built on first use. The first
// Acquire validates the configuration, resolves a driver, constructs
// the bounded pool and dials the first connection; every later Acquire
// goes straight to the pool. Once built, the configuration is frozen.
//
//	ds := datasource.New("orders")
//	_ = ds.SetDriverName("postgres")
//	_ = ds.SetURL("postgres://db.internal:5432/orders")
//	_ = ds.SetUsername("app")
//	_ = ds.SetPassword(os.Getenv("ORDERS_DB_PASSWORD"))
//	defer ds.Close()
//
//	conn, err := ds.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
// Data sources built from configuration files go through
// config.LoadFile and NewFromConfig instead of the setters. The
// package also keeps a process-wide registry of named data sources for
// lookup from application code and the CLI.
package datasource
