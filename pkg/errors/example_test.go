// Package errors provides examples of structured error handling in Conduit.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/conduit/pkg/errors"
)

// Example demonstrates basic error creation and wrapping.
func Example() {
	// Create a new error with type
	err := errors.New(errors.ErrorTypeConnection, "failed to connect to database")

	// Add context details
	err = err.WithDetail("host", "localhost").
		WithDetail("port", 5432).
		WithDetail("database", "orders")

	// Print the error
	fmt.Println(err.Error())

	// Output:
	// connection: failed to connect to database
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	// Simulate an underlying error
	originalErr := io.EOF

	// Wrap the error with context
	err := errors.Wrap(originalErr, errors.ErrorTypeConnection, "handshake aborted").
		WithDetail("host", "db.example.com").
		WithDetail("attempt", 2)

	// Check the error type
	if errors.IsType(err, errors.ErrorTypeConnection) {
		fmt.Println("This is a connection error")
	}

	// Access the original error using Go's standard errors.Is
	if originalErr == io.EOF {
		fmt.Println("Original error was EOF")
	}

	// Output:
	// This is a connection error
	// Original error was EOF
}

// ExampleErrorType demonstrates using different error types.
func ExampleErrorType() {
	// Connection error
	connErr := errors.New(errors.ErrorTypeConnection, "connection refused")
	fmt.Printf("Connection error: %v\n", connErr)

	// Configuration error
	cfgErr := errors.New(errors.ErrorTypeConfig, "invalid capacity").
		WithDetail("value", -1).
		WithDetail("min", 1)
	fmt.Printf("Config error: %v\n", cfgErr)

	// Exhaustion error
	exhErr := errors.New(errors.ErrorTypeExhausted, "pool exhausted").
		WithDetail("capacity", 32).
		WithDetail("waited", "30s")
	fmt.Printf("Exhausted error: %v\n", exhErr)

	// Output:
	// Connection error: connection: connection refused
	// Config error: config: invalid capacity
	// Exhausted error: exhausted: pool exhausted
}

// ExampleIsRetryable shows how to check if an error is retryable.
func ExampleIsRetryable() {
	// Create different types of errors
	tempErr := errors.New(errors.ErrorTypeExhausted, "no connection became available")
	fatalErr := errors.New(errors.ErrorTypeClosed, "data source is closed")

	// Check if errors are retryable
	if errors.IsRetryable(tempErr) {
		fmt.Println("Exhaustion is retryable")
	}

	if !errors.IsRetryable(fatalErr) {
		fmt.Println("Closed is not retryable")
	}

	// Output:
	// Exhaustion is retryable
	// Closed is not retryable
}

// Example_errorChain shows how to chain multiple error contexts.
func Example_errorChain() {
	// Simulate a chain of operations that can fail
	err := dialDatabase()
	if err != nil {
		// Wrap with additional context at each level
		err = errors.Wrap(err, errors.ErrorTypeConnection, "failed to create pooled connection").
			WithDetail("driver", "postgres")

		fmt.Println("Full error chain:", err)
	}

	// Output:
	// Full error chain: connection: failed to create pooled connection: connection: connection timeout
}

// dialDatabase simulates a database connection error
func dialDatabase() error {
	return errors.New(errors.ErrorTypeConnection, "connection timeout").
		WithDetail("host", "db.example.com").
		WithDetail("port", 5432)
}

// ExampleIsType demonstrates checking error types.
func ExampleIsType() {
	// Create errors of different types
	connErr := errors.New(errors.ErrorTypeConnection, "connection failed")
	cfgErr := errors.New(errors.ErrorTypeConfig, "invalid URL")

	// Wrap an error
	wrappedErr := errors.Wrap(connErr, errors.ErrorTypeQuery, "probe query failed")

	// Check error types
	fmt.Printf("Is connection error: %v\n", errors.IsType(connErr, errors.ErrorTypeConnection))
	fmt.Printf("Is config error: %v\n", errors.IsType(cfgErr, errors.ErrorTypeConfig))

	// IsType matches the outermost structured error in the chain
	fmt.Printf("Wrapped error is query type: %v\n", errors.IsType(wrappedErr, errors.ErrorTypeQuery))
	fmt.Printf("Wrapped error contains connection type: %v\n", errors.IsType(wrappedErr, errors.ErrorTypeConnection))

	// Output:
	// Is connection error: true
	// Is config error: true
	// Wrapped error is query type: true
	// Wrapped error contains connection type: false
}

// Example_customErrorHandling shows how to inspect structured error fields.
func Example_customErrorHandling() {
	// Define a custom error handler
	handleError := func(err error) {
		if err == nil {
			return
		}

		// Extract error details
		if conduitErr, ok := err.(*errors.Error); ok {
			fmt.Printf("Error Type: %s\n", conduitErr.Type)
			fmt.Printf("Message: %s\n", conduitErr.Message)

			if len(conduitErr.Details) > 0 {
				fmt.Println("Details:")
				// Print details in a deterministic order
				if capacity, ok := conduitErr.Details["capacity"]; ok {
					fmt.Printf("  capacity: %v\n", capacity)
				}
				if waiting, ok := conduitErr.Details["waiting"]; ok {
					fmt.Printf("  waiting: %v\n", waiting)
				}
			}
		}
	}

	// Create and handle an error
	err := errors.New(errors.ErrorTypeExhausted, "borrow timed out").
		WithDetail("capacity", 32).
		WithDetail("waiting", 4)

	handleError(err)

	// Output:
	// Error Type: exhausted
	// Message: borrow timed out
	// Details:
	//   capacity: 32
	//   waiting: 4
}
