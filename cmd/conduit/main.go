package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/conduit/pkg/config"
	"github.com/ajitpratap0/conduit/pkg/datasource"
	"github.com/ajitpratap0/conduit/pkg/driver"
	"github.com/ajitpratap0/conduit/pkg/logger"
	"github.com/ajitpratap0/conduit/pkg/pool"

	// Import all built-in drivers to register them
	_ "github.com/ajitpratap0/conduit/pkg/driver/mysql"
	_ "github.com/ajitpratap0/conduit/pkg/driver/postgres"
)

// Set via ldflags at release time.
var (
	version = "0.1.0"
	commit  = "none"
	date    = "unknown"
)

// checkConcurrency caps how many datasources are probed at once.
const checkConcurrency = 4

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	var configFile, logLevel string

	root := &cobra.Command{
		Use:   "conduit",
		Short: "Conduit - Pooled database connection manager",
		Long: `Conduit manages named pools of database connections. It reads datasource
definitions from a YAML file and can verify connectivity and report pool
statistics for each of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: logLevel, Encoding: "json"})
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to datasource configuration YAML file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level (debug, info, warn, error)")

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Conduit v%s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", date)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// List command to show available drivers
	root.AddCommand(&cobra.Command{
		Use:   "drivers",
		Short: "List registered database drivers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Registered drivers:")
			for _, name := range driver.Names() {
				fmt.Printf("  - %s\n", name)
			}
		},
	})

	// Check command to verify connectivity
	var checkTimeout time.Duration
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Verify connectivity of every configured datasource",
		Long: `Check builds every datasource defined in the configuration file, opens one
connection to each and reports the result. The exit status is non-zero when
any datasource is unreachable.

Example:
  conduit check --config conduit.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(configFile, checkTimeout)
		},
	}
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "Overall deadline for all connectivity probes")
	root.AddCommand(checkCmd)

	// Stats command to report pool statistics
	var statsTimeout time.Duration
	var pretty bool
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print pool statistics for every configured datasource as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(configFile, statsTimeout, pretty)
		},
	}
	statsCmd.Flags().DurationVar(&statsTimeout, "timeout", 30*time.Second, "Overall deadline for the probe connections")
	statsCmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	root.AddCommand(statsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDataSources builds a datasource per configuration and adds each
// to the default registry, so duplicate names in one file are rejected.
// The caller is responsible for datasource.CloseAll.
func openDataSources(configFile string) ([]*datasource.DataSource, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no configuration file given, use --config")
	}

	cfgs, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	sources := make([]*datasource.DataSource, 0, len(cfgs))
	for _, cfg := range cfgs {
		ds, err := datasource.NewFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		if err := datasource.Add(ds); err != nil {
			return nil, err
		}
		sources = append(sources, ds)
	}
	return sources, nil
}

// checkResult is the outcome of probing one datasource.
type checkResult struct {
	name    string
	driver  string
	elapsed time.Duration
	err     error
}

// runCheck probes every configured datasource and prints a PASS/FAIL
// table. Probes run concurrently but each failure is reported on its
// own, so one unreachable database never hides the state of the rest.
func runCheck(configFile string, timeout time.Duration) error {
	defer datasource.CloseAll()

	sources, err := openDataSources(configFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log := logger.Get().With(zap.String("component", "conduit-cli"))
	log.Info("checking datasources",
		zap.String("config", configFile),
		zap.Int("count", len(sources)))

	results := make([]checkResult, len(sources))
	var g errgroup.Group
	g.SetLimit(checkConcurrency)
	for i, ds := range sources {
		i, ds := i, ds
		g.Go(func() error {
			start := time.Now()
			err := ds.Ping(ctx)
			results[i] = checkResult{
				name:    ds.Name(),
				driver:  ds.DriverName(),
				elapsed: time.Since(start),
				err:     err,
			}
			return nil
		})
	}
	_ = g.Wait()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATASOURCE\tDRIVER\tSTATUS\tDETAIL")
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(w, "%s\t%s\tFAIL\t%v\n", r.name, r.driver, r.err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\tPASS\t%s\n", r.name, r.driver, r.elapsed.Round(time.Millisecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d datasources failed", failed, len(results))
	}
	return nil
}

// statsReport is the JSON shape printed per datasource.
type statsReport struct {
	Driver string     `json:"driver"`
	Pool   pool.Stats `json:"pool"`
}

// runStats opens one probe connection per datasource and prints the
// resulting pool statistics keyed by datasource name.
func runStats(configFile string, timeout time.Duration, pretty bool) error {
	defer datasource.CloseAll()

	sources, err := openDataSources(configFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log := logger.Get().With(zap.String("component", "conduit-cli"))

	report := make(map[string]statsReport, len(sources))
	for _, ds := range sources {
		if err := ds.Ping(ctx); err != nil {
			log.Warn("probe connection failed",
				zap.String("datasource", ds.Name()),
				zap.Error(err))
		}
		if s, ok := ds.Stats(); ok {
			report[ds.Name()] = statsReport{Driver: ds.DriverName(), Pool: s}
		}
	}

	var out []byte
	if pretty {
		out, err = gojson.MarshalIndent(report, "", "  ")
	} else {
		out, err = gojson.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
