package kv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/rpc/client"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for mKV servers",
		Long:    "Runs a set of load tests against a running server. Every thread uses its own connection, latencies are recorded per request.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfRequests         = 10000
	perfSkip             = make([]string, 0)
)

// perfResult holds the measurements of one test
type perfResult struct {
	test     string
	skipped  bool
	elapsed  time.Duration
	timer    gometrics.Timer
	failures gometrics.Counter
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent connections to use for the benchmark"))
	key = "requests"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of requests per test"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfRequests = max(viper.GetInt("requests"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	config := util.GetClientConfig()

	fmt.Println("Performance testing tool for mKV servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d, Requests per test: %d\n", perfNumThreads, perfRequests)
	fmt.Println()

	// Open one connection per thread
	clients := make([]*client.Client, 0, perfNumThreads)
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()
	for i := 0; i < perfNumThreads; i++ {
		c, err := newClient()
		if err != nil {
			return fmt.Errorf("failed to open connection %d: %v", i+1, err)
		}
		clients = append(clients, c)
	}

	fmt.Println("starting tests...")
	printHeader()

	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)
	results := make([]perfResult, 0)

	add := func(r perfResult) {
		results = append(results, r)
		printResult(r)
	}

	// set
	getKey, iter := getKeys("set")
	add(runTest("set", clients, nil, func(c *client.Client, i int) error {
		return c.Set(getKey(i), "test")
	}, func() { iter(deleteKey) }))

	// set with a large value
	getKey, iter = getKeys("set-large")
	add(runTest("set-large", clients, nil, func(c *client.Client, i int) error {
		return c.Set(getKey(i), largeValue)
	}, func() { iter(deleteKey) }))

	// get existing keys
	getKey, iter = getKeys("get")
	add(runTest("get", clients, func() { iter(setKey) }, func(c *client.Client, i int) error {
		_, _, err := c.Get(getKey(i))
		return err
	}, func() { iter(deleteKey) }))

	// get keys that do not exist
	add(runTest("get-absent", clients, nil, func(c *client.Client, i int) error {
		_, _, err := c.Get(fmt.Sprintf("%s-absent-%d", perfKeyPrefix, i%perfKeySpread))
		return err
	}, nil))

	// delete
	getKey, iter = getKeys("delete")
	add(runTest("delete", clients, func() { iter(setKey) }, func(c *client.Client, i int) error {
		_, err := c.Delete(getKey(i))
		return err
	}, func() { iter(deleteKey) }))

	// mixed set / get / delete / ping
	getKey, iter = getKeys("mixed")
	add(runTest("mixed", clients, func() { iter(setKey) }, func(c *client.Client, i int) error {
		key := getKey(i)
		switch i % 4 {
		case 0:
			return c.Set(key, "test")
		case 1:
			_, _, err := c.Get(key)
			return err
		case 2:
			_, err := c.Delete(key)
			return err
		default:
			return c.Ping()
		}
	}, func() { iter(deleteKey) }))

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runTest executes perfRequests calls of op spread over all clients
func runTest(test string, clients []*client.Client, setup func(), op func(c *client.Client, i int) error, cleanup func()) perfResult {
	result := perfResult{
		test:     test,
		timer:    gometrics.NewTimer(),
		failures: gometrics.NewCounter(),
	}
	defer result.timer.Stop()

	if shouldSkip(test) {
		result.skipped = true
		return result
	}

	if setup != nil {
		setup()
	}
	if cleanup != nil {
		defer cleanup()
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()

	for _, c := range clients {
		wg.Add(1)
		go func(c *client.Client) {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= perfRequests {
					return
				}
				opStart := time.Now()
				if err := op(c, i); err != nil {
					result.failures.Inc(1)
					if result.failures.Count() == 1 {
						fmt.Printf("(%s) - first error: %v\n", test, err)
					}
					continue
				}
				result.timer.UpdateSince(opStart)
			}
		}(c)
	}
	wg.Wait()

	result.elapsed = time.Since(start)
	return result
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// getKeys creates the test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

func setKey(k string) {
	if err := kvClient.Set(k, "test"); err != nil {
		fmt.Printf("error setting key %s: %v\n", k, err)
	}
}

func deleteKey(k string) {
	if _, err := kvClient.Delete(k); err != nil {
		fmt.Printf("error deleting key %s: %v\n", k, err)
	}
}

func opsPerSec(r perfResult) float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.timer.Count()) / r.elapsed.Seconds()
}

func printHeader() {
	fmt.Printf("%-12s%12s%12s%12s%12s%12s%10s\n", "test", "ops/sec", "mean", "p50", "p95", "p99", "errors")
}

// printResult prints the result of a test in a formatted way
func printResult(r perfResult) {
	if r.skipped {
		fmt.Printf("%-12sskipped\n", r.test)
		return
	}

	ps := r.timer.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-12s%12.0f%12s%12s%12s%12s%10d\n",
		r.test,
		opsPerSec(r),
		time.Duration(r.timer.Mean()).Round(time.Microsecond),
		time.Duration(ps[0]).Round(time.Microsecond),
		time.Duration(ps[1]).Round(time.Microsecond),
		time.Duration(ps[2]).Round(time.Microsecond),
		r.failures.Count(),
	)
}

// writeResultsToCSV writes the results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Skipped", "Requests", "Errors", "OpsPerSec",
		"MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs",
		"Endpoint", "Transport", "Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		ps := r.timer.Percentiles([]float64{0.5, 0.95, 0.99})
		row := []string{
			r.test,
			strconv.FormatBool(r.skipped),
			strconv.FormatInt(r.timer.Count(), 10),
			strconv.FormatInt(r.failures.Count(), 10),
			fmt.Sprintf("%.0f", opsPerSec(r)),
			fmt.Sprintf("%.0f", r.timer.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(r.timer.Max(), 10),
			config.Endpoint,
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.test, err)
		}
	}

	return nil
}
