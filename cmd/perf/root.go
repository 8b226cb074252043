package perf

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dRPC/cmd/util"
	"github.com/ValentinKolb/dRPC/lib/registry"
	"github.com/ValentinKolb/dRPC/rpc/client"
	"github.com/google/uuid"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// PerfCmd runs a parallel benchmark against the built-in services
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dRPC servers",
		Long:    "Runs parallel requests against the echo and objects services and reports latency percentiles per test",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix  = "__perf"
	perfThreads    = 10
	perfRequests   = 10_000
	perfKeySpread  = 100
	perfGraphSize  = 100
	perfSkip       = make([]string, 0)
	perfPercentile = []float64{0.5, 0.95, 0.99}
)

// result is the outcome of a single test
type result struct {
	timer    gometrics.Timer
	errors   gometrics.Counter
	duration time.Duration
}

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	util.SetupRPCClientFlags(PerfCmd)

	// add flags
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Tests to skip (comma separated - e.g. ping,obj-get)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines sending requests"))
	key = "requests"
	PerfCmd.Flags().Int(key, 10_000, util.WrapString("Number of requests per test"))
	key = "graph-size"
	PerfCmd.Flags().Int(key, 100, util.WrapString("Number of entries of the object graph sent by the echo-graph test"))
	key = "keys"
	PerfCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the object tests"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfThreads = max(viper.GetInt("threads"), 1)
	perfRequests = max(viper.GetInt("requests"), 1)
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfGraphSize = max(viper.GetInt("graph-size"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	// keys of concurrent runs must not collide
	perfKeyPrefix = "__perf-" + uuid.NewString()[:8]

	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	c, err := util.NewClient(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	echo := client.NewEchoClient(c, "echo")
	objects := client.NewObjectsClient(c, "objects")

	fmt.Println("Performance testing tool for dRPC servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfThreads)
	fmt.Printf("Requests per test: %d\n", perfRequests)
	fmt.Printf("Graph size: %d\n", perfGraphSize)
	fmt.Printf("Keys: %d\n", perfKeySpread)
	fmt.Println()

	graph := newGraph(perfGraphSize)
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%d", perfKeyPrefix, i)
	}
	key := func(i int) string { return keys[i%len(keys)] }

	tests := []struct {
		name string
		fn   func(i int) error
	}{
		{"ping", func(int) error { return echo.Ping() }},
		{"echo-string", func(int) error {
			_, err := echo.Echo("hello dRPC")
			return err
		}},
		{"echo-graph", func(int) error {
			_, err := echo.Echo(graph)
			return err
		}},
		{"obj-put", func(i int) error {
			_, err := objects.Put(key(i), graph)
			return err
		}},
		{"obj-get", func(i int) error {
			_, err := objects.Get(key(i))
			return err
		}},
		{"mixed", func(i int) (err error) {
			switch i % 3 {
			case 0:
				_, err = objects.Put(key(i), registry.StringMap{"i": int32(i)})
			case 1:
				_, err = objects.Get(key(i))
			case 2:
				_, err = objects.Delete(key(i))
			}
			return err
		}},
	}

	metrics := gometrics.NewRegistry()
	results := make(map[string]*result)
	printHeader()
	for _, test := range tests {
		if shouldSkip(test.name) {
			fmt.Printf("%-14sskipped\n", test.name)
			continue
		}
		results[test.name] = runTest(metrics, test.name, test.fn)
		printResult(test.name, results[test.name])
	}

	// Cleanup
	for _, k := range keys {
		_, _ = objects.Delete(k)
	}

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

// runTest calls fn perfRequests times from perfThreads goroutines
func runTest(metrics gometrics.Registry, name string, fn func(i int) error) *result {
	res := &result{
		timer:  gometrics.GetOrRegisterTimer(name, metrics),
		errors: gometrics.GetOrRegisterCounter(name+".errors", metrics),
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()
	for t := 0; t < perfThreads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= perfRequests {
					return
				}
				callStart := time.Now()
				err := fn(i)
				res.timer.UpdateSince(callStart)
				if err != nil {
					res.errors.Inc(1)
				}
			}
		}()
	}
	wg.Wait()
	res.duration = time.Since(start)

	return res
}

// newGraph builds a list of size maps that all reference one shared map
func newGraph(size int) *registry.ArrayList {
	shared := registry.StringMap{"kind": "shared", "created": time.Now().UnixNano()}
	list := make(registry.ArrayList, size)
	for i := range list {
		list[i] = registry.StringMap{
			"index":  int32(i),
			"name":   "entry-" + strconv.Itoa(i),
			"weight": float64(i) / 3,
			"shared": shared,
		}
	}
	return &list
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

func printHeader() {
	fmt.Printf("%-14s%10s%12s%12s%12s%12s%12s%12s%8s\n",
		"test", "requests", "ops/sec", "mean", "p50", "p95", "p99", "max", "errors")
}

// printResult prints the result of a test in a formatted way
func printResult(test string, res *result) {
	p := res.timer.Percentiles(perfPercentile)
	fmt.Printf("%-14s%10d%12.0f%12s%12s%12s%12s%12s%8d\n",
		test,
		res.timer.Count(),
		opsPerSec(res),
		roundDuration(res.timer.Mean()),
		roundDuration(p[0]),
		roundDuration(p[1]),
		roundDuration(p[2]),
		roundDuration(float64(res.timer.Max())),
		res.errors.Count(),
	)
}

func opsPerSec(res *result) float64 {
	if res.duration <= 0 {
		return 0
	}
	return float64(res.timer.Count()) / res.duration.Seconds()
}

func roundDuration(ns float64) time.Duration {
	return time.Duration(ns).Round(time.Microsecond)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]*result) error {
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
		"Test", "Requests", "Errors", "OpsPerSec", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Serializer", "Transport", "StreamVersion", "ElideTypeNames",
		"Threads", "GraphSize", "Keys",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, res := range results {
		p := res.timer.Percentiles(perfPercentile)
		row := []string{
			test,
			strconv.FormatInt(res.timer.Count(), 10),
			strconv.FormatInt(res.errors.Count(), 10),
			fmt.Sprintf("%.0f", opsPerSec(res)),
			fmt.Sprintf("%.0f", res.timer.Mean()),
			fmt.Sprintf("%.0f", p[0]),
			fmt.Sprintf("%.0f", p[1]),
			fmt.Sprintf("%.0f", p[2]),
			strconv.FormatInt(res.timer.Max(), 10),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(config.Stream.EffectiveVersion()),
			strconv.FormatBool(config.Stream.ElideTypeNames),
			strconv.Itoa(perfThreads),
			strconv.Itoa(perfGraphSize),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
