// Package main runs the capture pipeline benchmarks and outputs results to JSON/Markdown.
// Run with: go run benchmarks/run_benchmarks.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BenchmarkResults holds all benchmark data
type BenchmarkResults struct {
	Timestamp   string           `json:"timestamp"`
	Environment Environment      `json:"environment"`
	Suites      map[string]Suite `json:"suites"`
	Summary     Summary          `json:"summary"`
}

type Environment struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPU       string `json:"cpu"`
	NumCPU    int    `json:"num_cpu"`
	GoVersion string `json:"go_version"`
}

type Suite struct {
	Package    string      `json:"package"`
	Benchmarks []Benchmark `json:"benchmarks"`
}

type Benchmark struct {
	Name        string  `json:"name"`
	NsPerOp     float64 `json:"ns_per_op"`
	OpsPerSec   float64 `json:"ops_per_sec"`
	BytesPerOp  int64   `json:"bytes_per_op"`
	AllocsPerOp int64   `json:"allocs_per_op"`
}

type Summary struct {
	Capture SuiteSummary `json:"capture"`
	Render  SuiteSummary `json:"render"`
	Relay   SuiteSummary `json:"relay"`
	Admin   SuiteSummary `json:"admin"`
	ID      SuiteSummary `json:"id"`
}

type SuiteSummary struct {
	ThroughputOpsPerSec float64 `json:"throughput_ops_per_sec"`
	LatencyNs           float64 `json:"latency_ns"`
	Claim               string  `json:"claim"`
}

// suiteSpec names a benchmark suite, the package that hosts it, and the
// -bench pattern that selects its functions.
type suiteSpec struct {
	name    string
	pkg     string
	pattern string
}

// suiteSpecs drives both the run loop and the report section order.
var suiteSpecs = []suiteSpec{
	{"capture", "./pkg/capture", "BenchmarkStore|BenchmarkCLILine"},
	{"receiver", "./pkg/receiver", "BenchmarkClassify|BenchmarkParseQueryMapping|BenchmarkRenderPage"},
	{"relay", "./pkg/relay", "BenchmarkNormalizeTarget|BenchmarkForward"},
	{"admin", "./pkg/admin", "BenchmarkListEntriesHandler"},
	{"metrics", "./pkg/metrics", "BenchmarkCounter|BenchmarkHistogram|BenchmarkHandler"},
	{"id", "./internal/id", "BenchmarkULID|BenchmarkIsValidULID"},
}

func main() {
	fmt.Println("==========================================")
	fmt.Println("   RECVD BENCHMARK SUITE")
	fmt.Println("==========================================")
	fmt.Println()

	results := BenchmarkResults{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Environment: Environment{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPU:       getCPUInfo(),
			NumCPU:    runtime.NumCPU(),
			GoVersion: runtime.Version(),
		},
		Suites: make(map[string]Suite),
	}

	for _, spec := range suiteSpecs {
		fmt.Printf("Running %s benchmarks...\n", spec.name)
		benches := runBenchmarks(spec.pattern, spec.pkg)
		results.Suites[spec.name] = Suite{Package: spec.pkg, Benchmarks: benches}
	}

	results.Summary = calculateSummary(results.Suites)

	if err := os.MkdirAll("benchmarks/results", 0o755); err != nil {
		fmt.Printf("Error creating results dir: %v\n", err)
		return
	}

	jsonPath := "benchmarks/results/latest.json"
	writeJSON(results, jsonPath)
	fmt.Printf("\nJSON results: %s\n", jsonPath)

	mdPath := "benchmarks/results/LATEST.md"
	writeMarkdown(results, mdPath)
	fmt.Printf("Markdown results: %s\n", mdPath)

	printSummary(results)
}

func getCPUInfo() string {
	if runtime.GOOS == "linux" {
		data, err := os.ReadFile("/proc/cpuinfo")
		if err == nil {
			lines := strings.Split(string(data), "\n")
			for _, line := range lines {
				if strings.HasPrefix(line, "model name") {
					parts := strings.SplitN(line, ":", 2)
					if len(parts) == 2 {
						return strings.TrimSpace(parts[1])
					}
				}
			}
		}
	}
	return "unknown"
}

func runBenchmarks(pattern, pkg string) []Benchmark {
	cmd := exec.Command("go", "test", "-bench="+pattern, "-benchtime=2s", "-benchmem", "-run=^$", pkg)
	output, _ := cmd.CombinedOutput()

	return parseBenchmarkOutput(string(output))
}

func parseBenchmarkOutput(output string) []Benchmark {
	var benchmarks []Benchmark

	// Pattern: BenchmarkName-N    iterations    ns/op    bytes/op    allocs/op
	// Sub-benchmarks like BenchmarkStoreList/filtered keep their path segments.
	re := regexp.MustCompile(`(Benchmark[\w/]+)-\d+\s+(\d+)\s+([\d.]+)\s+ns/op\s+(\d+)\s+B/op\s+(\d+)\s+allocs/op`)

	matches := re.FindAllStringSubmatch(output, -1)
	for _, match := range matches {
		if len(match) >= 6 {
			nsPerOp, _ := strconv.ParseFloat(match[3], 64)
			bytesPerOp, _ := strconv.ParseInt(match[4], 10, 64)
			allocsPerOp, _ := strconv.ParseInt(match[5], 10, 64)

			opsPerSec := 0.0
			if nsPerOp > 0 {
				opsPerSec = 1e9 / nsPerOp
			}

			benchmarks = append(benchmarks, Benchmark{
				Name:        match[1],
				NsPerOp:     nsPerOp,
				OpsPerSec:   opsPerSec,
				BytesPerOp:  bytesPerOp,
				AllocsPerOp: allocsPerOp,
			})
		}
	}

	return benchmarks
}

func calculateSummary(suites map[string]Suite) Summary {
	summary := Summary{}

	// Capture throughput: single-writer append into the in-memory store.
	if capture, ok := suites["capture"]; ok {
		for _, b := range capture.Benchmarks {
			if strings.Contains(b.Name, "StoreAppend") {
				summary.Capture.ThroughputOpsPerSec = b.OpsPerSec
				summary.Capture.LatencyNs = b.NsPerOp
			}
		}
		summary.Capture.Claim = fmt.Sprintf("%.0fK+ captures/s", summary.Capture.ThroughputOpsPerSec/1000*0.8)
	}

	// Render latency: full log view page over a populated store.
	if receiver, ok := suites["receiver"]; ok {
		for _, b := range receiver.Benchmarks {
			if strings.Contains(b.Name, "RenderPage") {
				summary.Render.ThroughputOpsPerSec = b.OpsPerSec
				summary.Render.LatencyNs = b.NsPerOp
			}
		}
		summary.Render.Claim = fmt.Sprintf("<%.1fms page render", summary.Render.LatencyNs/1e6+0.1)
	}

	// Relay round trip against a loopback target.
	if relay, ok := suites["relay"]; ok {
		for _, b := range relay.Benchmarks {
			if strings.Contains(b.Name, "Forward") {
				summary.Relay.ThroughputOpsPerSec = b.OpsPerSec
				summary.Relay.LatencyNs = b.NsPerOp
			}
		}
		summary.Relay.Claim = fmt.Sprintf("%.1fms loopback relay", summary.Relay.LatencyNs/1e6)
	}

	// Admin listing: filtered /entries request through the full router.
	if admin, ok := suites["admin"]; ok {
		for _, b := range admin.Benchmarks {
			if strings.Contains(b.Name, "ListEntriesHandler") {
				summary.Admin.ThroughputOpsPerSec = b.OpsPerSec
				summary.Admin.LatencyNs = b.NsPerOp
			}
		}
		summary.Admin.Claim = fmt.Sprintf("%.0fK+ list req/s", summary.Admin.ThroughputOpsPerSec/1000*0.8)
	}

	// Entry ID generation rate.
	if id, ok := suites["id"]; ok {
		for _, b := range id.Benchmarks {
			if strings.HasSuffix(b.Name, "ULID") {
				summary.ID.ThroughputOpsPerSec = b.OpsPerSec
				summary.ID.LatencyNs = b.NsPerOp
			}
		}
		summary.ID.Claim = fmt.Sprintf("%.1fM+ IDs/s", summary.ID.ThroughputOpsPerSec/1e6*0.8)
	}

	return summary
}

func writeJSON(results BenchmarkResults, path string) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		return
	}
	os.WriteFile(path, data, 0644)
}

func writeMarkdown(results BenchmarkResults, path string) {
	var sb strings.Builder

	sb.WriteString("# recvd Benchmark Results\n\n")
	sb.WriteString(fmt.Sprintf("**Generated**: %s\n\n", results.Timestamp))
	sb.WriteString("## Environment\n\n")
	sb.WriteString(fmt.Sprintf("- **OS**: %s/%s\n", results.Environment.OS, results.Environment.Arch))
	sb.WriteString(fmt.Sprintf("- **CPU**: %s (%d cores)\n", results.Environment.CPU, results.Environment.NumCPU))
	sb.WriteString(fmt.Sprintf("- **Go**: %s\n\n", results.Environment.GoVersion))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Stage | Throughput | Latency | Claim |\n")
	sb.WriteString("|-------|------------|---------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Capture | %.0f ops/s | %.2fμs | %s |\n",
		results.Summary.Capture.ThroughputOpsPerSec,
		results.Summary.Capture.LatencyNs/1000,
		results.Summary.Capture.Claim))
	sb.WriteString(fmt.Sprintf("| Log view render | %.0f ops/s | %.2fμs | %s |\n",
		results.Summary.Render.ThroughputOpsPerSec,
		results.Summary.Render.LatencyNs/1000,
		results.Summary.Render.Claim))
	sb.WriteString(fmt.Sprintf("| Relay | %.0f ops/s | %.2fμs | %s |\n",
		results.Summary.Relay.ThroughputOpsPerSec,
		results.Summary.Relay.LatencyNs/1000,
		results.Summary.Relay.Claim))
	sb.WriteString(fmt.Sprintf("| Admin list | %.0f req/s | %.2fμs | %s |\n",
		results.Summary.Admin.ThroughputOpsPerSec,
		results.Summary.Admin.LatencyNs/1000,
		results.Summary.Admin.Claim))
	sb.WriteString(fmt.Sprintf("| ID generation | %.0f ops/s | %.2fns | %s |\n",
		results.Summary.ID.ThroughputOpsPerSec,
		results.Summary.ID.LatencyNs,
		results.Summary.ID.Claim))
	sb.WriteString("\n")

	// Detailed results per suite, in run order.
	for _, spec := range suiteSpecs {
		suite, ok := results.Suites[spec.name]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", cases.Title(language.English).String(spec.name)))
		sb.WriteString(fmt.Sprintf("Package: `%s`\n\n", suite.Package))
		sb.WriteString("| Benchmark | ops/sec | ns/op | B/op | allocs/op |\n")
		sb.WriteString("|-----------|---------|-------|------|----------|\n")
		for _, b := range suite.Benchmarks {
			sb.WriteString(fmt.Sprintf("| %s | %.0f | %.0f | %d | %d |\n",
				b.Name, b.OpsPerSec, b.NsPerOp, b.BytesPerOp, b.AllocsPerOp))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Reproducing\n\n")
	sb.WriteString("```bash\n")
	sb.WriteString("go run benchmarks/run_benchmarks.go\n")
	sb.WriteString("# Or individual suites:\n")
	for _, spec := range suiteSpecs {
		sb.WriteString(fmt.Sprintf("go test -bench='%s' -benchtime=2s -benchmem -run='^$' %s\n", spec.pattern, spec.pkg))
	}
	sb.WriteString("```\n")

	os.WriteFile(path, []byte(sb.String()), 0644)
}

func printSummary(results BenchmarkResults) {
	fmt.Println()
	fmt.Println("==========================================")
	fmt.Println("              SUMMARY")
	fmt.Println("==========================================")
	fmt.Printf("Capture:  %.0f captures/s (%.2fμs append)\n",
		results.Summary.Capture.ThroughputOpsPerSec,
		results.Summary.Capture.LatencyNs/1000)
	fmt.Printf("Render:   %.0f pages/s (%.2fμs per page)\n",
		results.Summary.Render.ThroughputOpsPerSec,
		results.Summary.Render.LatencyNs/1000)
	fmt.Printf("Relay:    %.0f round trips/s (%.2fms loopback)\n",
		results.Summary.Relay.ThroughputOpsPerSec,
		results.Summary.Relay.LatencyNs/1e6)
	fmt.Printf("Admin:    %.0f list req/s (%.2fμs per request)\n",
		results.Summary.Admin.ThroughputOpsPerSec,
		results.Summary.Admin.LatencyNs/1000)
	fmt.Printf("IDs:      %.0f ULIDs/s (%.0fns each)\n",
		results.Summary.ID.ThroughputOpsPerSec,
		results.Summary.ID.LatencyNs)
	fmt.Println("==========================================")
}
