// Package report turns `go test -bench` output of this repository's
// benchmarks into grouped results and bar charts.
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/boreq/errors"
	"github.com/wcharczuk/go-chart/v2"
	"golang.org/x/tools/benchmark/parse"
)

type BenchResults struct {
	Goos               string
	Goarch             string
	Cpu                string
	PerformanceResults []BenchResult
	SizeResults        []BenchResult
}

// BenchResult groups the per-system measurements of one benchmark, e.g.
// all systems' numbers for "rows_10x100/update".
type BenchResult struct {
	BenchmarkName string
	Unit          string
	Systems       []SystemResult
}

type SystemResult struct {
	SystemName string
	Value      float64
}

func GetBenchResults(r io.Reader) (BenchResults, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return BenchResults{}, errors.Wrap(err, "error reading all")
	}

	var result BenchResults

	scan := bufio.NewScanner(bytes.NewReader(b))
	for scan.Scan() {
		parseEnvironmentLine(scan.Text(), &result)
	}

	if err := scan.Err(); err != nil {
		return BenchResults{}, errors.Wrap(err, "scan error")
	}

	if result.Cpu == "" || result.Goarch == "" || result.Goos == "" {
		return BenchResults{}, fmt.Errorf("missing execution environment info in output: '%+v'", result)
	}

	performanceResults, err := getPerformanceBenchResults(bytes.NewReader(b))
	if err != nil {
		return BenchResults{}, errors.Wrap(err, "error getting performance results")
	}

	sizeResults, err := getSizeBenchResults(bytes.NewReader(b))
	if err != nil {
		return BenchResults{}, errors.Wrap(err, "error getting size results")
	}

	result.PerformanceResults = performanceResults
	result.SizeResults = sizeResults

	return result, nil
}

const lineSep = ":"

func parseEnvironmentLine(line string, result *BenchResults) error {
	splitLine := strings.SplitN(line, lineSep, 2)
	if len(splitLine) != 2 {
		return errors.New("invalid number of strings")
	}

	key := splitLine[0]
	value := strings.TrimSpace(splitLine[1])

	switch key {
	case "goos":
		result.Goos = value
	case "goarch":
		result.Goarch = value
	case "cpu":
		result.Cpu = value
	default:
		return errors.New("unknown line")
	}

	return nil
}

func getPerformanceBenchResults(r io.Reader) ([]BenchResult, error) {
	var results []BenchResult

	set, err := parse.ParseSet(r)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing set")
	}

	for _, benchmarks := range set {
		for _, benchmark := range benchmarks {
			if !strings.HasPrefix(benchmark.Name, "BenchmarkPerformance") {
				continue
			}

			systemName, benchmarkName, err := ParseBenchmarkName(benchmark.Name)
			if err != nil {
				return nil, errors.Wrap(err, "error parsing benchmark name")
			}

			addSystemResult(&results, benchmarkName, "ns per op", SystemResult{
				SystemName: systemName,
				Value:      benchmark.NsPerOp,
			})
		}
	}

	sortResults(results)
	return results, nil
}

// BenchmarkSize reports a custom bytes/op metric which the benchmark
// parser does not understand, so those lines are picked apart by hand.
func getSizeBenchResults(r io.Reader) ([]BenchResult, error) {
	var results []BenchResult

	scan := bufio.NewScanner(r)
	for scan.Scan() {
		fields := strings.Fields(scan.Text())
		if len(fields) != 4 {
			continue
		}

		benchName := fields[0]
		benchValue := fields[2]
		benchUnit := fields[3]

		if !strings.HasPrefix(benchName, "BenchmarkSize") {
			continue
		}

		if benchUnit != "bytes/op" {
			return nil, errors.New("invalid unit")
		}

		systemName, benchmarkName, err := ParseBenchmarkName(benchName)
		if err != nil {
			return nil, errors.Wrap(err, "error parsing benchmark name")
		}

		f, err := strconv.ParseFloat(benchValue, 64)
		if err != nil {
			return nil, errors.Wrap(err, "error parsing value")
		}

		addSystemResult(&results, benchmarkName, "bytes per op", SystemResult{
			SystemName: systemName,
			Value:      f,
		})
	}

	if err := scan.Err(); err != nil {
		return nil, errors.Wrap(err, "scan error")
	}

	sortResults(results)
	return results, nil
}

const (
	chartWidth    = 2000
	chartBarWidth = 300
)

func MakeResultChart(result BenchResult) (chart.BarChart, error) {
	graph := chart.BarChart{
		Title: result.BenchmarkName,
		Background: chart.Style{
			Padding: chart.Box{
				Top: 40,
			},
		},
		Height:   512,
		BarWidth: chartBarWidth,
		Width:    chartWidth,
		YAxis: chart.YAxis{
			Name: result.Unit,
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: 0,
			},
		},
	}

	for _, system := range result.Systems {
		graph.Bars = append(graph.Bars, chart.Value{
			Label: system.SystemName,
			Value: system.Value,
		})

		if v := system.Value * 1.1; v > graph.YAxis.Range.GetMax() {
			graph.YAxis.Range.SetMax(v)
		}
	}

	return graph, nil
}

// ParseBenchmarkName splits e.g.
// "BenchmarkPerformance/bbolt/fast_storage/rows_10x100/update-8" into the
// system name and the rest of the path identifying the benchmark.
func ParseBenchmarkName(name string) (string, string, error) {
	split := strings.SplitN(name, "/", 3)
	if len(split) != 3 {
		return "", "", errors.New("invalid name")
	}

	return split[1], split[2], nil
}

func addSystemResult(results *[]BenchResult, benchmarkName, unit string, system SystemResult) {
	for i := range *results {
		if (*results)[i].BenchmarkName == benchmarkName {
			(*results)[i].Systems = append((*results)[i].Systems, system)
			return
		}
	}

	*results = append(*results, BenchResult{
		BenchmarkName: benchmarkName,
		Unit:          unit,
		Systems:       []SystemResult{system},
	})
}

func sortResults(results []BenchResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].BenchmarkName < results[j].BenchmarkName
	})

	for _, result := range results {
		sort.Slice(result.Systems, func(i, j int) bool {
			return result.Systems[i].SystemName < result.Systems[j].SystemName
		})
	}
}
