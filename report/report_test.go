package report_test

import (
	"strings"
	"testing"

	"github.com/kochelmonster/kv_benchmark/report"
	"github.com/stretchr/testify/require"
)

const benchOutput = `goos: linux
goarch: amd64
cpu: Intel(R) Core(TM) i7-8550U CPU @ 1.80GHz
BenchmarkPerformance/bbolt/fast_storage/rows_10x100/update-8         	     100	    123456 ns/op
BenchmarkPerformance/badger/fast_storage/rows_10x100/update-8        	     100	     23456 ns/op
BenchmarkPerformance/bbolt/fast_storage/rows_10x100/read-8           	     100	      3456 ns/op
BenchmarkSize/bbolt/rows_10x100-8 1000 1234 bytes/op
BenchmarkSize/badger/rows_10x100-8 1000 1100 bytes/op
PASS
`

func TestGetBenchResults(t *testing.T) {
	results, err := report.GetBenchResults(strings.NewReader(benchOutput))
	require.NoError(t, err)

	require.Equal(t, "linux", results.Goos)
	require.Equal(t, "amd64", results.Goarch)
	require.Equal(t, "Intel(R) Core(TM) i7-8550U CPU @ 1.80GHz", results.Cpu)

	require.Len(t, results.PerformanceResults, 2)

	read := results.PerformanceResults[0]
	require.Equal(t, "fast_storage/rows_10x100/read-8", read.BenchmarkName)
	require.Equal(t, "ns per op", read.Unit)
	require.Equal(t,
		[]report.SystemResult{
			{SystemName: "bbolt", Value: 3456},
		},
		read.Systems,
	)

	update := results.PerformanceResults[1]
	require.Equal(t, "fast_storage/rows_10x100/update-8", update.BenchmarkName)
	require.Equal(t,
		[]report.SystemResult{
			{SystemName: "badger", Value: 23456},
			{SystemName: "bbolt", Value: 123456},
		},
		update.Systems,
	)

	require.Len(t, results.SizeResults, 1)

	size := results.SizeResults[0]
	require.Equal(t, "rows_10x100-8", size.BenchmarkName)
	require.Equal(t, "bytes per op", size.Unit)
	require.Equal(t,
		[]report.SystemResult{
			{SystemName: "badger", Value: 1100},
			{SystemName: "bbolt", Value: 1234},
		},
		size.Systems,
	)
}

func TestGetBenchResultsRequiresEnvironmentInfo(t *testing.T) {
	_, err := report.GetBenchResults(strings.NewReader("PASS\n"))
	require.Error(t, err)
}

func TestParseBenchmarkName(t *testing.T) {
	system, benchmark, err := report.ParseBenchmarkName("BenchmarkPerformance/bbolt/fast_storage/rows_10x100/update-8")
	require.NoError(t, err)
	require.Equal(t, "bbolt", system)
	require.Equal(t, "fast_storage/rows_10x100/update-8", benchmark)

	_, _, err = report.ParseBenchmarkName("BenchmarkPerformance")
	require.Error(t, err)
}

func TestMakeResultChart(t *testing.T) {
	graph, err := report.MakeResultChart(report.BenchResult{
		BenchmarkName: "rows_10x100/update",
		Unit:          "ns per op",
		Systems: []report.SystemResult{
			{SystemName: "bbolt", Value: 100},
			{SystemName: "badger", Value: 200},
		},
	})
	require.NoError(t, err)
	require.Len(t, graph.Bars, 2)
	require.Equal(t, "rows_10x100/update", graph.Title)
	require.InDelta(t, 220, graph.YAxis.Range.GetMax(), 0.001)
}
