// Package analyze merges per-worker CSV logs into latency and
// read-after-write interval histograms, one set per write:read mix, and then
// deletes the consumed logs.
//
// # Basic Usage
//
//	cfg := analyze.DefaultConfig()
//	cfg.Dir = "./results"
//	report, err := analyze.New(cfg).Run()
//	fmt.Println(report.Format())
//
// # Pipeline
//
// Every mix goes through the same steps, one after another:
//
//  1. discover run_{mix}_requests*.csv (no files: the mix is skipped)
//  2. parse each file tolerantly and concatenate the rows in file-name order
//  3. split /get and /put rows with a defined response time
//  4. render read_latency_{mix}.png and write_latency_{mix}.png
//  5. repeat 1-4 for intervals_{mix}*.csv into intervals_{mix}.png
//  6. delete every discovered file
//
// A corrupt file, a missing log set, or a failed deletion is logged and never
// stops the run. A failed image write aborts that mix before cleanup, so its
// logs stay on disk for the next run, and is reported from Run.
package analyze
