// Package mix names the write:read traffic ratios a load run is partitioned by.
//
// A Mix only decides file names: the driver writes
// run_{mix}_requests_{suffix}.csv and intervals_{mix}_{suffix}.csv, and the
// aggregator globs them back with run_{mix}_requests*.csv and
// intervals_{mix}*.csv before rendering read_latency_{mix}.png,
// write_latency_{mix}.png and intervals_{mix}.png.
//
//	m, _ := mix.Parse("10_90")
//	m.ID()    // "10_90"
//	m.Title() // "10/90"
package mix
