// Package histogram buckets measurement values into fixed-count, equal-width
// bins and summarizes their distribution.
//
// New always returns the requested number of bins. The last bin includes the
// maximum, so the bin counts always add up to Total. Ranges wider than the
// float64 span (for example -1e308 to 1e308) still produce finite, ordered
// bin edges.
package histogram
