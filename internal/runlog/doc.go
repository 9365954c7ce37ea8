// Package runlog defines the two per-worker CSV logs exchanged between the
// load driver and the aggregator, with writers for the driver side and
// tolerant readers for the aggregator side.
//
// Request log:
//
//	timestamp,type,name,status,response_time,response_length
//	1718000000123.4,GET,/get,OK,3.2,41
//	1718000000150.9,POST,/put,FAIL,,0
//
// Interval log:
//
//	interval_ms
//	12.5
//	-3.0
//
// The readers never fail on a single bad row: malformed rows are skipped and
// counted. Only a missing header or an I/O error fails the whole file.
package runlog
