// Package dataprocessing implements the aggregation pipeline that turns
// uploaded keyword-monitoring spreadsheets into the statistics and
// chart-ready series the dashboard displays.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Readers: decode xlsx and csv uploads into a RawTable
// 2. Parser: normalize columns and rows into validated findings
// 3. Aggregator: merge, date-filter, and derive statistics and series
//
// # Usage
//
// Basic ingest example:
//
//	table, err := dataprocessing.ReadTable("results.xlsx", file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := dataprocessing.ParseRows(logger, table)
//
// Aggregation:
//
//	ws := dataprocessing.Merge(result)
//	subset := dataprocessing.FilterByDate(ws, filter)
//	stats := dataprocessing.ComputeStatistics(subset)
//
// Row-level problems never abort an ingest: malformed rows are skipped
// and reported in the ParseResult diagnostics. Only a table with none
// of the required columns fails, with ErrMissingColumns.
package dataprocessing
