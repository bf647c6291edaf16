// Package exporter serializes a session's findings for download, as
// CSV or as an Excel workbook.
package exporter
