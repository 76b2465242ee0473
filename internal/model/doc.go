// Package model defines the data structures shared by the detection engine,
// the report writers and the native messaging host.
//
// This package contains the following main types:
//   - AnalysisReport: the findings for one analyzed page
//   - ThirdPartyResources: third-party hostnames grouped by resource category
//   - Page: a rendered page handed from a renderer to the pipeline
//   - Grade: the presentation label derived from a privacy score
//
// The JSON field names follow the format the browser extension exchanges
// with the host, so a report produced in Go can be stored next to reports
// produced by the extension itself.
package model
