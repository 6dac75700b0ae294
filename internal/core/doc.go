// Package core provides the filtering, preview and report logic for
// timesheet CSV files.
//
// The package has no UI dependencies. The web server, the terminal UI and
// the preview command all drive the same types.
//
// # Pipeline
//
// A file passes through a fixed sequence of steps:
//
//  1. [ParseCSV] turns raw bytes into a [Table], or fails without a table
//  2. [BuildTableModel] derives the column list and the distinct values of
//     the category fields (Project, Client, User)
//  3. [Filter] applies the [FilterState] to produce a [FilteredView]
//  4. [RenderPreview] turns the view into a [RenderedPreview] with at most
//     maxRows body rows, or a placeholder state
//
// Steps 2 to 4 are pure functions. They never fail and never panic.
//
// # Sessions
//
// Frontends do not call the pipeline directly. They translate user events
// into messages ([FileLoaded], [ColumnToggled], [CategoryFilterChanged] and
// so on) and pass them to [Session.Update], which recomputes the preview.
// [SessionStore] keeps many sessions for the web server and expires idle
// ones.
//
// # Values are raw
//
// Cell values, column names and filter values are carried unescaped.
// Anything that writes markup must escape them; the web templates do so
// for every interpolated string.
//
// # Reports
//
// [BuildReport] summarises the filtered entries per user and day using a
// registered [ReportSchema]. [ReportLimiter] bounds concurrent generation
// and [ReportLog] records each request.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - FILE001-FILE005: upload and parse errors
//   - SES001-SES002: session errors
//   - RPT001-RPT004: report errors
//   - UPL004-UPL005: cancelled or timed-out requests
package core
