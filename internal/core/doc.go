// Package core provides the upload service around the section extractor.
//
// The extractor in package extract is a pure function over one document. This
// package adds what a deployment needs around it, independent of any UI or
// transport layer:
//
//   - Concurrency limits: [UploadLimiter] bounds parallel extractions and lets
//     shutdown wait for in-flight work.
//   - Timeouts: the extractor has no cancellation points, so
//     [Service.ExtractUpload] runs it under an external deadline.
//   - History: every successful extraction is stored through a
//     [HistoryStore] ([PostgresStore] when a database is configured,
//     [MemoryStore] otherwise) and pruned by [Service.StartHistoryScheduler].
//   - Metrics and logging for every attempt.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - PARSE001: the upload is not an HTML document
//   - FILE001, FILE004: file size and missing file
//   - UPL002-UPL005: busy, not found, cancelled, timed out
//   - RATE001, AUTH001-AUTH002: throttling and API keys
package core
