// Package audit provides structured audit logging for the capture
// listener. Every interaction produces a pair of records, one when the
// request arrives and one when the response is written, and the relay
// client adds records for each forward it attempts. Records are JSON
// lines with a monotonic sequence number and a per-request trace ID so
// a single interaction can be followed across records.
//
// Audit logging is disabled by default. Enable it in configuration or
// with the serve command's audit flag:
//
//	audit:
//	  enabled: true
//	  outputFile: /var/log/recvd/audit.jsonl
//
// The middleware captures a bounded preview of request and response
// bodies. The full body always reaches the wrapped handler untouched.
package audit
