// Package archive keeps log files under a line limit.
//
// Two policies are supported and kept distinct:
//
//   - Archive rollover: once a file exceeds MaxLines, its entire content is
//     compressed into "<file>.<YYYY-MM-DD_HH-mm-ss>.gz" and the live file is
//     emptied. The oldest archives beyond MaxArchives are then removed.
//   - Trim: without archiving, the live file keeps only its most recent
//     MaxLines lines.
//
// If the archive cannot be written, the partial archive is removed and the
// live file is left as it was, so no entries are lost.
//
// Archive names sort lexicographically in creation order. Archives created
// within the same second get a "_001", "_002", ... suffix on the stamp.
//
// The Archiver does not lock. Callers that share files between goroutines
// or processes go through the log writer, which serialises rotation and
// append. A Sweeper runs the same check on a cron schedule.
package archive
