// Package reembed recomputes the vectors of stored chunks, typically after
// switching to a different embedding model.
//
// Chunks are streamed from the repository in batches, embedded with retry
// and exponential backoff, normalized for cosine similarity search and
// written back. Progress is reported to an io.Writer.
package reembed
