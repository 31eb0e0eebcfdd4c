// Package relevance scores how well a piece of text matches a topic using
// embedding cosine similarity.
//
// The embedding service behind a Scorer is constructed lazily on first use
// and shared by every later call. When scoring fails the Scorer fails open:
// it reports NeutralScore, marks the result as passing and logs the error.
package relevance
