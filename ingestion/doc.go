// Package ingestion provides the normalize, validate and store pipeline for
// collected content.
//
// The Pipeline type runs each item through three stages:
//   - Normalizer: cleans the text, derives metadata and hashes the content
//   - Validator: rejects duplicates, short or untitled content and content
//     below the relevance threshold, then registers the hash
//   - StorageSink: splits the content into overlapping chunks and persists them
//
// Stages hand the item to each other through a Slot. Each Process call uses
// its own Slot, while the HashIndex is shared by every call. Rejections are
// reported in the returned Result, never as errors.
package ingestion
