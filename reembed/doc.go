// Package reembed regenerates the stored embeddings of every question and
// answer, typically after switching embedding models.
//
// Questions and answers are paged out of the corpus in batches, embedded
// with retry and exponential backoff, normalized to unit length and written
// back. The whole run holds the corpus write lock and ends with an index
// rebuild, so queries keep using the previous index generation until the
// new vectors are complete. When a manifest repository is configured the
// new model name and dimension are recorded once the run succeeds.
package reembed
