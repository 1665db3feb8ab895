// Package ingestion puts question/answer pairs into the corpus.
//
// The Writer is the corpus's single writer: it derives normalized text and
// keyword sets, embeds questions and answers, stores them, and publishes
// the stored questions to the search index after the store commits.
//
// The Importer loads pairs in bulk from CSV or XLSX files with
// question/answer (or pergunta/resposta) columns. Embedding batches run
// concurrently on a worker pool; writes stay serialized through the Writer.
package ingestion
