// Package worker processes admitted publish tasks: it loads the task
// from the store, materializes side effects against the content store
// (media attachment, document insert, taxonomy), and either finalizes
// with a published callback or retries with bounded backoff, escalating
// to an operator notification when the retry budget is exhausted.
package worker
