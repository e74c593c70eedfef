// Package intake finds documents to process. Scan lists the inbox once;
// Watch follows it with fsnotify and hands debounced batches to a callback.
// Files already carrying a filed-letter name are skipped in both modes.
package intake
