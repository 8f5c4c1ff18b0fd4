// Package watcher observes datasource trees with fsnotify and triggers a
// re-scan of a datasource once its changes have settled for the debounce
// interval.
package watcher
