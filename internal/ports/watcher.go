package ports

// Watcher monitors a directory and reports changes to the files in it.
// The adapter (fsnotify) debounces bursts of events for the same file.
// Only one Watch call should be active at a time.
type Watcher interface {
	// Watch starts monitoring dir (not recursive). onChange is called with
	// the absolute path of each changed file. The callback may be invoked from
	// any goroutine. Returns an error if the directory doesn't exist or
	// permissions are insufficient.
	Watch(dir string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
