// Package storage is the opaque file storage the toolbar persists rendered pages to.
//
// The toolbar only needs four verbs: save a named blob, open it again, turn a name into a
// retrieval URL, and delete it. Backends are selected by name through a small registry:
//
//	s, err := storage.New("filesystem", storage.Options{Root: "debugbar-media", BaseURL: "/media/"})
//
// Built in: "filesystem" and "memory". The sqlitestore subpackage registers "sqlite".
//
// Names are slash-separated relative paths ("debug-toolbar/<uuid>.html"). Save may alter the
// name to avoid clobbering an existing entry; always use the returned name.
package storage
