// Package reconciler keeps clients in sync with edits to the servers file.
//
// ConfigWatcher watches the servers file with fsnotify and, after a short
// debounce, runs a callback. The gateway uses NotifyToolsChanged as that
// callback so every attached SSE client receives
// notifications/tools/list_changed and lists tools again, whether the file was
// edited by hand or rewritten by the gateway itself.
package reconciler
