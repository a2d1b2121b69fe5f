// Package brewsvc keeps a live view of Homebrew services in sync with a
// menu-like render surface, without blocking the surface on brew.
//
// The Engine polls `brew services list`, parses the table into a Snapshot,
// and pushes derived rows to a Surface:
//
//	engine := brewsvc.NewEngine(
//	    brewsvc.WithSurface(surface),
//	    brewsvc.WithNotifier(alerts),
//	    brewsvc.WithLogger(log),
//	)
//	go engine.Run(ctx)
//
//	engine.SurfaceOpened()          // re-polls and shows loading rows
//	engine.RowClicked("postgresql") // start or stop, then re-poll
//
// # Concurrency
//
// Engine.Run is the only goroutine that reads or writes engine state. The
// public methods post messages to it; brew subprocesses run on worker
// goroutines that hand a result value back. At most one list poll is in
// flight: requests arriving meanwhile are dropped, not queued.
//
// # Rendering
//
// Every row has a stable RowKey. When the surface is open and its rows
// have the same keys as the freshly derived list, rows are updated in
// place so hover and click feedback survive a refresh. Otherwise the
// surface is rebuilt.
//
// The package also provides the pieces a front end needs around the
// engine: PreferenceStore for the brew search path, DirWatcher for reacting
// to plist changes, Scheduler for periodic refresh, and NewLogger.
package brewsvc
