// Package async runs background tasks with panic recovery and timeouts.
//
// SafeGo logs failures through logrus and reports them on a channel, so a
// crashing watcher or job never takes the server down with it.
package async
