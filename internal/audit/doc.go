// Package audit records every pipeline decision as an append-only stream of
// structured events, one JSON object per line.
//
// A Sink is an explicit object owned by the session: opened at session start,
// flushed after every event and closed at session end. Events are never
// rewritten once emitted.
package audit
