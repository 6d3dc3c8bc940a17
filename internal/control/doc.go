// Package control implements the runtime control channel.
//
// A Service receives commands from a Transport (NATS request/reply in
// production) and from local submissions such as the config watcher, and
// applies them one at a time to the daemon state. Every command is answered
// with a JSON Response carrying a status snapshot.
//
// Commands are JSON objects ({"command":"window","start_time":"0700"}) or a
// bare command word ("stop").
package control
