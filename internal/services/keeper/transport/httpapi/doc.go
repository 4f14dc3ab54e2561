// Package httpapi exposes the keeper service over HTTP.
//
// JSON is the default representation. Requests sent by htmx receive the HTML
// fragments the desk pages swap in, and every endpoint that appends to the
// session log sets the newDiceRoll trigger so open log panels refresh. Live
// viewers can follow the log over the /logs/ws websocket instead of polling.
package httpapi
