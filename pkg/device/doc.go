// Package device describes audio endpoints and finds them by name or ID.
//
// The engine only sees the Enumerator interface; MalgoEnumerator is the
// concrete implementation used by the command line tool.
package device
