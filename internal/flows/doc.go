// Package flows holds the session orchestration flows as pure functions over
// explicit dependency structs. The root engine wires the dependencies once;
// flows never read configuration or globals and classify failures so the
// root package can map them to its public error kinds.
package flows
