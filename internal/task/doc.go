// Package task contains background jobs that run alongside the HTTP server.
// Its only job today is the insights refresher, which periodically recomputes
// each owner's analytics snapshot so cached insights stay warm.
package task
