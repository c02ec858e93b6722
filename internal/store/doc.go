// Package store defines the persistence interfaces the services depend on.
// Implementations live under internal/platform; keeping the contracts here
// lets the scheduling and analytics logic stay independent of whether cards
// are held in PostgreSQL or in memory.
package store
