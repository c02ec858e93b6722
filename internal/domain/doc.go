// Package domain contains the core entities and value objects of the
// scheduling engine: learning cards, their review history, and the
// validation rules that keep them consistent. It has no dependency on
// storage, transport, or any other infrastructure concern.
package domain
