// README: Common identifier and geo types shared across modules.
package types

// ID is an opaque entity identifier, stable for the entity's lifetime.
type ID string

type Point struct {
	Lat float64
	Lng float64
}
