package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario.
// La identidad de la bodega siempre viaja como parámetro explícito; no hay bodega implícita.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
