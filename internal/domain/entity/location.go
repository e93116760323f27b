package entity

import "time"

// Location representa un lugar de almacenamiento (laboratorio, bodega, oficina) de un departamento.
type Location struct {
	ID           string
	Name         string
	DepartmentID string
	CreatedAt    time.Time
}
