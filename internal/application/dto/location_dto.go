package dto

import "time"

// CreateLocationRequest entrada para crear una ubicación.
type CreateLocationRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	DepartmentID string `json:"department_id"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DepartmentID string    `json:"department_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// LocationListResponse lista paginada de ubicaciones.
type LocationListResponse struct {
	Items []LocationResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
