package dto

// Límites de paginación de los listados (catálogo, colas de solicitudes).
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest paginación pedida por el cliente.
type PageRequest struct {
	Limit  int
	Offset int
}

// Normalize deja la página dentro de rango: límite ausente o no positivo usa el valor
// por defecto, uno mayor a MaxPageLimit se recorta y un offset negativo vuelve a cero.
func (p PageRequest) Normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse cuerpo de error HTTP. Code es estable (VALIDATION, INSUFFICIENT_STOCK, ...);
// Message es para personas.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
