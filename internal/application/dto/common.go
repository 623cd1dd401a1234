package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OKResponse respuesta de operaciones sin cuerpo propio (eliminar).
type OKResponse struct {
	OK bool `json:"ok"`
}
