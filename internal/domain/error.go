package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Status   string              `json:"status" example:"error"`
	Code     int                 `json:"code" example:"422"`
	Category string              `json:"category" example:"VALIDATION_ERROR"`
	Message  string              `json:"message" example:"Error de validación"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

// MessageResponse é usada pelos endpoints que respondem apenas com uma mensagem.
type MessageResponse struct {
	Mensaje string `json:"mensaje" example:"Configuraciones actualizadas correctamente"`
}

// APIResponse é o envelope das rotas de autenticação e usuários.
type APIResponse struct {
	Status  string      `json:"status" example:"success"`
	Message string      `json:"message" example:"Inicio de sesión exitoso"`
	Data    interface{} `json:"data,omitempty"`
}
