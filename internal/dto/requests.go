package dto

// SendOTPRequest - запрос кода подтверждения.
type SendOTPRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// VerifyOTPRequest - проверка введённого кода.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SubmitFeedbackRequest - форма отзыва. Rating - указатель, чтобы отличать
// отсутствующее поле от нуля.
type SubmitFeedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Rating  *int   `json:"rating"`
}
