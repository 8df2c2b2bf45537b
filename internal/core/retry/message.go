package retry

import (
	"github.com/vietddude/retrykit/internal/core/domain"
)

// UnknownMessage is shown when nothing better is known about a failure.
const UnknownMessage = "Erro desconhecido. Tente novamente."

var categoryMessages = map[domain.Category]string{
	domain.CategoryNetwork:      "Erro de conexão. Por favor, verifique sua internet e tente novamente.",
	domain.CategoryTimeout:      "Operação demorou muito tempo. Por favor, tente novamente.",
	domain.CategoryRateLimit:    "Muitas requisições. Por favor, aguarde alguns momentos e tente novamente.",
	domain.CategoryNotFound:     "Recurso não encontrado. Verifique se os dados estão corretos.",
	domain.CategoryUnauthorized: "Acesso negado. Por favor, verifique suas credenciais.",
}

// UserMessage converts err into text suitable for end users. Terminal retry
// errors map to a fixed message per category; anything else falls back to the
// error's own message.
func UserMessage(err error) string {
	if err == nil {
		return UnknownMessage
	}
	if terminal, ok := AsError(err); ok {
		return MessageFor(terminal.Category, err)
	}
	return fallbackMessage(err)
}

// MessageFor returns the user-facing text for a category. err supplies the
// detail for validation failures and the fallback for unknown ones.
func MessageFor(category domain.Category, err error) string {
	if msg, ok := categoryMessages[category]; ok {
		return msg
	}
	if category == domain.CategoryValidation {
		return "Dados inválidos: " + fallbackMessage(err)
	}
	return fallbackMessage(err)
}

func fallbackMessage(err error) string {
	if err == nil || err.Error() == "" {
		return UnknownMessage
	}
	return err.Error()
}
