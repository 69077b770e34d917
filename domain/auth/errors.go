package auth

// User-facing messages.
const (
	MessageEmailTaken         = "Cet email est déjà utilisé"
	MessageInvalidCredentials = "Email ou mot de passe incorrect"
	MessageInvalidPayload     = "Email et mot de passe requis"
)
