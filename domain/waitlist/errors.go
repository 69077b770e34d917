package waitlist

// User-facing messages.
const (
	MessageNotFound         = "Waitlist non trouvée"
	MessageSlugTitleMissing = "Slug et titre requis"
	MessageSlugTaken        = "Ce slug est déjà utilisé"
	MessageSlugMissing      = "Slug requis"
	MessageTitleMissing     = "Titre requis"
	MessageInvalidPayload   = "Données invalides"
	MessageInvalidCountdown = "Date de compte à rebours invalide"
	MessageInvalidLogo      = "URL de logo invalide"
)
