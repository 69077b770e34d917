package subscription

const (
	MessageFieldsMissing     = "ID de waitlist et email requis"
	MessageWaitlistNotFound  = "Waitlist non trouvée"
	MessageAlreadySubscribed = "Cet email est déjà inscrit à cette waitlist"
	MessageSubscribed        = "Inscription réussie"
)
