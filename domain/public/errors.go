package public

const (
	MessageNotFound = "Waitlist non trouvée"
)
