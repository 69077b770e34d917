package upload

const (
	MessageNoFile         = "Aucun fichier fourni"
	MessageTypeNotAllowed = "Type de fichier non autorisé. Utilisez PNG, JPEG, GIF, WebP ou SVG"
	MessageTooLarge       = "Le fichier est trop volumineux. Taille maximale : 5MB"
	MessageUploadFailed   = "Erreur lors de l'upload du fichier"
)
