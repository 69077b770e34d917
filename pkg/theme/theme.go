// Package theme is the fixed catalogue of public page styles.
package theme

const DefaultID = "dark-modern"

type Tokens struct {
	BackgroundColor      string `json:"backgroundColor"`
	PrimaryColor         string `json:"primaryColor"`
	TextColor            string `json:"textColor"`
	TextSecondaryColor   string `json:"textSecondaryColor"`
	AccentColor          string `json:"accentColor"`
	BorderColor          string `json:"borderColor"`
	InputBackground      string `json:"inputBackground"`
	InputBorder          string `json:"inputBorder"`
	ContainerBorderColor string `json:"containerBorderColor"`
	ContainerShadow      string `json:"containerShadow"`
}

type Theme struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tokens      Tokens `json:"tokens"`
}

var catalogue = []Theme{
	{
		ID:          "dark-modern",
		Name:        "Dark Modern",
		Description: "Fond sombre avec accent bleu moderne",
		Tokens: Tokens{
			BackgroundColor:      "#111827",
			PrimaryColor:         "#3B82F6",
			TextColor:            "#FFFFFF",
			TextSecondaryColor:   "#9CA3AF",
			AccentColor:          "#60A5FA",
			BorderColor:          "#374151",
			InputBackground:      "#1F2937",
			InputBorder:          "#374151",
			ContainerBorderColor: "#374151",
			ContainerShadow:      "0 4px 6px -1px rgba(0, 0, 0, 0.3), 0 2px 4px -1px rgba(0, 0, 0, 0.2)",
		},
	},
	{
		ID:          "light-minimal",
		Name:        "Light Minimal",
		Description: "Minimaliste noir et blanc",
		Tokens: Tokens{
			BackgroundColor:      "#FFFFFF",
			PrimaryColor:         "#000000",
			TextColor:            "#000000",
			TextSecondaryColor:   "#666666",
			AccentColor:          "#333333",
			BorderColor:          "#E5E5E5",
			InputBackground:      "#FAFAFA",
			InputBorder:          "#E5E5E5",
			ContainerBorderColor: "#000000",
			ContainerShadow:      "0 4px 6px -1px rgba(0, 0, 0, 0.1), 0 2px 4px -1px rgba(0, 0, 0, 0.06)",
		},
	},
	{
		ID:          "light-gray",
		Name:        "Light Gray",
		Description: "Clair et moderne dans les tons gris",
		Tokens: Tokens{
			BackgroundColor:      "#F5F5F5",
			PrimaryColor:         "#6366F1",
			TextColor:            "#1F2937",
			TextSecondaryColor:   "#6B7280",
			AccentColor:          "#818CF8",
			BorderColor:          "#E5E7EB",
			InputBackground:      "#FFFFFF",
			InputBorder:          "#D1D5DB",
			ContainerBorderColor: "#D1D5DB",
			ContainerShadow:      "0 4px 6px -1px rgba(0, 0, 0, 0.08), 0 2px 4px -1px rgba(0, 0, 0, 0.04)",
		},
	},
	{
		ID:          "vibrant-purple",
		Name:        "Vibrant Purple",
		Description: "Sombre avec accents violet et magenta vibrants",
		Tokens: Tokens{
			BackgroundColor:      "#0F0F1E",
			PrimaryColor:         "#A855F7",
			TextColor:            "#FFFFFF",
			TextSecondaryColor:   "#C4B5FD",
			AccentColor:          "#EC4899",
			BorderColor:          "#4C1D95",
			InputBackground:      "#1E1B2E",
			InputBorder:          "#6D28D9",
			ContainerBorderColor: "#7C3AED",
			ContainerShadow:      "0 8px 16px -4px rgba(168, 85, 247, 0.3), 0 4px 8px -2px rgba(168, 85, 247, 0.2)",
		},
	},
}

var byID = func() map[string]Theme {
	m := make(map[string]Theme, len(catalogue))
	for _, t := range catalogue {
		m[t.ID] = t
	}
	return m
}()

// Get never fails: unknown ids resolve to the default theme.
func Get(id string) Theme {
	if t, ok := byID[id]; ok {
		return t
	}
	return byID[DefaultID]
}

func IsKnown(id string) bool {
	_, ok := byID[id]
	return ok
}

// All returns a copy of the catalogue in display order.
func All() []Theme {
	out := make([]Theme, len(catalogue))
	copy(out, catalogue)
	return out
}

// IDs is handy for validation messages.
func IDs() []string {
	ids := make([]string, 0, len(catalogue))
	for _, t := range catalogue {
		ids = append(ids, t.ID)
	}
	return ids
}
