package guide

// Section is one chapter of the guide.
type Section struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Sections lists the chapters in reading order.
func Sections() []Section {
	return []Section{
		{ID: "intro", Label: "1. Introduction"},
		{ID: "pixels", Label: "2. Pixels & RGB"},
		{ID: "pipeline", Label: "3. The Pipeline"},
		{ID: "ml", Label: "4. KNN & K-Means"},
		{ID: "apps", Label: "5. Applications"},
		{ID: "quiz", Label: "6. Quiz"},
	}
}

// Application is an entry of the applications gallery.
type Application struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Applications is the static gallery of real world uses.
func Applications() []Application {
	return []Application{
		{Title: "Healthcare", Description: "Tumour detection in MRI."},
		{Title: "Automotive", Description: "Lane detection in self-driving cars."},
		{Title: "Social Media", Description: "Face filters & auto-tagging."},
		{Title: "Security", Description: "Surveillance & anomaly detection."},
	}
}

// Index is the full static content of the guide.
type Index struct {
	Sections     []Section     `json:"sections"`
	Applications []Application `json:"applications"`
	Stages       []Stage       `json:"stages"`
}

// NewIndex collects the static content.
func NewIndex() Index {
	return Index{
		Sections:     Sections(),
		Applications: Applications(),
		Stages:       Stages(),
	}
}
