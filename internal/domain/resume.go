package domain

// Resume holds the structured sections the matcher flattens into scoring input.
// Section order (contact, summary, experience, education) is significant: the
// flattened text must be byte-stable across runs for an unchanged resume.
type Resume struct {
	ID         int64
	UserID     int64
	Name       string
	Contact    string
	Summary    string
	Experience []ExperienceEntry
	Education  []EducationEntry
}

type ExperienceEntry struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

type EducationEntry struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Period string `json:"period"`
}
