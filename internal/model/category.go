package model

// Category is the keyword-derived label assigned to a grant description.
type Category string

const (
	// CategoryHealthcare covers health, medical and hospital grants.
	CategoryHealthcare Category = "Healthcare"
	// CategoryEducation covers schools, students and scholarships.
	CategoryEducation Category = "Education"
	// CategoryCommunityDevelopment covers community and social services.
	CategoryCommunityDevelopment Category = "Community Development"
	// CategoryResearch covers research and science.
	CategoryResearch Category = "Research"
	// CategoryArtsCulture covers arts, museums and music.
	CategoryArtsCulture Category = "Arts & Culture"
	// CategoryEnvironment covers conservation and sustainability.
	CategoryEnvironment Category = "Environment"
	// CategoryUncategorized is assigned when a grant has no description.
	CategoryUncategorized Category = "Uncategorized"
	// CategoryOther is assigned when no keyword set matches.
	CategoryOther Category = "Other"
)

// AllCategories returns every label a grant can receive, in rule order
// followed by the two fallbacks.
func AllCategories() []Category {
	return []Category{
		CategoryHealthcare,
		CategoryEducation,
		CategoryCommunityDevelopment,
		CategoryResearch,
		CategoryArtsCulture,
		CategoryEnvironment,
		CategoryUncategorized,
		CategoryOther,
	}
}

// IsValid reports whether c belongs to the closed category set.
func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
