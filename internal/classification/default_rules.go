package classification

import "github.com/Veraticus/grantlens/internal/model"

// DefaultRules returns the grant description rules in precedence order.
// Healthcare is checked before Education, so a hospital scholarship is a
// Healthcare grant.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: model.CategoryHealthcare,
			Keywords: []string{"health", "medical", "hospital", "clinic", "patient"},
		},
		{
			Category: model.CategoryEducation,
			Keywords: []string{"education", "school", "student", "scholarship", "university"},
		},
		{
			Category: model.CategoryCommunityDevelopment,
			Keywords: []string{"community", "social", "development", "service"},
		},
		{
			Category: model.CategoryResearch,
			Keywords: []string{"research", "science", "study"},
		},
		{
			Category: model.CategoryArtsCulture,
			Keywords: []string{"art", "culture", "museum", "music"},
		},
		{
			Category: model.CategoryEnvironment,
			Keywords: []string{"environment", "conservation", "sustainability"},
		},
	}
}
