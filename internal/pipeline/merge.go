package pipeline

import "github.com/Veraticus/grantlens/internal/model"

// mergeGrants left-joins grants to grantmakers on name. Every grant yields
// exactly one merged row; the first grantmaker with a given name wins.
func mergeGrants(grants []model.Grant, makers []model.Grantmaker) []model.MergedGrant {
	byName := make(map[string]*model.Grantmaker, len(makers))
	for i := range makers {
		if _, seen := byName[makers[i].Name]; !seen {
			byName[makers[i].Name] = &makers[i]
		}
	}

	merged := make([]model.MergedGrant, len(grants))
	for i, g := range grants {
		merged[i].Grant = g
		gm, ok := byName[g.GrantmakerName]
		if !ok {
			continue
		}
		assets, giving := gm.TotalAssets, gm.TotalGiving
		merged[i].TotalAssets = &assets
		merged[i].TotalGiving = &giving
		if gm.State != nil {
			state := *gm.State
			merged[i].State = &state
		}
	}

	return merged
}
