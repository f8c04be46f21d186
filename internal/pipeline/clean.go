package pipeline

import "github.com/Veraticus/grantlens/internal/model"

var grantColumns = map[string]bool{
	model.ColCompany:        true,
	model.ColGrantmakerName: true,
	model.ColRecipientName:  true,
	model.ColGrantAmount:    true,
	model.ColYearAuthorized: true,
	model.ColDescription:    true,
	model.ColPrimarySubject: true,
}

var grantmakerColumns = map[string]bool{
	model.ColCompany:        true,
	model.ColGrantmakerName: true,
	model.ColTotalAssets:    true,
	model.ColTotalGiving:    true,
	model.ColState:          true,
}

// cleanGrants tags, coerces and filters the grant rows of one organization.
// Rows with a missing amount or year are dropped and counted.
func cleanGrants(org string, t *Table) ([]model.Grant, int) {
	grants := make([]model.Grant, 0, t.Len())
	removed := 0

	for i := range t.Rows {
		rawAmount, _ := t.Value(i, model.ColGrantAmount)
		amount, okAmount := ParseNumber(rawAmount)
		rawYear, _ := t.Value(i, model.ColYearAuthorized)
		year, okYear := ParseYear(rawYear)
		if !okAmount || !okYear {
			removed++
			continue
		}

		name, _ := t.Value(i, model.ColGrantmakerName)
		recipient, _ := t.Value(i, model.ColRecipientName)

		grants = append(grants, model.Grant{
			Company:        org,
			GrantmakerName: name,
			RecipientName:  recipient,
			Amount:         amount,
			Year:           year,
			Description:    t.Optional(i, model.ColDescription),
			PrimarySubject: t.Optional(i, model.ColPrimarySubject),
			Extra:          t.extras(i, grantColumns),
		})
	}

	return grants, removed
}

// cleanGrantmakers tags, coerces and filters the grantmaker rows of one
// organization. Rows with missing assets or giving are dropped and counted.
func cleanGrantmakers(org string, t *Table) ([]model.Grantmaker, int) {
	makers := make([]model.Grantmaker, 0, t.Len())
	removed := 0

	for i := range t.Rows {
		rawAssets, _ := t.Value(i, model.ColTotalAssets)
		assets, okAssets := ParseNumber(rawAssets)
		rawGiving, _ := t.Value(i, model.ColTotalGiving)
		giving, okGiving := ParseNumber(rawGiving)
		if !okAssets || !okGiving {
			removed++
			continue
		}

		name, _ := t.Value(i, model.ColGrantmakerName)

		makers = append(makers, model.Grantmaker{
			Company:     org,
			Name:        name,
			TotalAssets: assets,
			TotalGiving: giving,
			State:       t.Optional(i, model.ColState),
			Extra:       t.extras(i, grantmakerColumns),
		})
	}

	return makers, removed
}
