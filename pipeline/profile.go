// Package pipeline drives one identity record from people search to an
// emitted profile record, publishing each state change on the way.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/Nehilsa2/fb_profile_enrichment/bio"
	"github.com/Nehilsa2/fb_profile_enrichment/extract"
	"github.com/Nehilsa2/fb_profile_enrichment/search"
)

// ProfileData is the enriched record of one person. Every field is a string
// and absence is "".
type ProfileData struct {
	Friends            string `json:"friends"`
	FriendsListVisible string `json:"friendsListVisible"`
	LinkedIn           string `json:"linkedin"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Bio                string `json:"bio"`
	Position           string `json:"position"`
	Company            string `json:"company"`
	Location           string `json:"location"`
	MaritalStatus      string `json:"maritalStatus"`
	Followers          string `json:"followers"`
	CompanyFollowers   string `json:"companyFollowers"`
	CompanyPhone       string `json:"companyPhone"`
	CompanyEmail       string `json:"companyEmail"`
	CompanyWebsite     string `json:"companyWebsite"`
	CompanyFbPage      string `json:"companyFbPage"`
}

// Field is one named value of a ProfileData
type Field struct {
	Name  string
	Value string
}

// Fields lists every field in output order
func (p ProfileData) Fields() []Field {
	return []Field{
		{"friends", p.Friends},
		{"friendsListVisible", p.FriendsListVisible},
		{"linkedin", p.LinkedIn},
		{"email", p.Email},
		{"phone", p.Phone},
		{"bio", p.Bio},
		{"position", p.Position},
		{"company", p.Company},
		{"location", p.Location},
		{"maritalStatus", p.MaritalStatus},
		{"followers", p.Followers},
		{"companyFollowers", p.CompanyFollowers},
		{"companyPhone", p.CompanyPhone},
		{"companyEmail", p.CompanyEmail},
		{"companyWebsite", p.CompanyWebsite},
		{"companyFbPage", p.CompanyFbPage},
	}
}

// Result is what a run hands to its sinks
type Result struct {
	RunID       uuid.UUID          `json:"runId"`
	Target      string             `json:"target"`
	Match       search.MatchStatus `json:"match"`
	MatchedHref string             `json:"matchedHref,omitempty"`
	State       State              `json:"state"`
	Profile     ProfileData        `json:"profile"`
}

// Aggregate merges everything read for one person. The match status is
// carried on Result, so a miss still reports whatever the open page held.
func Aggregate(extracted extract.ProfileFields, parsed bio.Fields, secondary extract.CompanyFields) ProfileData {
	return ProfileData{
		Friends:            extracted.Friends,
		FriendsListVisible: extracted.FriendsListVisible,
		LinkedIn:           extracted.LinkedIn,
		Email:              extracted.Email,
		Phone:              extracted.Phone,
		Bio:                extracted.Bio,
		Position:           parsed.Position,
		Company:            parsed.Company,
		Location:           parsed.Location,
		MaritalStatus:      parsed.MaritalStatus,
		Followers:          extracted.Followers,
		CompanyFollowers:   secondary.Followers,
		CompanyPhone:       secondary.Phone,
		CompanyEmail:       secondary.Email,
		CompanyWebsite:     secondary.Website,
		CompanyFbPage:      extracted.CompanyPage,
	}
}
