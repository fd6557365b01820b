package models

// IdentityRecord is the learner profile shared by every worksheet.
// FullName is only ever read: it is the single-field layout of older pages.
type IdentityRecord struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ClassCode string `json:"classCode"`
	FullName  string `json:"fullName,omitempty"`
}

// IdentityPatch is a partial identity update; nil fields are untouched
type IdentityPatch struct {
	FirstName *string
	LastName  *string
	ClassCode *string
}
