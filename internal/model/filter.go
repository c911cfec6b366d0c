package model

// DatasetFilter holds criteria for querying datasets.
type DatasetFilter struct {
	Platform []string `json:"platform,omitempty"`
	Search   string   `json:"search,omitempty"` // substring match on name/urn
	Sort     string   `json:"sort,omitempty"`   // e.g. "-updated_at", "name"; prefix "-" = descending
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}
