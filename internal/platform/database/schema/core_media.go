package schema

// CoreMediaTable represents the 'core.media' table
type CoreMediaTable struct {
	Table     string
	ID        string
	MediaType string
	TmdbID    string
	Title     string
	Slug      string
	CreatedAt string
	UpdatedAt string
}

// CoreMedia is the schema definition for core.media
var CoreMedia = CoreMediaTable{
	Table:     "core.media",
	ID:        "id",
	MediaType: "mediatype",
	TmdbID:    "tmdbid",
	Title:     "title",
	Slug:      "slug",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}
