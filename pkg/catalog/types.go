package catalog

// Movie is one item as returned by the discover endpoint. Every descriptive
// field is optional on the wire; absent fields stay nil and are persisted as
// NULL downstream.
type Movie struct {
	ID          int64    `json:"id"`
	Title       *string  `json:"title"`
	Overview    *string  `json:"overview"`
	ReleaseDate *string  `json:"release_date"`
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   *int64   `json:"vote_count"`
	Popularity  *float64 `json:"popularity"`
	GenreIDs    []int64  `json:"genre_ids"`
}

// discoverResponse is the envelope around one page of results.
type discoverResponse struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}
