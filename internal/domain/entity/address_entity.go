package entity

import "time"

// CustomMovie is the movie label stored for free-text addresses.
const CustomMovie = "Custom"

// Address is a catalog entry. Catalog rows are seeded; custom rows are
// recorded when a user registers with a free-text address.
type Address struct {
	ID        string
	Address   string
	Movie     string
	IsCustom  bool
	CreatedBy string // empty for seeded entries
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CatalogEntry is an Address annotated with whether a user already holds it.
type CatalogEntry struct {
	Address
	Taken bool
}

// DirectoryEntry is a registered address as returned by directory search.
type DirectoryEntry struct {
	Address  string
	Movie    string
	Username string
	IsCustom bool
}

// DefaultCatalog is the themed address list offered at signup.
func DefaultCatalog() []Address {
	seed := []struct{ address, movie string }{
		{"Cloud City, Bespin System", "Star Wars"},
		{"Tyrell Corporation, Los Angeles 2019", "Blade Runner"},
		{"USS Enterprise NCC-1701, Bridge", "Star Trek"},
		{"Zion, Machine City Underground", "The Matrix"},
		{"Pandora Research Station, Alpha Centauri", "Avatar"},
		{"New Tokyo Bay, Sector 7", "Akira"},
		{"Elysium Space Station, Orbit", "Elysium"},
		{"Aperture Science Labs, Level 5", "Portal"},
		{"Mars Colony Dome, Olympus Mons", "Total Recall"},
		{"Coruscant Senate District, Level 1", "Star Wars"},
	}
	out := make([]Address, 0, len(seed))
	for _, s := range seed {
		out = append(out, Address{Address: s.address, Movie: s.movie, IsActive: true})
	}
	return out
}
