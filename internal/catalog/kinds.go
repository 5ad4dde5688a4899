package catalog

import "strings"

// EntityKind identifies one canonical entity table.
type EntityKind string

const (
	KindPerson    EntityKind = "person"
	KindCategory  EntityKind = "category"
	KindCountry   EntityKind = "country"
	KindRating    EntityKind = "rating"
	KindTitleType EntityKind = "title_type"
)

// RelationKind identifies one title junction populated by the engine.
type RelationKind string

const (
	RelationActors     RelationKind = "actors_titles"
	RelationDirectors  RelationKind = "directors_titles"
	RelationCategories RelationKind = "categories_titles"
	RelationCountries  RelationKind = "countries_titles"
)

// Relation describes how a multi-valued source column maps onto a junction
// table. The engine is generic over this metadata; adding a new relation is
// a schema change plus one entry here.
type Relation struct {
	Kind         RelationKind
	SourceColumn string     // column on source_titles holding comma-joined values
	Entity       EntityKind // canonical entity kind the values resolve to
	Table        string     // junction table name
	EntityColumn string     // entity id column on the junction table
}

var relations = []Relation{
	{
		Kind:         RelationActors,
		SourceColumn: "cast_members",
		Entity:       KindPerson,
		Table:        "actors_titles",
		EntityColumn: "actor_id",
	},
	{
		Kind:         RelationDirectors,
		SourceColumn: "director",
		Entity:       KindPerson,
		Table:        "directors_titles",
		EntityColumn: "director_id",
	},
	{
		Kind:         RelationCategories,
		SourceColumn: "listed_in",
		Entity:       KindCategory,
		Table:        "categories_titles",
		EntityColumn: "category_id",
	},
	{
		Kind:         RelationCountries,
		SourceColumn: "country",
		Entity:       KindCountry,
		Table:        "countries_titles",
		EntityColumn: "country_id",
	},
}

// Relations returns the ordered list of junction relations the engine knows.
func Relations() []Relation {
	cp := make([]Relation, len(relations))
	copy(cp, relations)
	return cp
}

// RelationByKind looks up the metadata for a relation kind.
func RelationByKind(kind RelationKind) (Relation, bool) {
	for _, rel := range relations {
		if rel.Kind == kind {
			return rel, true
		}
	}
	return Relation{}, false
}

// ParseRelationKind converts user input into a known RelationKind. Both the
// full junction name and the bare entity plural ("actors") are accepted.
func ParseRelationKind(value string) (RelationKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", false
	}
	for _, rel := range relations {
		if normalized == string(rel.Kind) {
			return rel.Kind, true
		}
		if short, ok := strings.CutSuffix(string(rel.Kind), "_titles"); ok && normalized == short {
			return rel.Kind, true
		}
	}
	return "", false
}
