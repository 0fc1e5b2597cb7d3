package movies

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"moviehub/pkg/models"
)

func titles(ms []models.Movie) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Title())
	}
	return out
}

func sample() []models.Movie {
	return []models.Movie{
		{"Title": "The Matrix", "Year": "1999"},
		{"Title": "Inception", "Year": "2010"},
		{"Title": "the matrix reloaded", "Year": "2003"},
		{"Year": "1980"},
		{"Title": "Avatar", "Year": "N/A"},
		{"Title": "Game of Thrones", "Year": "2011–2019"},
		{"Title": "Zodiac"},
	}
}

func TestApply_FilterCaseInsensitive(t *testing.T) {
	got := Apply(sample(), Query{Text: "MATRIX"})
	assert.Equal(t, []string{"The Matrix", "the matrix reloaded"}, titles(got))

	for _, m := range got {
		assert.True(t, strings.Contains(strings.ToLower(m.Title()), "matrix"))
	}
}

func TestApply_NoQueryKeepsEverything(t *testing.T) {
	in := sample()
	got := Apply(in, Query{})
	assert.Equal(t, titles(in), titles(got))
}

func TestApply_NoMatchIsEmptyNotNil(t *testing.T) {
	got := Apply(sample(), Query{Text: "nothing like this"})
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.NotNil(t, Apply(nil, Query{}))
}

func TestApply_SortTitle(t *testing.T) {
	got := Apply(sample(), Query{SortBy: SortTitle, SortOrder: Ascending})
	assert.Equal(t,
		[]string{"", "Avatar", "Game of Thrones", "Inception", "The Matrix", "the matrix reloaded", "Zodiac"},
		titles(got))

	got = Apply(sample(), Query{SortBy: SortTitle, SortOrder: Descending})
	assert.Equal(t,
		[]string{"Zodiac", "the matrix reloaded", "The Matrix", "Inception", "Game of Thrones", "Avatar", ""},
		titles(got))
}

func TestApply_SortYearMissingFirst(t *testing.T) {
	got := Apply(sample(), Query{SortBy: SortYear})
	// Avatar (N/A) and Zodiac (missing) both count as 0 and keep input order
	assert.Equal(t,
		[]string{"Avatar", "Zodiac", "", "The Matrix", "the matrix reloaded", "Inception", "Game of Thrones"},
		titles(got))
}

func TestApply_StableUnderBothOrders(t *testing.T) {
	in := []models.Movie{
		{"Title": "A", "Year": "2000"},
		{"Title": "B", "Year": "1990"},
		{"Title": "C", "Year": "2000"},
		{"Title": "D", "Year": "2000"},
	}

	asc := Apply(in, Query{SortBy: SortYear, SortOrder: Ascending})
	assert.Equal(t, []string{"B", "A", "C", "D"}, titles(asc))

	desc := Apply(in, Query{SortBy: SortYear, SortOrder: Descending})
	assert.Equal(t, []string{"A", "C", "D", "B"}, titles(desc))
}

func TestApply_UnknownSortKeepsOrder(t *testing.T) {
	in := sample()
	got := Apply(in, Query{SortBy: "rating", SortOrder: Descending})
	assert.Equal(t, titles(in), titles(got))
}

func TestApply_SortFieldIsCaseSensitive(t *testing.T) {
	in := []models.Movie{
		{"Title": "Zed", "Year": "2020"},
		{"Title": "Alpha", "Year": "1990"},
	}
	for _, field := range []SortField{"TITLE", "Title", "Year", "YEAR", " title", "year "} {
		got := Apply(in, Query{SortBy: field, SortOrder: Ascending})
		assert.Equal(t, []string{"Zed", "Alpha"}, titles(got), string(field))
	}
}

func TestApply_DoesNotReorderInput(t *testing.T) {
	in := sample()
	before := titles(in)
	_ = Apply(in, Query{SortBy: SortTitle, SortOrder: Descending})
	assert.Equal(t, before, titles(in))
}

func TestApply_Deterministic(t *testing.T) {
	q := Query{Text: "a", SortBy: SortYear, SortOrder: Descending}
	first := Apply(sample(), q)
	second := Apply(sample(), q)
	assert.Equal(t, first, second)
}

func TestApply_FilterThenSort(t *testing.T) {
	got := Apply(sample(), Query{Text: "matrix", SortBy: SortYear, SortOrder: Descending})
	assert.Equal(t, []string{"the matrix reloaded", "The Matrix"}, titles(got))
}

func TestYearValue(t *testing.T) {
	tests := map[string]int{
		"1999":      1999,
		" 2010 ":    2010,
		"2011–2019": 2011,
		"N/A":       0,
		"":          0,
		"abc1999":   0,
	}
	for in, want := range tests {
		assert.Equal(t, want, YearValue(models.Movie{"Year": in}), in)
	}
	assert.Equal(t, 0, YearValue(models.Movie{}))
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, Descending, ParseSortOrder("desc"))
	assert.Equal(t, Descending, ParseSortOrder("DESC"))
	assert.Equal(t, Ascending, ParseSortOrder("asc"))
	assert.Equal(t, Ascending, ParseSortOrder(""))
	assert.Equal(t, Ascending, ParseSortOrder("descending"))
	assert.Equal(t, Ascending, ParseSortOrder("sideways"))
}
