package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishad/ctrake/internal/xmltree"
)

func TestDate(t *testing.T) {
	tests := []struct {
		name string
		node xmltree.Node
		want string // "" means absent
	}{
		{"long form", xmltree.Str("December 2, 2020"), "2020-12-02"},
		{"reserved value alias", xmltree.Map(xmltree.F("value", xmltree.Str("2019-06-01"))), "2019-06-01"},
		{"typed mapping", xmltree.Map(xmltree.F("@type", xmltree.Str("Actual")), xmltree.F("$", xmltree.Str("March 15, 2019"))), "2019-03-15"},
		{"month precision", xmltree.Str("March 2021"), "2021-03-01"},
		{"abbreviated month", xmltree.Str("Feb 2019"), "2019-02-01"},
		{"extra whitespace", xmltree.Str("  June   1,  2019 "), "2019-06-01"},
		{"us slashes", xmltree.Str("07/04/2018"), "2018-07-04"},
		{"free form", xmltree.Str("2017-08-09T10:11:12Z"), "2017-08-09"},
		{"empty", xmltree.Str(""), ""},
		{"garbage", xmltree.Str("garbage"), ""},
		{"bare number", xmltree.Str("1332151919"), ""},
		{"month fragment", xmltree.Str("3/"), ""},
		{"clock fragment", xmltree.Str("12:"), ""},
		{"hour only", xmltree.Str("4:"), ""},
		{"dotted digits", xmltree.Str("1.2.3"), ""},
		{"month and day without year", xmltree.Str("Jan 2"), ""},
		{"year with dangling separator", xmltree.Str("2020-"), ""},
		{"free form timestamp", xmltree.Str("2014-04-26 17:24:37"), "2014-04-26"},
		{"absent", xmltree.None, ""},
		{"mapping without value", xmltree.Map(xmltree.F("@type", xmltree.Str("Actual"))), ""},
		{"list", xmltree.List(xmltree.Str("December 2, 2020")), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Date(tt.node)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestTextBlock(t *testing.T) {
	assert.Equal(t, "one two three", TextBlock(xmltree.Map(xmltree.F("textblock", xmltree.Str("\n  one\ttwo\n\n three  ")))))
	assert.Equal(t, "bare text", TextBlock(xmltree.Str(" bare   text ")))
	assert.Equal(t, "", TextBlock(xmltree.None))
	assert.Equal(t, "", TextBlock(xmltree.Map(xmltree.F("other", xmltree.Str("x")))))
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"Asthma"}, StringList(xmltree.Str("Asthma")))
	assert.Equal(t, []string{"Asthma", "COPD"}, StringList(xmltree.List(xmltree.Str("Asthma"), xmltree.Str("COPD"))))

	empty := StringList(xmltree.None)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	withAttrs := xmltree.List(xmltree.Map(xmltree.F("@lang", xmltree.Str("en")), xmltree.F("$", xmltree.Str("Flu"))))
	assert.Equal(t, []string{"Flu"}, StringList(withAttrs))
}

func TestStringListRoundTrip(t *testing.T) {
	single := StringList(xmltree.Str("only"))
	assert.Equal(t, []string{"only"}, single)

	seq := []string{"b", "a", "c"}
	nodes := make([]xmltree.Node, len(seq))
	for i, s := range seq {
		nodes[i] = xmltree.Str(s)
	}
	assert.Equal(t, seq, StringList(xmltree.List(nodes...)))
}

func TestToEnrollment(t *testing.T) {
	assert.Equal(t, &Enrollment{Type: "", Value: 500}, ToEnrollment(xmltree.Int(500)))
	assert.Equal(t, &Enrollment{Type: "Actual", Value: 120},
		ToEnrollment(xmltree.Map(xmltree.F("@type", xmltree.Str("Actual")), xmltree.F("$", xmltree.Int(120)))))
	assert.Equal(t, &Enrollment{Type: "", Value: 42}, ToEnrollment(xmltree.Str("42")))

	assert.Nil(t, ToEnrollment(xmltree.None))
	assert.Nil(t, ToEnrollment(xmltree.Str("many")))
	assert.Nil(t, ToEnrollment(xmltree.Map(xmltree.F("@type", xmltree.Str("Actual")))))
}

func TestSponsors(t *testing.T) {
	sponsors := xmltree.Map(
		xmltree.F("lead_sponsor", xmltree.Map(xmltree.F("agency", xmltree.Str("NIH")))),
		xmltree.F("collaborator", xmltree.List(xmltree.Map(xmltree.F("agency", xmltree.Str("FDA"))))),
	)
	assert.Equal(t, []string{"NIH", "FDA"}, Sponsors(sponsors))

	singleCollaborator := xmltree.Map(
		xmltree.F("lead_sponsor", xmltree.Map(xmltree.F("agency", xmltree.Str("NIH")))),
		xmltree.F("collaborator", xmltree.Map(xmltree.F("agency", xmltree.Str("CDC")))),
	)
	assert.Equal(t, []string{"NIH", "CDC"}, Sponsors(singleCollaborator))

	none := Sponsors(xmltree.None)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestOptionalIntAndStr(t *testing.T) {
	v := OptionalInt(xmltree.Int(2))
	require.NotNil(t, v)
	assert.Equal(t, int64(2), *v)
	assert.Nil(t, OptionalInt(xmltree.None))
	assert.Nil(t, OptionalInt(xmltree.Str("two")))

	assert.Equal(t, "x", Str(xmltree.Str(" x ")))
	assert.Equal(t, "", Str(xmltree.List(xmltree.Str("x"))))
}

func TestBrowseTerms(t *testing.T) {
	browse := xmltree.Map(xmltree.F("mesh_term", xmltree.List(xmltree.Str("Asthma"), xmltree.Str("Lung Diseases"))))
	assert.Equal(t, []string{"Asthma", "Lung Diseases"}, BrowseTerms(browse))
	assert.Equal(t, []string{}, BrowseTerms(xmltree.None))
}
