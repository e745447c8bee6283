package schema

import (
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/testutil"
	"github.com/nishad/ctrake/internal/xmltree"
)

func defaultSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	return s
}

func TestDefaultSchemaCompiles(t *testing.T) {
	s := defaultSchema(t)
	roots := s.Roots()
	if len(roots) != 1 || roots[0] != "clinical_study" {
		t.Errorf("Roots() = %v, want [clinical_study]", roots)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/schema.xsd")
	if !errors.IsKind(err, errors.KindIO) {
		t.Errorf("Load() error = %v, want io kind", err)
	}
}

func TestLoadEmptyPathUsesEmbedded(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if _, err := s.Decode([]byte(testutil.MinimalStudyXML("NCT00000001"))); err != nil {
		t.Errorf("Decode() error = %v", err)
	}
}

func TestDecodeFullDocument(t *testing.T) {
	s := defaultSchema(t)
	node, err := s.Decode([]byte(testutil.StudyXML("NCT00000102")))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got := node.Path("id_info", "nct_id").String(); got != "NCT00000102" {
		t.Errorf("nct_id = %q", got)
	}
	if got := node.Attr("rank").String(); got != "12" {
		t.Errorf("@rank = %q, want 12", got)
	}

	conditions := node.Get("condition")
	if !conditions.IsList() || conditions.Len() != 2 {
		t.Errorf("condition should be a 2-item list, got %v", conditions.Interface())
	}

	enrollment := node.Get("enrollment")
	if got := enrollment.Attr("type").String(); got != "Actual" {
		t.Errorf("enrollment @type = %q", got)
	}
	if v := enrollment.Value(); !v.IsInteger() {
		t.Errorf("enrollment value should decode as integer, got %v", v.Interface())
	}

	start := node.Get("start_date")
	if !start.IsMap() || start.Get(xmltree.ValueKey).String() != "December 2, 2020" {
		t.Errorf("start_date = %v", start.Interface())
	}
	if completion := node.Get("completion_date"); !completion.IsScalar() {
		t.Errorf("completion_date without attributes should be scalar, got %v", completion.Kind())
	}

	if arms, ok := node.Get("number_of_arms").Integer(); !ok || arms != 2 {
		t.Errorf("number_of_arms = %d, %v", arms, ok)
	}

	// Undeclared sections are decoded generically.
	city := node.Path("location").Index(0).Path("facility", "address", "city").String()
	if city != "Bethesda" {
		t.Errorf("location city = %q", city)
	}
}

func TestRepeatableElementIsAlwaysList(t *testing.T) {
	s := defaultSchema(t)
	doc := strings.Replace(testutil.MinimalStudyXML("NCT00000001"),
		"</clinical_study>", "<condition>Asthma</condition>\n</clinical_study>", 1)

	node, err := s.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	conditions := node.Get("condition")
	if !conditions.IsList() || conditions.Len() != 1 {
		t.Fatalf("single condition should decode as 1-item list, got %v", conditions.Interface())
	}
	if got := conditions.Index(0).String(); got != "Asthma" {
		t.Errorf("condition[0] = %q", got)
	}

	if got := node.Get("enrollment"); !got.IsInteger() {
		t.Errorf("bare enrollment should be an integer scalar, got %v", got.Interface())
	}
}

func TestValidationFailures(t *testing.T) {
	s := defaultSchema(t)
	minimal := testutil.MinimalStudyXML("NCT00000001")

	tests := []struct {
		name     string
		doc      string
		wantKind errors.Kind
		wantPath string
	}{
		{
			name:     "malformed",
			doc:      testutil.MalformedXML(),
			wantKind: errors.KindParse,
		},
		{
			name:     "missing required and undeclared element",
			doc:      testutil.InvalidXML(),
			wantKind: errors.KindValidation,
			wantPath: "/clinical_study/source",
		},
		{
			name:     "wrong root",
			doc:      "<trial><id>1</id></trial>",
			wantKind: errors.KindValidation,
			wantPath: "/trial",
		},
		{
			name:     "bad enumeration",
			doc:      strings.Replace(minimal, "<study_type>Observational</study_type>", "<study_type>Imaginary</study_type>", 1),
			wantKind: errors.KindValidation,
			wantPath: "/clinical_study/study_type",
		},
		{
			name:     "bad integer",
			doc:      strings.Replace(minimal, "<enrollment>500</enrollment>", "<enrollment>lots</enrollment>", 1),
			wantKind: errors.KindValidation,
			wantPath: "/clinical_study/enrollment",
		},
		{
			name:     "bad attribute value",
			doc:      strings.Replace(minimal, "<enrollment>500</enrollment>", `<enrollment type="Guessed">500</enrollment>`, 1),
			wantKind: errors.KindValidation,
			wantPath: "/clinical_study/enrollment/@type",
		},
		{
			name:     "too many singletons",
			doc:      strings.Replace(minimal, "<source>Example University</source>", "<source>A</source><source>B</source>", 1),
			wantKind: errors.KindValidation,
			wantPath: "/clinical_study/source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.IsKind(err, tt.wantKind) {
				t.Fatalf("error kind = %v, want %v (%v)", errors.GetKind(err), tt.wantKind, err)
			}
			if tt.wantPath == "" {
				return
			}
			var verr *ValidationError
			if !stderrors.As(err, &verr) {
				t.Fatalf("expected *ValidationError in chain, got %T", err)
			}
			found := false
			for _, v := range verr.Violations {
				if v.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("no violation at %s in %v", tt.wantPath, verr.Violations)
			}
		})
	}
}

func TestCompileCustomSchema(t *testing.T) {
	xsd := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="batch">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="item" type="xs:string" maxOccurs="unbounded"/>
        <xs:element name="count" type="xs:positiveInteger" minOccurs="0"/>
      </xs:sequence>
      <xs:attribute name="id" type="xs:string" use="required"/>
    </xs:complexType>
  </xs:element>
</xs:schema>`

	s, err := Compile(strings.NewReader(xsd))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	node, err := s.Decode([]byte(`<batch id="b1"><item>one</item><count>3</count></batch>`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := xmltree.Map(
		xmltree.F("@id", xmltree.Str("b1")),
		xmltree.F("item", xmltree.List(xmltree.Str("one"))),
		xmltree.F("count", xmltree.Int(3)),
	)
	if !reflect.DeepEqual(node.Interface(), want.Interface()) {
		t.Errorf("Decode() = %#v", node.Interface())
	}

	if err := s.Validate([]byte(`<batch><item>one</item><count>0</count></batch>`)); err == nil {
		t.Error("expected missing attribute and non-positive count to fail")
	}
	if err := s.Validate([]byte(`<batch id="b2"/>`)); err == nil {
		t.Error("expected missing item to fail")
	}
}

func TestCompileRejectsBrokenSchemas(t *testing.T) {
	tests := []struct {
		name string
		xsd  string
	}{
		{"not xml", "not a schema"},
		{"no roots", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"/>`},
		{"unknown type", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a" type="missing_type"/></xs:schema>`},
		{"bad occurs", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a"><xs:complexType><xs:sequence><xs:element name="b" maxOccurs="many"/></xs:sequence></xs:complexType></xs:element></xs:schema>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(strings.NewReader(tt.xsd)); err == nil {
				t.Error("expected compile error")
			}
		})
	}
}
