package router

import (
	"testing"
)

func TestTable_ClassifyOrder(t *testing.T) {
	table, err := NewTable([]Rule{
		{Prefix: "/api", Kind: KindAPI},
		{Prefix: "/auth", Kind: KindAPI},
		{Prefix: "/assets", Kind: KindStatic},
		{Prefix: "/", Kind: KindFallback},
	})
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}

	cases := []struct {
		path string
		want Kind
	}{
		{"/api", KindAPI},
		{"/api/widgets", KindAPI},
		{"/api/widgets/42", KindAPI},
		{"/auth/login", KindAPI},
		{"/apiary", KindFallback}, // prefix match honors segment boundaries
		{"/assets/app.js", KindStatic},
		{"/assets", KindStatic},
		{"/", KindFallback},
		{"/about", KindFallback},
		{"/deep/client/route", KindFallback},
		{"no-leading-slash", KindFallback},
	}

	for _, tc := range cases {
		got := table.Classify(tc.path)
		if got.Kind != tc.want {
			t.Errorf("Classify(%q).Kind = %q, want %q", tc.path, got.Kind, tc.want)
		}
	}
}

func TestTable_ClassifyReportsMatchedRule(t *testing.T) {
	table := DefaultTable([]string{"/api"})

	c := table.Classify("/api/widgets")
	if c.Rule.Prefix != "/api" {
		t.Errorf("Classify(/api/widgets).Rule.Prefix = %q, want %q", c.Rule.Prefix, "/api")
	}

	c = table.Classify("/about")
	if c.Rule.Prefix != "/" || c.Kind != KindFallback {
		t.Errorf("Classify(/about) = %+v, want root fallback rule", c)
	}
}

func TestNewTable_Validation(t *testing.T) {
	cases := []struct {
		name  string
		rules []Rule
	}{
		{"empty", nil},
		{"no fallback", []Rule{{Prefix: "/api", Kind: KindAPI}}},
		{"two fallbacks", []Rule{
			{Prefix: "/a", Kind: KindFallback},
			{Prefix: "/", Kind: KindFallback},
		}},
		{"fallback not last", []Rule{
			{Prefix: "/", Kind: KindFallback},
			{Prefix: "/api", Kind: KindAPI},
		}},
		{"api after static", []Rule{
			{Prefix: "/assets", Kind: KindStatic},
			{Prefix: "/api", Kind: KindAPI},
			{Prefix: "/", Kind: KindFallback},
		}},
		{"prefix without slash", []Rule{
			{Prefix: "api", Kind: KindAPI},
			{Prefix: "/", Kind: KindFallback},
		}},
		{"unknown kind", []Rule{
			{Prefix: "/x", Kind: Kind("bogus")},
			{Prefix: "/", Kind: KindFallback},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTable(tc.rules); err == nil {
				t.Errorf("NewTable(%v) succeeded, want error", tc.rules)
			}
		})
	}
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable([]string{"/api", "/webhooks"})

	rules := table.Rules()
	if len(rules) != 3 {
		t.Fatalf("len(Rules()) = %d, want 3", len(rules))
	}
	if rules[0].Kind != KindAPI || rules[1].Kind != KindAPI {
		t.Errorf("api rules not first: %+v", rules)
	}
	if last := rules[len(rules)-1]; last.Kind != KindFallback || last.Prefix != "/" {
		t.Errorf("last rule = %+v, want root fallback", last)
	}
}

func TestDefaultTable_NoAPIPrefixes(t *testing.T) {
	table := DefaultTable(nil)

	if got := table.Classify("/api/widgets"); got.Kind != KindFallback {
		t.Errorf("Classify(/api/widgets) without api rules = %q, want fallback", got.Kind)
	}
}

func TestTable_RulesReturnsCopy(t *testing.T) {
	table := DefaultTable([]string{"/api"})

	rules := table.Rules()
	rules[0] = Rule{Prefix: "/hijacked", Kind: KindFallback}

	if got := table.Classify("/api/widgets"); got.Kind != KindAPI {
		t.Error("mutating Rules() result changed the table")
	}
}
