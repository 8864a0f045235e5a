package gazetteer

import "testing"

func TestDefaultLoadsEmbeddedCities(t *testing.T) {
	g := Default()
	if len(g.Cities()) == 0 {
		t.Fatal("expected embedded cities")
	}
	if city, ok := g.Lookup("МИНСК"); !ok || city != "Минск" {
		t.Fatalf("Lookup(МИНСК) = %q, %v", city, ok)
	}
}

func TestResolve(t *testing.T) {
	g := Default()
	cases := []struct {
		name  string
		input string
		city  string
		tier  Tier
	}{
		{"canonical", "Минск", "Минск", TierExact},
		{"lower case", "москва", "Москва", TierExact},
		{"case form", "Минска", "Минск", TierExact},
		{"accusative", "москву", "Москва", TierExact},
		{"yo spelling", "Могилёв", "Могилев", TierExact},
		{"embedded in words", "города Минск", "Минск", TierExact},
		{"two word city", "нижний новгород", "Нижний Новгород", TierExact},
		{"comma list", "Брест, Гомель", "Брест", TierExact},
		{"one edit", "Мнск", "Минск", TierFuzzy},
		{"substitution", "Масква", "Москва", TierFuzzy},
		{"unknown", "Лондон", "", TierNone},
		{"empty", "   ", "", TierNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := g.Resolve(tc.input)
			if m.Tier != tc.tier {
				t.Fatalf("Resolve(%q).Tier = %s, want %s (match %+v)", tc.input, m.Tier, tc.tier, m)
			}
			if tc.tier != TierNone && m.City != tc.city {
				t.Fatalf("Resolve(%q).City = %q, want %q", tc.input, m.City, tc.city)
			}
		})
	}
}

func TestResolveFuzzyScoreBounds(t *testing.T) {
	m := Default().Resolve("Мнск")
	if m.Score <= 0 || m.Score >= FuzzyThreshold {
		t.Fatalf("fuzzy score %v outside (0, %v)", m.Score, FuzzyThreshold)
	}
	if m.Input != "Мнск" {
		t.Fatalf("input = %q, want Мнск", m.Input)
	}
}

func TestParseRejectsNamelessCity(t *testing.T) {
	if _, err := Parse([]byte("- forms: [a]\n")); err == nil {
		t.Fatal("expected error for city without name")
	}
}

func TestNewSkipsDuplicateForms(t *testing.T) {
	g := New([]City{
		{Name: "Альфа", Forms: []string{"Общая"}},
		{Name: "Бета", Forms: []string{"общая"}},
	})
	if city, _ := g.Lookup("Общая"); city != "Альфа" {
		t.Fatalf("duplicate form resolved to %q, want first city", city)
	}
}

func TestCandidatePieces(t *testing.T) {
	got := candidatePieces("из города Минск; Брест")
	want := []string{"из города Минск", "из города", "из", "города Минск", "города", "Минск", "Брест"}
	if len(got) != len(want) {
		t.Fatalf("pieces = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pieces[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
