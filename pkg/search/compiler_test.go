package search

import (
	"errors"
	"strings"
	"testing"
	"time"

	formTypes "github.com/aaarash/nemo/pkg/form/types"
)

type fakeScope struct {
	forms      map[string][]string
	qualifiers map[string]AnswerQualifier
}

func (s fakeScope) FormIDsByName(name string) ([]string, error) {
	return s.forms[strings.ToLower(name)], nil
}

func (s fakeScope) AnswerQualifierForCode(code string) (AnswerQualifier, bool, error) {
	q, ok := s.qualifiers[strings.ToLower(code)]
	return q, ok, nil
}

func testScope() fakeScope {
	petSet := &formTypes.OptionSet{
		ID:   "os-pets",
		Name: "Pets",
		Root: formTypes.OptionNode{
			ID: "pn-root",
			Children: []formTypes.OptionNode{
				{ID: "pn-cat", Rank: 1, Option: &formTypes.Option{
					ID: "o-cat", Canonical: "Cat",
					NameTranslations: formTypes.Translations{"fr": "Chat"},
				}},
				{ID: "pn-dog", Rank: 2, Option: &formTypes.Option{
					ID: "o-dog", Canonical: "Dog",
					NameTranslations: formTypes.Translations{"fr": "Chien"},
				}},
			},
		},
	}
	return fakeScope{
		forms: map[string][]string{
			"pets":      {"f1"},
			"livestock": {"f2", "f3"},
		},
		qualifiers: map[string]AnswerQualifier{
			"pet": {QingIDs: []string{"q1", "q9"}, QType: formTypes.QTYPE_SELECT_ONE, OptionSet: petSet},
			"age": {QingIDs: []string{"q2"}, QType: formTypes.QTYPE_INTEGER},
		},
	}
}

func compile(t *testing.T, query string, sctx SearchContext) *ResponseFilter {
	t.Helper()
	filter, err := Compile(query, "testMission", testScope(), sctx)
	if err != nil {
		t.Fatalf("unexpected error compiling %q: %v", query, err)
	}
	return filter
}

func TestCompileBasicQualifiers(t *testing.T) {
	sctx := SearchContext{}

	t.Run("empty query", func(t *testing.T) {
		filter := compile(t, "", sctx)
		if filter.MissionID != "testMission" || filter.AdvancedText != "" || len(filter.FormIDs) != 0 {
			t.Errorf("unexpected filter: %+v", filter)
		}
	})

	t.Run("free text only", func(t *testing.T) {
		filter := compile(t, "water quality", sctx)
		if filter.AdvancedText != "water quality" {
			t.Errorf("unexpected advanced text: %q", filter.AdvancedText)
		}
	})

	t.Run("quoted free text is one term", func(t *testing.T) {
		filter := compile(t, `"well water" sample`, sctx)
		if filter.AdvancedText != "well water sample" {
			t.Errorf("unexpected advanced text: %q", filter.AdvancedText)
		}
	})

	t.Run("form qualifier resolves to form ids", func(t *testing.T) {
		filter := compile(t, "form:Pets", sctx)
		if len(filter.FormIDs) != 1 || filter.FormIDs[0] != "f1" {
			t.Errorf("unexpected form ids: %v", filter.FormIDs)
		}
		if filter.AdvancedText != "" {
			t.Errorf("unexpected advanced text: %q", filter.AdvancedText)
		}
	})

	t.Run("form value list combines with or", func(t *testing.T) {
		filter := compile(t, "form:(Pets|Livestock)", sctx)
		if len(filter.FormIDs) != 3 {
			t.Errorf("unexpected form ids: %v", filter.FormIDs)
		}
	})

	t.Run("unresolved form name degrades to free text", func(t *testing.T) {
		filter := compile(t, "form:(Pets Unknown)", sctx)
		if len(filter.FormIDs) != 0 {
			t.Errorf("unexpected form ids: %v", filter.FormIDs)
		}
		if filter.AdvancedText != "form:(Pets Unknown)" {
			t.Errorf("unexpected advanced text: %q", filter.AdvancedText)
		}
	})

	t.Run("reviewed qualifier", func(t *testing.T) {
		filter := compile(t, "reviewed:1", sctx)
		if filter.Reviewed == nil || !*filter.Reviewed {
			t.Errorf("unexpected reviewed: %v", filter.Reviewed)
		}
		filter = compile(t, "reviewed:no", sctx)
		if filter.Reviewed == nil || *filter.Reviewed {
			t.Errorf("unexpected reviewed: %v", filter.Reviewed)
		}
	})

	t.Run("unparsable reviewed value degrades to free text", func(t *testing.T) {
		filter := compile(t, "reviewed:maybe", sctx)
		if filter.Reviewed != nil {
			t.Errorf("unexpected reviewed: %v", filter.Reviewed)
		}
		if filter.AdvancedText != "reviewed:(maybe)" {
			t.Errorf("unexpected advanced text: %q", filter.AdvancedText)
		}
	})

	t.Run("submitter and group qualifiers", func(t *testing.T) {
		filter := compile(t, `submitter:"Jo Doe" group:North`, sctx)
		if filter.SubmitterName != "Jo Doe" {
			t.Errorf("unexpected submitter: %q", filter.SubmitterName)
		}
		if filter.GroupName != "North" {
			t.Errorf("unexpected group: %q", filter.GroupName)
		}
	})

	t.Run("unknown qualifier degrades to free text", func(t *testing.T) {
		filter := compile(t, "stuff:thing pond", sctx)
		if filter.AdvancedText != "pond stuff:(thing)" {
			t.Errorf("unexpected advanced text: %q", filter.AdvancedText)
		}
	})

	t.Run("text qualifier terms fold into free text", func(t *testing.T) {
		filter := compile(t, "text:(pond lake)", sctx)
		if filter.AdvancedText != "pond lake" {
			t.Errorf("unexpected advanced text: %q", filter.AdvancedText)
		}
	})
}

func TestCompileSubmitDate(t *testing.T) {
	utc := SearchContext{}

	t.Run("colon spans one day", func(t *testing.T) {
		filter := compile(t, "submit-date:2026-05-10", utc)
		if filter.StartTime == nil || filter.EndTime == nil {
			t.Fatal("expected both time bounds")
		}
		if !filter.StartTime.Equal(time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected start time: %v", filter.StartTime)
		}
		if !filter.EndTime.Equal(time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected end time: %v", filter.EndTime)
		}
	})

	t.Run("less than bounds the end only", func(t *testing.T) {
		filter := compile(t, "submit-date<2026-05-10", utc)
		if filter.StartTime != nil {
			t.Errorf("unexpected start time: %v", filter.StartTime)
		}
		if filter.EndTime == nil || !filter.EndTime.Equal(time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected end time: %v", filter.EndTime)
		}
	})

	t.Run("greater than starts after the day ends", func(t *testing.T) {
		filter := compile(t, "submit-date>2026-05-10", utc)
		if filter.EndTime != nil {
			t.Errorf("unexpected end time: %v", filter.EndTime)
		}
		if filter.StartTime == nil || !filter.StartTime.Equal(time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected start time: %v", filter.StartTime)
		}
	})

	t.Run("day bounds follow the request timezone", func(t *testing.T) {
		tz := time.FixedZone("UTC+3", 3*60*60)
		filter := compile(t, "submit-date:2026-05-10", SearchContext{Timezone: tz})
		want := time.Date(2026, 5, 9, 21, 0, 0, 0, time.UTC)
		if filter.StartTime == nil || !filter.StartTime.Equal(want) {
			t.Errorf("unexpected start time: %v", filter.StartTime)
		}
	})

	t.Run("invalid date aborts", func(t *testing.T) {
		_, err := Compile("submit-date:yesterday", "testMission", testScope(), utc)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected parse error, got %v", err)
		}
		if parseErr.Token != "yesterday" {
			t.Errorf("unexpected token: %q", parseErr.Token)
		}
	})
}

func TestCompileAnswerClauses(t *testing.T) {
	sctx := SearchContext{}

	t.Run("code qualifier resolves questionings and options", func(t *testing.T) {
		filter := compile(t, "{Pet}:chat", sctx)
		if len(filter.AnswerClauses) != 1 {
			t.Fatalf("unexpected clause count: %d", len(filter.AnswerClauses))
		}
		clause := filter.AnswerClauses[0]
		if clause.QuestionCode != "Pet" {
			t.Errorf("unexpected question code: %q", clause.QuestionCode)
		}
		if len(clause.QingIDs) != 2 {
			t.Errorf("unexpected qing ids: %v", clause.QingIDs)
		}
		// "chat" matches Cat's French translation regardless of case.
		if len(clause.OptionNodeIDs) != 1 || clause.OptionNodeIDs[0] != "pn-cat" {
			t.Errorf("unexpected option nodes: %v", clause.OptionNodeIDs)
		}
		if len(clause.Terms) != 1 || clause.Terms[0] != "chat" {
			t.Errorf("unexpected terms: %v", clause.Terms)
		}
	})

	t.Run("terms lowercased for value matching", func(t *testing.T) {
		filter := compile(t, "{Age}:TWELVE", sctx)
		if len(filter.AnswerClauses) != 1 || filter.AnswerClauses[0].Terms[0] != "twelve" {
			t.Errorf("unexpected clauses: %+v", filter.AnswerClauses)
		}
	})

	t.Run("value list matches multiple options", func(t *testing.T) {
		filter := compile(t, "{Pet}:(cat|dog)", sctx)
		if len(filter.AnswerClauses) != 1 {
			t.Fatalf("unexpected clause count: %d", len(filter.AnswerClauses))
		}
		if len(filter.AnswerClauses[0].OptionNodeIDs) != 2 {
			t.Errorf("unexpected option nodes: %v", filter.AnswerClauses[0].OptionNodeIDs)
		}
	})

	t.Run("unknown code aborts with named token", func(t *testing.T) {
		_, err := Compile("{foo}:bar", "testMission", testScope(), sctx)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected parse error, got %v", err)
		}
		if parseErr.Error() != "'{foo}' is not a valid search qualifier." {
			t.Errorf("unexpected message: %q", parseErr.Error())
		}
	})

	t.Run("bare code without colon is free text", func(t *testing.T) {
		filter := compile(t, "{Pet} sighting", sctx)
		if len(filter.AnswerClauses) != 0 {
			t.Errorf("unexpected clauses: %+v", filter.AnswerClauses)
		}
		if filter.AdvancedText != "{Pet} sighting" {
			t.Errorf("unexpected advanced text: %q", filter.AdvancedText)
		}
	})

	t.Run("qualifier without value aborts", func(t *testing.T) {
		_, err := Compile("{Pet}:", "testMission", testScope(), sctx)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected parse error, got %v", err)
		}
	})
}

func TestTokenize(t *testing.T) {
	t.Run("dates and codes scan as single tokens", func(t *testing.T) {
		tokens, err := tokenize("submit-date:2026-05-10 {Pet}")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tokens) != 4 {
			t.Fatalf("unexpected token count: %d (%+v)", len(tokens), tokens)
		}
		if tokens[0].text != "submit-date" || tokens[0].kind != tokWord {
			t.Errorf("unexpected token: %+v", tokens[0])
		}
		if tokens[2].text != "2026-05-10" {
			t.Errorf("unexpected token: %+v", tokens[2])
		}
		if tokens[3].kind != tokCode || tokens[3].text != "Pet" {
			t.Errorf("unexpected token: %+v", tokens[3])
		}
	})

	t.Run("unterminated quote fails", func(t *testing.T) {
		if _, err := tokenize(`"open ended`); err == nil {
			t.Error("expected error for unterminated quote")
		}
	})

	t.Run("unterminated code fails", func(t *testing.T) {
		if _, err := tokenize("{Pet"); err == nil {
			t.Error("expected error for unterminated code qualifier")
		}
	})
}
