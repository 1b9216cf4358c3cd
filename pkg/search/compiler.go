package search

import (
	"fmt"
	"strings"
	"time"

	formTypes "github.com/aaarash/nemo/pkg/form/types"
)

// Known plain qualifiers. Anything else (except {code} qualifiers) folds
// back into the residual free-text clause.
const (
	qualifierForm       = "form"
	qualifierReviewed   = "reviewed"
	qualifierSubmitter  = "submitter"
	qualifierGroup      = "group"
	qualifierSubmitDate = "submit-date"
	qualifierText       = "text"
)

const dateLayout = "2006-01-02"

// clause is one parsed query element before resolution.
type clause struct {
	isCode    bool
	qualifier string
	op        tokenKind // tokColon, tokLT or tokGT
	terms     []string
}

// residual renders the clause back into free text, the form unresolved
// qualifiers take in the residual clause (e.g. "form:(foo bar)").
func (c clause) residual() string {
	return fmt.Sprintf("%s:(%s)", c.qualifier, strings.Join(c.terms, " "))
}

// Compile parses a query and resolves it against the mission scope into a
// ResponseFilter. Unresolvable {code} qualifiers abort with a ParseError
// naming the offending token; unresolvable plain qualifiers degrade into
// the residual free-text clause instead.
func Compile(query string, missionID string, scope Scope, sctx SearchContext) (*ResponseFilter, error) {
	tokens, err := tokenize(query)
	if err != nil {
		return nil, err
	}

	clauses, freeText, err := parse(tokens)
	if err != nil {
		return nil, err
	}

	filter := &ResponseFilter{MissionID: missionID}
	var residual []string
	residual = append(residual, freeText...)

	for _, c := range clauses {
		if c.isCode {
			answerClause, err := resolveAnswerClause(c, scope)
			if err != nil {
				return nil, err
			}
			filter.AnswerClauses = append(filter.AnswerClauses, answerClause)
			continue
		}

		switch c.qualifier {
		case qualifierForm:
			ids, err := resolveFormIDs(c.terms, scope)
			if err != nil {
				return nil, err
			}
			if len(ids) == 0 {
				residual = append(residual, c.residual())
				continue
			}
			filter.FormIDs = append(filter.FormIDs, ids...)
		case qualifierReviewed:
			reviewed := parseBoolTerm(c.terms)
			if reviewed == nil {
				residual = append(residual, c.residual())
				continue
			}
			filter.Reviewed = reviewed
		case qualifierSubmitter:
			filter.SubmitterName = strings.Join(c.terms, " ")
		case qualifierGroup:
			filter.GroupName = strings.Join(c.terms, " ")
		case qualifierSubmitDate:
			if err := applyDateClause(filter, c, sctx); err != nil {
				return nil, err
			}
		case qualifierText:
			residual = append(residual, c.terms...)
		default:
			residual = append(residual, c.residual())
		}
	}

	filter.AdvancedText = strings.Join(residual, " ")
	return filter, nil
}

// parse groups tokens into qualifier clauses and free-text terms.
func parse(tokens []token) ([]clause, []string, error) {
	var clauses []clause
	var freeText []string

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch tok.kind {
		case tokCode:
			if i+1 < len(tokens) && tokens[i+1].kind == tokColon {
				terms, next, err := parseValue(tokens, i+2)
				if err != nil {
					return nil, nil, err
				}
				clauses = append(clauses, clause{isCode: true, qualifier: tok.text, op: tokColon, terms: terms})
				i = next
				continue
			}
			freeText = append(freeText, "{"+tok.text+"}")
			i++
		case tokWord:
			if i+1 < len(tokens) {
				switch tokens[i+1].kind {
				case tokColon:
					terms, next, err := parseValue(tokens, i+2)
					if err != nil {
						return nil, nil, err
					}
					clauses = append(clauses, clause{qualifier: strings.ToLower(tok.text), op: tokColon, terms: terms})
					i = next
					continue
				case tokLT, tokGT:
					if i+2 < len(tokens) && (tokens[i+2].kind == tokWord || tokens[i+2].kind == tokQuoted) {
						clauses = append(clauses, clause{
							qualifier: strings.ToLower(tok.text),
							op:        tokens[i+1].kind,
							terms:     []string{tokens[i+2].text},
						})
						i += 3
						continue
					}
				}
			}
			freeText = append(freeText, tok.text)
			i++
		case tokQuoted:
			// Quoted free text is a single term; exact-phrase matching is
			// not supported.
			freeText = append(freeText, tok.text)
			i++
		default:
			i++
		}
	}
	return clauses, freeText, nil
}

// parseValue reads one qualifier value starting at idx: a single word or
// quoted string, or a parenthesized OR list of them.
func parseValue(tokens []token, idx int) ([]string, int, error) {
	if idx >= len(tokens) {
		return nil, idx, &ParseError{Token: ":", Msg: "search qualifier without a value"}
	}
	tok := tokens[idx]
	switch tok.kind {
	case tokWord, tokQuoted:
		return []string{tok.text}, idx + 1, nil
	case tokLParen:
		var terms []string
		i := idx + 1
		for i < len(tokens) && tokens[i].kind != tokRParen {
			if tokens[i].kind == tokWord || tokens[i].kind == tokQuoted {
				terms = append(terms, tokens[i].text)
			}
			i++
		}
		if i >= len(tokens) {
			return nil, i, &ParseError{Token: "(", Msg: "unterminated '(' in search query"}
		}
		if len(terms) == 0 {
			return nil, i + 1, &ParseError{Token: "()", Msg: "empty value list in search query"}
		}
		return terms, i + 1, nil
	default:
		return nil, idx, &ParseError{Token: tok.text, Msg: "search qualifier without a value"}
	}
}

func resolveFormIDs(terms []string, scope Scope) ([]string, error) {
	var ids []string
	for _, term := range terms {
		formIDs, err := scope.FormIDsByName(term)
		if err != nil {
			return nil, err
		}
		// All terms must resolve or the whole clause degrades to free text.
		if len(formIDs) == 0 {
			return nil, nil
		}
		ids = append(ids, formIDs...)
	}
	return ids, nil
}

func resolveAnswerClause(c clause, scope Scope) (AnswerClause, error) {
	qualifier, ok, err := scope.AnswerQualifierForCode(c.qualifier)
	if err != nil {
		return AnswerClause{}, err
	}
	if !ok {
		return AnswerClause{}, &ParseError{Token: "{" + c.qualifier + "}"}
	}

	answerClause := AnswerClause{
		QuestionCode: c.qualifier,
		QingIDs:      qualifier.QingIDs,
		Terms:        lowercaseAll(c.terms),
	}
	if qualifier.OptionSet != nil {
		answerClause.OptionNodeIDs = matchingOptionNodes(&qualifier.OptionSet.Root, c.terms)
	}
	return answerClause, nil
}

// matchingOptionNodes collects option nodes whose name in any locale equals
// any search term, case-insensitively.
func matchingOptionNodes(node *formTypes.OptionNode, terms []string) []string {
	var ids []string
	if node.Option != nil {
		for _, term := range terms {
			if strings.EqualFold(node.Option.Canonical, term) || node.Option.NameTranslations.Matches(term) {
				ids = append(ids, node.ID)
				break
			}
		}
	}
	for i := range node.Children {
		ids = append(ids, matchingOptionNodes(&node.Children[i], terms)...)
	}
	return ids
}

func parseBoolTerm(terms []string) *bool {
	if len(terms) != 1 {
		return nil
	}
	var v bool
	switch strings.ToLower(terms[0]) {
	case "1", "yes", "true":
		v = true
	case "0", "no", "false":
		v = false
	default:
		return nil
	}
	return &v
}

// applyDateClause interprets submit-date qualifiers in the request's
// timezone: ':' matches one local day, '<' everything before it, '>'
// everything after it.
func applyDateClause(filter *ResponseFilter, c clause, sctx SearchContext) error {
	if len(c.terms) != 1 {
		return &ParseError{Token: qualifierSubmitDate, Msg: "submit-date expects a single date value"}
	}
	day, err := time.ParseInLocation(dateLayout, c.terms[0], sctx.location())
	if err != nil {
		return &ParseError{Token: c.terms[0], Msg: fmt.Sprintf("'%s' is not a valid date (expected YYYY-MM-DD)", c.terms[0])}
	}
	dayStart := day
	nextDayStart := day.AddDate(0, 0, 1)

	switch c.op {
	case tokColon:
		filter.StartTime = &dayStart
		filter.EndTime = &nextDayStart
	case tokLT:
		filter.EndTime = &dayStart
	case tokGT:
		filter.StartTime = &nextDayStart
	}
	return nil
}

func lowercaseAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
