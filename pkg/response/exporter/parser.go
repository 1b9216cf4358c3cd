package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aaarash/nemo/pkg/form"
	formTypes "github.com/aaarash/nemo/pkg/form/types"
	"github.com/aaarash/nemo/pkg/response"
	respTypes "github.com/aaarash/nemo/pkg/response/types"
)

var fixedColNames = []string{
	"responseID",
	"formName",
	"submitterName",
	"source",
	"submittedAt",
	"reviewed",
}

// ColumnNames groups the header cells per section.
type ColumnNames struct {
	FixedColumns    []string
	ResponseColumns []string
}

// ResponseParser derives the export columns from a form tree and flattens
// built answer trees into rows. One column per questioning, in form order;
// multilevel selects get one column per option level.
type ResponseParser struct {
	tree              *form.Tree
	formName          string
	preferredLocales  []string
	questionOptionSep string
	columns           ColumnNames
	columnKeys        []columnKey
}

type columnKey struct {
	qingID string
	level  int // 1-based for multilevel columns, 0 otherwise
}

func NewResponseParser(
	tree *form.Tree,
	formName string,
	preferredLocales []string,
	questionOptionSep string,
) *ResponseParser {
	rp := &ResponseParser{
		tree:              tree,
		formName:          formName,
		preferredLocales:  preferredLocales,
		questionOptionSep: questionOptionSep,
	}
	rp.initColumnNames()
	return rp
}

func (rp *ResponseParser) initColumnNames() {
	respCols := []string{}
	keys := []columnKey{}

	for _, item := range rp.tree.Preorder() {
		if !item.IsQuestioning() {
			continue
		}
		name := item.Code()
		if name == "" {
			name = rp.tree.FullDottedRank(item.ID)
		}

		optionSet := rp.tree.OptionSetFor(item)
		if item.QType() == formTypes.QTYPE_SELECT_ONE && optionSet != nil && optionSet.Multilevel() {
			for level := 1; level <= optionSet.LevelCount(); level++ {
				levelName := optionSet.LevelName(level, rp.preferredLocales)
				if levelName == "" {
					levelName = strconv.Itoa(level)
				}
				respCols = append(respCols, name+rp.questionOptionSep+levelName)
				keys = append(keys, columnKey{qingID: item.ID, level: level})
			}
			continue
		}

		respCols = append(respCols, name)
		keys = append(keys, columnKey{qingID: item.ID, level: 0})
	}

	rp.columns = ColumnNames{
		FixedColumns:    fixedColNames,
		ResponseColumns: respCols,
	}
	rp.columnKeys = keys
}

// ParsedResponse holds one response flattened to cell values. Repeat group
// instances are joined in wide format and expanded in long format.
type ParsedResponse struct {
	ID            string
	FormName      string
	SubmitterName string
	Source        string
	SubmittedAt   int64
	Reviewed      bool

	// values per column key; repeat instances keep their own entry
	Values map[columnKey][]string
}

func (rp *ResponseParser) ParseResponse(resp respTypes.Response, nodes []*response.AnswerNode) ParsedResponse {
	parsed := ParsedResponse{
		ID:            resp.ID,
		FormName:      rp.formName,
		SubmitterName: resp.SubmitterName,
		Source:        resp.Source,
		SubmittedAt:   resp.SubmittedAt,
		Reviewed:      resp.Reviewed,
		Values:        map[columnKey][]string{},
	}
	rp.collectValues(nodes, parsed.Values)
	return parsed
}

func (rp *ResponseParser) collectValues(nodes []*response.AnswerNode, values map[columnKey][]string) {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if node.Set != nil {
			rp.collectSetValues(node, values)
		}
		rp.collectValues(node.Children, values)
		for _, inst := range node.Instances {
			rp.collectValues(inst.Nodes, values)
		}
	}
}

func (rp *ResponseParser) collectSetValues(node *response.AnswerNode, values map[columnKey][]string) {
	qingID := node.Item.ID
	optionSet := rp.tree.OptionSetFor(node.Item)
	multilevel := node.Item.QType() == formTypes.QTYPE_SELECT_ONE && optionSet != nil && optionSet.Multilevel()

	if multilevel {
		for i, answer := range node.Set.Answers {
			key := columnKey{qingID: qingID, level: i + 1}
			values[key] = append(values[key], castedCell(answer.CastedValue()))
		}
		return
	}

	key := columnKey{qingID: qingID, level: 0}
	for _, answer := range node.Set.Answers {
		values[key] = append(values[key], castedCell(answer.CastedValue()))
	}
}

func castedCell(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case time.Time:
		return value.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// ResponseToStrList renders the wide-format row: one cell per column,
// repeat instances joined with "|".
func (rp *ResponseParser) ResponseToStrList(parsed ParsedResponse) []string {
	cells := rp.fixedCells(parsed)
	for _, key := range rp.columnKeys {
		cells = append(cells, strings.Join(parsed.Values[key], "|"))
	}
	return cells
}

// ResponseToLongFormat renders one record per answered column instance,
// with the column name and value as the trailing cells.
func (rp *ResponseParser) ResponseToLongFormat(parsed ParsedResponse) [][]string {
	records := [][]string{}
	for i, key := range rp.columnKeys {
		for instNum, value := range parsed.Values[key] {
			if value == "" {
				continue
			}
			record := rp.fixedCells(parsed)
			record = append(record,
				rp.columns.ResponseColumns[i],
				strconv.Itoa(instNum+1),
				value,
			)
			records = append(records, record)
		}
	}
	return records
}

// ResponseToFlatObj renders the response as a flat map for JSON export.
func (rp *ResponseParser) ResponseToFlatObj(parsed ParsedResponse) map[string]interface{} {
	obj := map[string]interface{}{
		"responseID":    parsed.ID,
		"formName":      parsed.FormName,
		"submitterName": parsed.SubmitterName,
		"source":        parsed.Source,
		"submittedAt":   parsed.SubmittedAt,
		"reviewed":      parsed.Reviewed,
	}
	for i, key := range rp.columnKeys {
		obj[rp.columns.ResponseColumns[i]] = strings.Join(parsed.Values[key], "|")
	}
	return obj
}

func (rp *ResponseParser) fixedCells(parsed ParsedResponse) []string {
	return []string{
		parsed.ID,
		parsed.FormName,
		parsed.SubmitterName,
		parsed.Source,
		time.Unix(parsed.SubmittedAt, 0).UTC().Format(time.RFC3339),
		strconv.FormatBool(parsed.Reviewed),
	}
}
