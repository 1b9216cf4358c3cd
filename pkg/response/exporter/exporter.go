package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aaarash/nemo/pkg/response"
	respTypes "github.com/aaarash/nemo/pkg/response/types"
)

type ResponseExporter struct {
	parser    *ResponseParser
	writer    io.Writer
	csvWriter *csv.Writer
	format    string
	counter   int
}

func NewResponseExporter(
	parser *ResponseParser,
	writer io.Writer,
	format string,
) (*ResponseExporter, error) {
	re := &ResponseExporter{
		parser: parser,
		writer: writer,
		format: format,
	}

	if err := re.init(); err != nil {
		return nil, err
	}

	re.counter = 0

	return re, nil
}

func (re *ResponseExporter) init() error {
	var err error
	switch re.format {
	case "wide":
		re.csvWriter = csv.NewWriter(re.writer)
		record := []string{}
		record = append(record, re.parser.columns.FixedColumns...)
		record = append(record, re.parser.columns.ResponseColumns...)
		err = re.csvWriter.Write(record)
		if err != nil {
			return err
		}
	case "long":
		re.csvWriter = csv.NewWriter(re.writer)
		record := []string{}
		record = append(record, re.parser.columns.FixedColumns...)
		record = append(record, "question")
		record = append(record, "instNum")
		record = append(record, "value")
		err = re.csvWriter.Write(record)
		if err != nil {
			return err
		}
	case "json":
		_, err = re.writer.Write([]byte("{ \"responses\": ["))
	default:
		return fmt.Errorf("unsupported format: %s", re.format)
	}
	return err
}

// WriteResponse appends one response to the export. The answer nodes must
// come from the same form tree the parser was built with.
func (re *ResponseExporter) WriteResponse(
	resp respTypes.Response,
	nodes []*response.AnswerNode,
) error {
	if re.parser == nil {
		return fmt.Errorf("parser not initialized")
	}
	if re.writer == nil {
		return fmt.Errorf("writer not initialized")
	}

	parsedResp := re.parser.ParseResponse(resp, nodes)

	switch re.format {
	case "wide":
		cells := re.parser.ResponseToStrList(parsedResp)
		if err := re.csvWriter.Write(cells); err != nil {
			return err
		}
	case "long":
		records := re.parser.ResponseToLongFormat(parsedResp)
		for _, record := range records {
			if err := re.csvWriter.Write(record); err != nil {
				return err
			}
		}
	case "json":
		flatObj := re.parser.ResponseToFlatObj(parsedResp)
		rV, err := json.Marshal(flatObj)
		if err != nil {
			return err
		}
		if re.counter > 0 {
			if _, err := re.writer.Write([]byte(",")); err != nil {
				return err
			}
		}
		if _, err := re.writer.Write(rV); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format: %s", re.format)
	}

	re.counter += 1

	return nil
}

func (re *ResponseExporter) Finish() error {
	switch re.format {
	case "wide", "long":
		re.csvWriter.Flush()
		return re.csvWriter.Error()
	case "json":
		_, err := re.writer.Write([]byte("]}"))
		return err
	default:
		return fmt.Errorf("unsupported format: %s", re.format)
	}
}
