package report

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/ppiankov/logsheet/internal/pipeline"
	"github.com/ppiankov/logsheet/internal/summary"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonEnvelope struct {
	Schema string `json:"$schema"`
	Data
}

// Generate writes the run summary as indented JSON.
func (r *JSONReporter) Generate(data Data) error {
	if data.Units == nil {
		data.Units = []summary.UnitSummary{}
	}
	if data.Workbooks == nil {
		data.Workbooks = []pipeline.WorkbookInfo{}
	}

	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonEnvelope{Schema: "logsheet/v1", Data: data})
}
