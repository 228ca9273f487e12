package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
)

// LongRow is one answer in the long export: response x question.
type LongRow struct {
	ResponseID  string
	QuestionID  string
	Value       string
	SubmittedAt string // ISO8601 suggested; string for CSV simplicity
}

// ExportLongCSV renders rows into a long-format CSV.
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"response_id", "question_id", "value", "submitted_at"})
	for _, r := range rows {
		if err := w.Write([]string{r.ResponseID, r.QuestionID, r.Value, r.SubmittedAt}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportWideCSV renders a respondent-per-row CSV with one column per
// question. inputs is a map[responseID]map[questionID]value; columns come
// out sorted for stable output.
func ExportWideCSV(inputs map[string]map[string]string) ([]byte, error) {
	columnSet := map[string]struct{}{}
	for _, m := range inputs {
		for qid := range m {
			columnSet[qid] = struct{}{}
		}
	}
	columns := make([]string, 0, len(columnSet))
	for qid := range columnSet {
		columns = append(columns, qid)
	}
	sort.Strings(columns)

	rids := make([]string, 0, len(inputs))
	for rid := range inputs {
		rids = append(rids, rid)
	}
	sort.Strings(rids)

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(append([]string{"response_id"}, columns...))
	for _, rid := range rids {
		row := make([]string, 0, 1+len(columns))
		row = append(row, rid)
		for _, qid := range columns {
			row = append(row, inputs[rid][qid])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ScoreRow is one respondent's computed totals for the score export.
type ScoreRow struct {
	ResponseID string
	Total      float64
	Max        float64
	Percentage float64
	Band       string
}

// ExportScoresCSV renders per-respondent totals, percentage and band label.
func ExportScoresCSV(rows []ScoreRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"response_id", "total_score", "max_score", "percentage", "band"})
	for _, r := range rows {
		rec := []string{
			r.ResponseID,
			ftoa(r.Total),
			ftoa(r.Max),
			ftoa(r.Percentage),
			r.Band,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
