package indexer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/frbviewer/internal/domain/model"
)

// Column aliases accepted in PATH candidate CSVs, in lookup order.
var (
	aliasMag     = []string{"MAG", "mag", "MAG_R", "rmag", "r_mag"}
	aliasPox     = []string{"P_Ox", "P_OX", "POX"}
	aliasPo      = []string{"P_O", "PO"}
	aliasPxo     = []string{"P_XO", "Pxo"}
	aliasZPhot   = []string{"Z_PHOT", "Z_PHOT_MEDIAN"}
	aliasZSpec   = []string{"Z_SPEC"}
	aliasSep     = []string{"SEP", "Separation", "sep_arcsec"}
	aliasTop1Mag = []string{"MAG", "MAG_R", "mag"}
	aliasZMedian = []string{"Z_PHOT_MEDIAN", "Z_PHOT"}
)

const surveyColumn = "SURVEY"

type csvRow map[string]string

// float returns the first alias holding a finite number.
func (r csvRow) float(aliases ...string) (float64, bool) {
	for _, key := range aliases {
		raw, ok := r[key]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return f, true
	}
	return 0, false
}

func (r csvRow) floatPtr(aliases ...string) *float64 {
	if f, ok := r.float(aliases...); ok {
		return &f
	}
	return nil
}

// findCandidateCSV returns the first PATH candidate table in dir, if any.
func findCandidateCSV(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*PATH*candidate*.csv"))
	if err != nil || len(matches) == 0 {
		return "", err
	}
	sort.Strings(matches)
	return matches[0], nil
}

// readCSV reads a headed CSV into rows keyed by column name. Short rows
// leave their trailing columns empty.
func readCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	var rows []csvRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(rows)+1, err)
		}
		row := make(csvRow, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// candidates converts CSV rows into path_table rows numbered from 1.
func candidates(eventID string, rows []csvRow) []model.Candidate {
	out := make([]model.Candidate, 0, len(rows))
	for i, row := range rows {
		c := model.Candidate{
			EventID:     eventID,
			CandidateID: strconv.Itoa(i + 1),
			Survey:      row[surveyColumn],
		}
		for col, aliases := range map[string][]string{
			model.ColMagnitude:   aliasMag,
			model.ColProbability: aliasPox,
			model.ColPriorO:      aliasPo,
			model.ColPxO:         aliasPxo,
			model.ColZPhot:       aliasZPhot,
			model.ColZSpec:       aliasZSpec,
			model.ColSeparation:  aliasSep,
		} {
			if f, ok := row.float(aliases...); ok {
				c.SetField(col, f)
			}
		}
		out = append(out, c)
	}
	return out
}

// summarize derives the event metrics. Events without any pox keep empty
// metrics.
func summarize(rows []csvRow) model.Metrics {
	var (
		best  csvRow
		bestP float64
		poxs  []float64
	)
	for _, row := range rows {
		p, ok := row.float(aliasPox...)
		if !ok {
			continue
		}
		poxs = append(poxs, p)
		if best == nil || p > bestP {
			best, bestP = row, p
		}
	}
	if best == nil {
		return model.Metrics{}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(poxs)))
	sum := poxs[0]
	if len(poxs) > 1 {
		sum += poxs[1]
	}
	top1 := bestP
	n := len(rows)

	var survey *string
	if s := best[surveyColumn]; s != "" {
		survey = &s
	}
	return model.Metrics{
		Top1: &model.BestCandidate{
			Mag:         best.floatPtr(aliasTop1Mag...),
			Pox:         &top1,
			Po:          best.floatPtr(aliasPo...),
			Pxo:         best.floatPtr(aliasPxo...),
			Survey:      survey,
			ZPhotMedian: best.floatPtr(aliasZMedian...),
			ZSpec:       best.floatPtr(aliasZSpec...),
		},
		Top1Score:      &top1,
		SumTop2Score:   &sum,
		CandidateCount: &n,
	}
}
