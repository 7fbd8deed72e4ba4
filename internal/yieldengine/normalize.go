package yieldengine

import (
	"time"

	"yieldcli/pkg/contracts/domain"
)

// Source names used in errors and diagnostics.
const (
	SourceReference     = "reference"
	SourceExchange      = "exchange"
	SourceDealerLinked  = "dealer.linked"
	SourceDealerNominal = "dealer.nominal"
)

// ColumnMap names the columns read from each input table. Header matching is
// case- and whitespace-insensitive. An empty LinkedID means the first column.
type ColumnMap struct {
	ReferenceID    string `yaml:"reference_id" json:"reference_id"`
	ReferenceYield string `yaml:"reference_yield" json:"reference_yield"`

	ExchangeSecurity  string `yaml:"exchange_security" json:"exchange_security"`
	ExchangeBenchmark string `yaml:"exchange_benchmark" json:"exchange_benchmark"`
	ExchangeDeals     string `yaml:"exchange_deals" json:"exchange_deals"`
	ExchangeNominal   string `yaml:"exchange_nominal" json:"exchange_nominal"`
	ExchangeYield     string `yaml:"exchange_yield" json:"exchange_yield"`
	ExchangeSpread    string `yaml:"exchange_spread" json:"exchange_spread"`

	LinkedID    string `yaml:"linked_id" json:"linked_id"`
	LinkedValue string `yaml:"linked_value" json:"linked_value"`
	LinkedDate  string `yaml:"linked_date" json:"linked_date"`

	NominalID    string `yaml:"nominal_id" json:"nominal_id"`
	NominalValue string `yaml:"nominal_value" json:"nominal_value"`
	NominalDate  string `yaml:"nominal_date" json:"nominal_date"`
}

// DefaultColumnMap returns the column names of the standard daily files.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		ReferenceID:       "Bond",
		ReferenceYield:    "Yield",
		ExchangeSecurity:  "Security",
		ExchangeBenchmark: "Benchmark",
		ExchangeDeals:     "Deals",
		ExchangeNominal:   "Nominal",
		ExchangeYield:     "Mark To (Yield)",
		ExchangeSpread:    "Spread",
		LinkedValue:       "PX_Last",
		LinkedDate:        "Date",
		NominalID:         "Government",
		NominalValue:      "Spread",
		NominalDate:       "Date of last event",
	}
}

// withDefaults fills every empty name except LinkedID.
func (m ColumnMap) withDefaults() ColumnMap {
	d := DefaultColumnMap()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&m.ReferenceID, d.ReferenceID)
	fill(&m.ReferenceYield, d.ReferenceYield)
	fill(&m.ExchangeSecurity, d.ExchangeSecurity)
	fill(&m.ExchangeBenchmark, d.ExchangeBenchmark)
	fill(&m.ExchangeDeals, d.ExchangeDeals)
	fill(&m.ExchangeNominal, d.ExchangeNominal)
	fill(&m.ExchangeYield, d.ExchangeYield)
	fill(&m.ExchangeSpread, d.ExchangeSpread)
	fill(&m.LinkedValue, d.LinkedValue)
	fill(&m.LinkedDate, d.LinkedDate)
	fill(&m.NominalID, d.NominalID)
	fill(&m.NominalValue, d.NominalValue)
	fill(&m.NominalDate, d.NominalDate)
	return m
}

// normalized is the uniform view of one day's inputs.
type normalized struct {
	securities []domain.Security
	exchange   map[string]domain.ExchangeQuote
	benchmarks []domain.BenchmarkYield
	dealer     map[domain.InstrumentClass]map[string][]domain.DealerQuote

	dealerOrder   []string
	dealerOnly    []string
	duplicateRows int
	fieldErrors   []FieldParseError
}

func (n *normalized) fieldError(source string, row int, column, securityID, value string, err error) {
	n.fieldErrors = append(n.fieldErrors, FieldParseError{
		Source:     source,
		Row:        row,
		Column:     column,
		SecurityID: securityID,
		Value:      value,
		Err:        err,
	})
}

// normalizer turns raw tables into records. It keeps no state between runs.
type normalizer struct {
	cols      ColumnMap
	overrides map[string]domain.InstrumentClass
	loc       *time.Location
}

func (z normalizer) normalize(src domain.Sources) (*normalized, error) {
	if err := checkSources(src); err != nil {
		return nil, err
	}

	n := &normalized{
		exchange: make(map[string]domain.ExchangeQuote),
		dealer: map[domain.InstrumentClass]map[string][]domain.DealerQuote{
			domain.ClassLinked:  {},
			domain.ClassNominal: {},
		},
	}

	if err := z.readReference(src.Reference, n); err != nil {
		return nil, err
	}
	if err := z.readExchange(src.Exchange, n); err != nil {
		return nil, err
	}
	if err := z.readDealer(src.Dealer.Linked, SourceDealerLinked, domain.ClassLinked,
		z.cols.LinkedID, z.cols.LinkedValue, z.cols.LinkedDate, n); err != nil {
		return nil, err
	}
	if err := z.readDealer(src.Dealer.Nominal, SourceDealerNominal, domain.ClassNominal,
		z.cols.NominalID, z.cols.NominalValue, z.cols.NominalDate, n); err != nil {
		return nil, err
	}

	n.dealerOnly = dealerOnly(n)
	return n, nil
}

func checkSources(src domain.Sources) error {
	switch {
	case src.Reference == nil:
		return &MissingSourceError{Source: SourceReference}
	case src.Exchange == nil:
		return &MissingSourceError{Source: SourceExchange}
	case src.Dealer == nil || src.Dealer.Linked == nil:
		return &MissingSourceError{Source: SourceDealerLinked}
	case src.Dealer.Nominal == nil:
		return &MissingSourceError{Source: SourceDealerNominal}
	}
	return nil
}

// requireColumns resolves column indexes, failing on the first absent one. An
// entirely empty table (no header, no rows) is accepted as having no data.
func requireColumns(t *domain.Table, source string, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	if len(t.Columns) == 0 && t.Len() == 0 {
		for i := range idx {
			idx[i] = -1
		}
		return idx, nil
	}
	for i, name := range names {
		idx[i] = t.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, &MissingColumnError{Source: source, Column: name}
		}
	}
	return idx, nil
}

func (z normalizer) readReference(t *domain.Table, n *normalized) error {
	idx, err := requireColumns(t, SourceReference, z.cols.ReferenceID, z.cols.ReferenceYield)
	if err != nil {
		return err
	}
	for r := 0; r < t.Len(); r++ {
		id := t.Cell(r, idx[0])
		if isAbsent(id) {
			continue
		}
		raw := t.Cell(r, idx[1])
		y, err := parseDecimal(raw)
		if err != nil {
			n.fieldError(SourceReference, r+1, z.cols.ReferenceYield, id, raw, err)
			continue
		}
		if !y.Valid {
			continue
		}
		n.benchmarks = append(n.benchmarks, domain.BenchmarkYield{BenchmarkID: id, Yield: y.Decimal})
	}
	return nil
}

func (z normalizer) readExchange(t *domain.Table, n *normalized) error {
	idx, err := requireColumns(t, SourceExchange, z.cols.ExchangeSecurity, z.cols.ExchangeBenchmark)
	if err != nil {
		return err
	}
	secCol, benchCol := idx[0], idx[1]
	dealsCol := t.ColumnIndex(z.cols.ExchangeDeals)
	nominalCol := t.ColumnIndex(z.cols.ExchangeNominal)
	yieldCol := t.ColumnIndex(z.cols.ExchangeYield)
	spreadCol := t.ColumnIndex(z.cols.ExchangeSpread)

	position := make(map[string]int)
	for r := 0; r < t.Len(); r++ {
		id := t.Cell(r, secCol)
		if isAbsent(id) {
			continue
		}
		row := r + 1

		sec := domain.Security{ID: id, Class: domain.ClassLinked}
		if bench := t.Cell(r, benchCol); !isAbsent(bench) {
			b := bench
			sec.Class = domain.ClassNominal
			sec.BenchmarkID = &b
		}
		if class, ok := z.overrides[id]; ok {
			sec.Class = class
			if class == domain.ClassLinked {
				sec.BenchmarkID = nil
			}
		}

		q := domain.ExchangeQuote{SecurityID: id}
		if dealsCol >= 0 {
			raw := t.Cell(r, dealsCol)
			if v, ok, err := parseCount(raw); err != nil {
				n.fieldError(SourceExchange, row, z.cols.ExchangeDeals, id, raw, err)
			} else if ok {
				q.Deals = v
			}
		}
		if nominalCol >= 0 {
			raw := t.Cell(r, nominalCol)
			if v, err := parseDecimal(raw); err != nil {
				n.fieldError(SourceExchange, row, z.cols.ExchangeNominal, id, raw, err)
			} else if v.Valid {
				q.Nominal = v.Decimal
			}
		}
		if yieldCol >= 0 {
			raw := t.Cell(r, yieldCol)
			if v, err := parseDecimal(raw); err != nil {
				n.fieldError(SourceExchange, row, z.cols.ExchangeYield, id, raw, err)
			} else {
				q.ObservedYield = v
			}
		}
		if spreadCol >= 0 {
			raw := t.Cell(r, spreadCol)
			if v, err := parseDecimal(raw); err != nil {
				n.fieldError(SourceExchange, row, z.cols.ExchangeSpread, id, raw, err)
			} else {
				q.ObservedSpreadBps = v
			}
		}

		if pos, seen := position[id]; seen {
			n.duplicateRows++
			n.securities[pos] = sec
		} else {
			position[id] = len(n.securities)
			n.securities = append(n.securities, sec)
		}
		n.exchange[id] = q
	}
	return nil
}

func (z normalizer) readDealer(t *domain.Table, source string, class domain.InstrumentClass,
	idName, valueName, dateName string, n *normalized) error {

	var idCol, valueCol int
	if idName == "" {
		idx, err := requireColumns(t, source, valueName)
		if err != nil {
			return err
		}
		idCol, valueCol = 0, idx[0]
	} else {
		idx, err := requireColumns(t, source, idName, valueName)
		if err != nil {
			return err
		}
		idCol, valueCol = idx[0], idx[1]
	}
	dateCol := t.ColumnIndex(dateName)

	book := n.dealer[class]
	for r := 0; r < t.Len(); r++ {
		id := t.Cell(r, idCol)
		if isAbsent(id) {
			continue
		}
		row := r + 1

		raw := t.Cell(r, valueCol)
		v, err := parseDecimal(raw)
		if err != nil {
			n.fieldError(source, row, valueName, id, raw, err)
			continue
		}
		if !v.Valid {
			continue
		}

		q := domain.DealerQuote{SecurityID: id, Class: class, Value: v.Decimal}
		if dateCol >= 0 {
			rawDate := t.Cell(r, dateCol)
			d, err := parseDate(rawDate, z.loc)
			if err != nil {
				n.fieldError(source, row, dateName, id, rawDate, err)
			} else {
				q.QuoteDate = d
			}
		}
		if len(book[id]) == 0 {
			n.dealerOrder = append(n.dealerOrder, id)
		}
		book[id] = append(book[id], q)
	}
	return nil
}

// dealerOnly lists dealer securities absent from the exchange report, linked
// table first, each in sheet order.
func dealerOnly(n *normalized) []string {
	var out []string
	seen := make(map[string]bool)
	for _, id := range n.dealerOrder {
		if _, ok := n.exchange[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
