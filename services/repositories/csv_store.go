package repositories

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/lac-hong-legacy/guessword_api/model"
)

const tableFileMode os.FileMode = 0o644

type csvTable struct {
	schema tableSchema
	path   string
	legacy bool
}

type rawRow struct {
	line   int
	fields []string
}

// CSVStore keeps each table in its own flat CSV file. Appends go to the end of
// the file, the terminal transition rewrites the sessions file atomically.
// All mutations hold mu exclusively; reads share it.
type CSVStore struct {
	mu sync.RWMutex

	sessions      *csvTable
	distributions *csvTable
	receipts      *csvTable
}

var _ RecordStore = (*CSVStore)(nil)

// NewCSVStore opens (creating with a header row when missing) the sessions
// table at sessionsPath and the distribution tables under dataDir.
func NewCSVStore(sessionsPath, dataDir string) (*CSVStore, error) {
	store := &CSVStore{
		sessions:      &csvTable{schema: sessionsSchema, path: sessionsPath},
		distributions: &csvTable{schema: distributionsSchema, path: filepath.Join(dataDir, "distributions.csv")},
		receipts:      &csvTable{schema: receiptsSchema, path: filepath.Join(dataDir, "gift_receipts.csv")},
	}

	for _, table := range []*csvTable{store.sessions, store.distributions, store.receipts} {
		if err := table.open(); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (t *csvTable) open() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o750); err != nil {
		return fmt.Errorf("create %s directory: %w", t.schema.name, err)
	}

	info, err := os.Stat(t.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		var buf bytes.Buffer
		if err := writeAll(&buf, [][]string{t.schema.header}); err != nil {
			return err
		}
		if err := writeFileAtomic(t.path, buf.Bytes(), tableFileMode); err != nil {
			return fmt.Errorf("create %s table: %w", t.schema.name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s table: %w", t.schema.name, err)
	}

	rows, err := t.readRaw()
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		_, t.legacy = t.schema.headerKind(rows[0].fields)
	}
	return nil
}

func (t *csvTable) readRaw() ([]rawRow, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s table: %w", t.schema.name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []rawRow
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s table: %w", t.schema.name, err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, rawRow{line: line, fields: fields})
	}
	return rows, nil
}

// dataRows strips the header row, if any.
func (t *csvTable) dataRows(rows []rawRow) []rawRow {
	if len(rows) > 0 {
		if isHeader, _ := t.schema.headerKind(rows[0].fields); isHeader {
			return rows[1:]
		}
	}
	return rows
}

func (t *csvTable) append(rows [][]string) error {
	var buf bytes.Buffer
	if err := writeAll(&buf, rows); err != nil {
		return err
	}
	if err := appendSynced(t.path, buf.Bytes(), tableFileMode); err != nil {
		return fmt.Errorf("append %s: %w", t.schema.name, err)
	}
	return nil
}

func decodeTable[T any](t *csvTable, decode func([]string) (T, error)) (ParseResult[T], error) {
	rows, err := t.readRaw()
	if err != nil {
		return ParseResult[T]{}, err
	}

	result := ParseResult[T]{Records: []T{}}
	for _, row := range t.dataRows(rows) {
		rec, err := decode(row.fields)
		if err != nil {
			result.Failures = append(result.Failures, RowError{Table: t.schema.name, Line: row.line, Err: err})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func (s *CSVStore) AppendSession(ctx context.Context, rec model.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.append([][]string{encodeSession(rec, s.sessions.legacy)})
}

func (s *CSVStore) Sessions(ctx context.Context) (ParseResult[model.SessionRecord], error) {
	if err := ctx.Err(); err != nil {
		return ParseResult[model.SessionRecord]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return decodeTable(s.sessions, decodeSession)
}

func (s *CSVStore) FinalizeSession(ctx context.Context, identity model.Identity, status model.SessionStatus, elapsedSeconds int) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("finalize with non-terminal status %q", status)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.sessions.readRaw()
	if err != nil {
		return false, err
	}

	first := 0
	if len(rows) > 0 {
		if isHeader, _ := s.sessions.schema.headerKind(rows[0].fields); isHeader {
			first = 1
		}
	}

	found := false
	for i := len(rows) - 1; i >= first; i-- {
		if isOpenSessionOf(rows[i].fields, identity) {
			rows[i].fields[colStatus] = encodeStatus(status, s.sessions.legacy)
			rows[i].fields[colElapsed] = strconv.Itoa(elapsedSeconds)
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	all := make([][]string, len(rows))
	for i, row := range rows {
		all[i] = row.fields
	}
	var buf bytes.Buffer
	if err := writeAll(&buf, all); err != nil {
		return false, err
	}
	if err := writeFileAtomic(s.sessions.path, buf.Bytes(), tableFileMode); err != nil {
		return false, fmt.Errorf("rewrite %s: %w", s.sessions.schema.name, err)
	}
	return true, nil
}

func (s *CSVStore) AppendDistribution(ctx context.Context, rec model.DistributionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.distributions.append([][]string{encodeDistribution(rec)})
}

func (s *CSVStore) Distributions(ctx context.Context) (ParseResult[model.DistributionRecord], error) {
	if err := ctx.Err(); err != nil {
		return ParseResult[model.DistributionRecord]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return decodeTable(s.distributions, decodeDistribution)
}

func (s *CSVStore) AppendGiftReceipts(ctx context.Context, receipts []model.GiftReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]string, 0, len(receipts))
	for _, rec := range receipts {
		rows = append(rows, encodeReceipt(rec))
	}
	return s.receipts.append(rows)
}

func (s *CSVStore) GiftReceipts(ctx context.Context) (ParseResult[model.GiftReceipt], error) {
	if err := ctx.Err(); err != nil {
		return ParseResult[model.GiftReceipt]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return decodeTable(s.receipts, decodeReceipt)
}

func (s *CSVStore) Close() error {
	return nil
}
