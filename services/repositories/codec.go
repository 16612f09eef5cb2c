package repositories

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/shared"
)

const (
	TableSessions      = "sessions"
	TableDistributions = "distributions"
	TableGiftReceipts  = "gift_receipts"
)

type tableSchema struct {
	name   string
	header []string
	// legacy is the header written by the first generation of stations.
	legacy []string
}

var (
	sessionsSchema = tableSchema{
		name:   TableSessions,
		header: []string{"started_at", "handle", "contact", "secret", "status", "elapsed_seconds"},
		legacy: []string{"date", "pseudo", "telephone", "mot_cache", "resultat", "temps_partie"},
	}
	distributionsSchema = tableSchema{
		name: TableDistributions,
		header: []string{
			"distributed_at",
			"winner1_handle", "winner1_contact",
			"winner2_handle", "winner2_contact",
			"winner3_handle", "winner3_contact",
		},
	}
	receiptsSchema = tableSchema{
		name:   TableGiftReceipts,
		header: []string{"handle", "received_at"},
		legacy: []string{"pseudo", "date"},
	}
)

const (
	colStartedAt = iota
	colHandle
	colContact
	colSecret
	colStatus
	colElapsed
	sessionColumns
)

const maxWinnerSlots = 3

var legacyStatus = map[model.SessionStatus]string{
	model.SessionInProgress: "en_cours",
	model.SessionWon:        "victoire",
	model.SessionAbandoned:  "abandon",
}

// headerKind reports whether row is this table's header, and whether it is
// the legacy one.
func (s tableSchema) headerKind(row []string) (isHeader, legacy bool) {
	if len(row) == 0 {
		return false, false
	}
	first := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff")))
	if first == s.header[0] {
		return true, false
	}
	if len(s.legacy) > 0 && first == s.legacy[0] {
		return true, true
	}
	return false, false
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(shared.TimeLayout)
}

// ParseTime accepts RFC 3339 timestamps and the naive local ISO-8601 form.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(shared.LegacyTimeLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
	}
	return t, nil
}

func encodeStatus(status model.SessionStatus, legacy bool) string {
	if legacy {
		return legacyStatus[status]
	}
	return string(status)
}

func decodeStatus(value string) (model.SessionStatus, error) {
	value = strings.TrimSpace(value)
	status := model.SessionStatus(value)
	if status.Valid() {
		return status, nil
	}
	for s, legacy := range legacyStatus {
		if value == legacy {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", value)
}

func encodeSession(rec model.SessionRecord, legacy bool) []string {
	return []string{
		FormatTime(rec.StartedAt),
		rec.Handle,
		rec.Contact,
		rec.Secret,
		encodeStatus(rec.Status, legacy),
		strconv.Itoa(rec.ElapsedSeconds),
	}
}

func decodeSession(row []string) (model.SessionRecord, error) {
	if len(row) != sessionColumns {
		return model.SessionRecord{}, fmt.Errorf("expected %d fields, got %d", sessionColumns, len(row))
	}
	startedAt, err := ParseTime(row[colStartedAt])
	if err != nil {
		return model.SessionRecord{}, err
	}
	status, err := decodeStatus(row[colStatus])
	if err != nil {
		return model.SessionRecord{}, err
	}
	elapsed, err := strconv.Atoi(strings.TrimSpace(row[colElapsed]))
	if err != nil || elapsed < 0 {
		return model.SessionRecord{}, fmt.Errorf("invalid elapsed seconds %q", row[colElapsed])
	}
	if row[colHandle] == "" {
		return model.SessionRecord{}, fmt.Errorf("empty handle")
	}
	return model.SessionRecord{
		StartedAt:      startedAt,
		Handle:         row[colHandle],
		Contact:        row[colContact],
		Secret:         row[colSecret],
		Status:         status,
		ElapsedSeconds: elapsed,
	}, nil
}

// isOpenSessionOf reports whether a raw session row is the open attempt of identity.
func isOpenSessionOf(row []string, identity model.Identity) bool {
	if len(row) != sessionColumns {
		return false
	}
	if row[colHandle] != identity.Handle || row[colContact] != identity.Contact {
		return false
	}
	status, err := decodeStatus(row[colStatus])
	return err == nil && status == model.SessionInProgress
}

func encodeDistribution(rec model.DistributionRecord) []string {
	row := make([]string, 0, 1+2*maxWinnerSlots)
	row = append(row, FormatTime(rec.DistributedAt))
	for i := 0; i < maxWinnerSlots; i++ {
		if i < len(rec.Winners) {
			row = append(row, rec.Winners[i].Handle, rec.Winners[i].Contact)
		} else {
			row = append(row, "", "")
		}
	}
	return row
}

func decodeDistribution(row []string) (model.DistributionRecord, error) {
	if len(row) < 1 || len(row) > 1+2*maxWinnerSlots {
		return model.DistributionRecord{}, fmt.Errorf("unexpected field count %d", len(row))
	}
	distributedAt, err := ParseTime(row[0])
	if err != nil {
		return model.DistributionRecord{}, err
	}
	rec := model.DistributionRecord{DistributedAt: distributedAt, Winners: []model.Winner{}}
	// a trailing handle without its contact is an incomplete slot
	for idx := 1; idx+1 < len(row); idx += 2 {
		if row[idx] == "" {
			continue
		}
		rec.Winners = append(rec.Winners, model.Winner{Handle: row[idx], Contact: row[idx+1]})
	}
	return rec, nil
}

func encodeReceipt(rec model.GiftReceipt) []string {
	return []string{rec.Handle, FormatTime(rec.ReceivedAt)}
}

func decodeReceipt(row []string) (model.GiftReceipt, error) {
	if len(row) != 2 {
		return model.GiftReceipt{}, fmt.Errorf("expected 2 fields, got %d", len(row))
	}
	if row[0] == "" {
		return model.GiftReceipt{}, fmt.Errorf("empty handle")
	}
	receivedAt, err := ParseTime(row[1])
	if err != nil {
		return model.GiftReceipt{}, err
	}
	return model.GiftReceipt{Handle: row[0], ReceivedAt: receivedAt}, nil
}

// WriteSessionsCSV exports records with the current header and vocabulary.
func WriteSessionsCSV(w io.Writer, records []model.SessionRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, sessionsSchema.header)
	for _, rec := range records {
		rows = append(rows, encodeSession(rec, false))
	}
	return writeAll(w, rows)
}

func WriteDistributionsCSV(w io.Writer, records []model.DistributionRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, distributionsSchema.header)
	for _, rec := range records {
		rows = append(rows, encodeDistribution(rec))
	}
	return writeAll(w, rows)
}

func WriteGiftReceiptsCSV(w io.Writer, records []model.GiftReceipt) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, receiptsSchema.header)
	for _, rec := range records {
		rows = append(rows, encodeReceipt(rec))
	}
	return writeAll(w, rows)
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}
