package temporal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// Column names of an EventTable
const (
	ColumnStartTime = "start_time"
	ColumnEndTime   = "end_time"
	ColumnDuration  = "duration"
)

var eventColumns = []string{ColumnStartTime, ColumnEndTime, ColumnDuration}

// EventTable is the column-oriented dataset of all events of a run
type EventTable struct {
	events []Event
}

// NewEventTable builds a table from events, keeping their order
func NewEventTable(events []Event) *EventTable {
	return &EventTable{events: append([]Event(nil), events...)}
}

// Append adds events at the end of the table
func (et *EventTable) Append(events ...Event) {
	et.events = append(et.events, events...)
}

// Len returns the number of rows
func (et *EventTable) Len() int {
	return len(et.events)
}

// Columns returns the column names in order
func (et *EventTable) Columns() []string {
	return append([]string(nil), eventColumns...)
}

// Column returns a copy of the named column
func (et *EventTable) Column(name string) ([]float64, error) {
	var pick func(Event) float64
	switch name {
	case ColumnStartTime:
		pick = func(e Event) float64 { return e.StartTime }
	case ColumnEndTime:
		pick = func(e Event) float64 { return e.EndTime }
	case ColumnDuration:
		pick = func(e Event) float64 { return e.Duration }
	default:
		return nil, common.InvalidInput("temporal.EventTable.Column", "unknown column %q", name)
	}

	values := make([]float64, len(et.events))
	for i, e := range et.events {
		values[i] = pick(e)
	}
	return values, nil
}

// Rows returns a copy of the events
func (et *EventTable) Rows() []Event {
	return append([]Event(nil), et.events...)
}

// WriteCSV writes the table with a header row
func (et *EventTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(eventColumns); err != nil {
		return fmt.Errorf("failed to write event header: %w", err)
	}

	record := make([]string, len(eventColumns))
	for i, e := range et.events {
		record[0] = formatFloat(e.StartTime)
		record[1] = formatFloat(e.EndTime)
		record[2] = formatFloat(e.Duration)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write event %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush events: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
