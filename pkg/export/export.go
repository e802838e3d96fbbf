package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/RixhersAjazi/schedulemaker/core/model"
)

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var csvHeader = []string{"schedule", "kind", "slot", "id", "title", "day", "start", "end"}

// WriteCSV writes one row per meeting time of every schedule. Online options
// and items without times get a single row with empty time columns.
func WriteCSV(w io.Writer, schedules []model.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, s := range schedules {
		n := strconv.Itoa(i + 1)
		for _, e := range s.Entities() {
			slot, id, title := "", "", ""
			switch v := e.(type) {
			case model.Option:
				slot, id, title = strconv.Itoa(v.Slot), v.ID, v.Title
			case model.FixedItem:
				id, title = v.ID, v.Title
			}
			times := e.Windows()
			if len(times) == 0 {
				if err := cw.Write([]string{n, e.Kind().String(), slot, id, title, "", "", ""}); err != nil {
					return err
				}
				continue
			}
			for _, t := range times {
				rec := []string{n, e.Kind().String(), slot, id, title, t.Day.String(), t.Start.Clock(), t.End.Clock()}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
