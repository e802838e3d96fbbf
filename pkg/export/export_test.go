package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RixhersAjazi/schedulemaker/core/model"
)

func TestWriteCSV(t *testing.T) {
	c := model.Combination{
		{ID: "CSCI-101-01", Slot: 1, Title: "Intro", Times: []model.TimeWindow{
			{Day: model.Monday, Start: 540, End: 590},
			{Day: model.Wednesday, Start: 540, End: 590},
		}},
		{ID: "HIST-100-OL", Slot: 2, Online: true, Times: []model.TimeWindow{{Day: model.Monday, Start: 0, End: 60}}},
	}
	fixed := []model.FixedItem{{Title: "Work", Times: []model.TimeWindow{{Day: model.Friday, Start: 480, End: 720}}}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []model.Schedule{model.NewSchedule(c, fixed)}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"schedule,kind,slot,id,title,day,start,end",
		"1,option,1,CSCI-101-01,Intro,Mon,09:00,09:50",
		"1,option,1,CSCI-101-01,Intro,Wed,09:00,09:50",
		"1,option,2,HIST-100-OL,,,,",
		"1,fixed,,,Work,Fri,08:00,12:00",
	}, lines)
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "schedule,kind,slot,id,title,day,start,end\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, model.NewSchedule(model.Combination{{ID: "A"}}, nil)))
	assert.JSONEq(t, `{"options":[{"id":"A"}]}`, buf.String())
}
