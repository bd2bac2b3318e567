package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Columns: []string{"Title", "Date", "Venue"},
		Rows: [][]string{
			{"Robotics Workshop", "2025-06-15", "Hall A"},
			{"Guest Lecture", "2025-06-10"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Title,Date,Venue", lines[0])
	assert.Equal(t, "Robotics Workshop,2025-06-15,Hall A", lines[1])
	assert.Equal(t, "Guest Lecture,2025-06-10,", lines[2])
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable(), "Upcoming events")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestICalExporterRender(t *testing.T) {
	exporter := NewICalExporter("")
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	out, err := exporter.Render("Campus events", []CalendarEntry{
		{UID: "evt-1", Summary: "Robotics Workshop", Location: "Hall A", Start: start, Categories: []string{"Workshop"}},
		{UID: "evt-2", Summary: "Open Day", Start: start, AllDay: true},
	})
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "UID:evt-1")
	assert.Contains(t, body, "SUMMARY:Robotics Workshop")
	assert.Contains(t, body, "LOCATION:Hall A")
	assert.Contains(t, body, "DTSTART;VALUE=DATE:20250615")
	assert.Contains(t, body, "X-WR-CALNAME:Campus events")
}

func TestICalExporterRejectsMissingStart(t *testing.T) {
	_, err := NewICalExporter("").Render("x", []CalendarEntry{{UID: "evt-1"}})
	require.Error(t, err)
}
