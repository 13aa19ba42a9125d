package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"ID", "Full Name", "Course"},
		Rows: []map[string]string{
			{"ID": "1", "Full Name": "Doe, John", "Course": "Web Development"},
			{"ID": "2", "Full Name": "Roe Jane", "Course": "Data Science"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	expected := "ID,Full Name,Course\n1,\"Doe, John\",Web Development\n2,Roe Jane,Data Science\n"
	assert.Equal(t, expected, string(out))
	assert.Equal(t, "text/csv; charset=utf-8", NewCSVExporter().ContentType())
}

func TestCSVExporterHeaderOnly(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{Headers: []string{"ID"}})
	require.NoError(t, err)
	assert.Equal(t, "ID\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sampleDataset()
	data.Rows[0]["Course"] = "A very long course name that certainly does not fit inside a narrow column"

	out, err := NewPDFExporter().Render(data, "Students")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "application/pdf", NewPDFExporter().ContentType())

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}
