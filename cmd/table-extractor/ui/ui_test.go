package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, quiet bool) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	InitUI(true, false, quiet)
	SetOutput(&out, &errOut)
	t.Cleanup(func() { InitUI(true, false, false) })
	return &out, &errOut
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "3s", FormatDuration(3200*time.Millisecond))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
}

func TestTable(t *testing.T) {
	out, _ := capture(t, false)

	Table([]string{"Course Code", "Section"}, [][]string{{"CS101", "A1\nLab"}})

	assert.Equal(t,
		"Course Code  Section\n"+
			"-----------  -------\n"+
			"CS101        A1 / Lab\n",
		out.String())
}

func TestQuietSuppressesAllButErrors(t *testing.T) {
	out, errOut := capture(t, true)

	Info("hello")
	Success("done")
	Section("Summary")
	Table([]string{"a"}, [][]string{{"b"}})
	Error("failed %d", 1)

	assert.Empty(t, out.String())
	assert.Equal(t, "✗ failed 1\n", errOut.String())
}

func TestMessages(t *testing.T) {
	out, _ := capture(t, false)

	Warning("no rows in %s", "a.pdf")
	Info("wrote %d files", 2)
	KeyValue("Tables", "3")

	assert.Equal(t, "⚠ no rows in a.pdf\nℹ wrote 2 files\n  Tables: 3\n", out.String())
}

func TestVerbose(t *testing.T) {
	InitUI(true, true, false)
	t.Cleanup(func() { InitUI(true, false, false) })
	assert.True(t, Verbose())

	InitUI(true, false, false)
	assert.False(t, Verbose())
}

func TestProgressBar_Quiet(t *testing.T) {
	_, errOut := capture(t, true)

	bar := NewProgressBar(2, "Extracting")
	bar.Describe("a.pdf")
	bar.Add(2)
	bar.Finish()

	assert.NotContains(t, errOut.String(), "a.pdf")
}
