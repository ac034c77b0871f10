package domain

import "time"

// Required source columns and the renamed output column.
const (
	ColumnCourseCode = "Course Code"
	ColumnCourseName = "Course Name"
	ColumnDetails    = "Details"
	ColumnSection    = "Section"
)

// RequiredColumns lists the header names the field selector must find.
var RequiredColumns = []string{ColumnCourseCode, ColumnCourseName, ColumnDetails}

// WorkbookContentType is the MIME type of produced spreadsheets.
const WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UploadedDocument is a PDF accepted by the service and persisted locally.
type UploadedDocument struct {
	Filename   string // sanitized client filename
	Path       string // where the bytes were written
	Size       int64
	ReceivedAt time.Time
}

// PageImage represents a single rasterized PDF page
type PageImage struct {
	PageNumber int
	ImagePath  string // PNG inside the job scratch directory
	Width      int
	Height     int
}

// Cell is one (possibly spanning) cell of a detected table, addressed by
// zero-based grid coordinates.
type Cell struct {
	Row     int
	Col     int
	RowSpan int
	ColSpan int
	Text    string
}

// Table is a detected table laid out on a rows x cols grid.
type Table struct {
	Rows  int
	Cols  int
	Cells []Cell
}

// Grid expands the table into a dense matrix; spanned positions are empty
// except for the top-left cell of each span.
func (t Table) Grid() [][]string {
	grid := make([][]string, t.Rows)
	for r := range grid {
		grid[r] = make([]string, t.Cols)
	}
	for _, c := range t.Cells {
		if c.Row < t.Rows && c.Col < t.Cols {
			grid[c.Row][c.Col] = c.Text
		}
	}
	return grid
}

// TableSummary describes the spreadsheet written by a table extractor.
type TableSummary struct {
	WorkbookPath string
	Sheets       []string
	Tables       []Table
}

// Record is a single selected row. Field order matches the JSON key order of
// the upload response.
type Record struct {
	CourseCode string `json:"Course Code"`
	CourseName string `json:"Course Name"`
	Section    string `json:"Section"`
}

// Result is the outcome of one successful pipeline run.
type Result struct {
	JobID    string
	Records  []Record
	Workbook []byte
	Tables   int
	Duration time.Duration
}

// EventType represents the type of pipeline progress event
type EventType string

const (
	EventStart         EventType = "start"
	EventStageComplete EventType = "stage_complete"
	EventComplete      EventType = "complete"
	EventError         EventType = "error"
)

// StreamEvent reports pipeline progress to interactive callers
type StreamEvent struct {
	Type      EventType
	JobID     string
	Stage     Stage
	Payload   string
	Timestamp time.Time
}
