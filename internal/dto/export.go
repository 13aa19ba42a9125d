package dto

// ExportQuery captures export query parameters.
type ExportQuery struct {
	Type   string `form:"type"`
	Format string `form:"format"`
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}
