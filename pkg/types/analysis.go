// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pdf-notes pipeline.
package types

// ParagraphRole is the semantic role the analysis service assigns to a
// paragraph. Values match the service wire format.
type ParagraphRole string

const (
	RolePlain          ParagraphRole = ""
	RoleTitle          ParagraphRole = "title"
	RoleSectionHeading ParagraphRole = "sectionHeading"
	RolePageHeader     ParagraphRole = "pageHeader"
	RolePageFooter     ParagraphRole = "pageFooter"
	RolePageNumber     ParagraphRole = "pageNumber"
	RoleFootnote       ParagraphRole = "footnote"
)

// AnalysisResult is the structured layout returned by the document-analysis
// service for one PDF.
//
// Paragraphs and Tables are optional views: a nil slice means the service did
// not provide them. Use HasParagraphs and HasTables instead of probing fields.
type AnalysisResult struct {
	// Pages lists the pages in document order.
	Pages []Page `json:"pages" yaml:"pages"`

	// Paragraphs is the higher-level reading-order view, when available.
	Paragraphs []Paragraph `json:"paragraphs,omitempty" yaml:"paragraphs,omitempty"`

	// Tables lists detected tables in document order, when available.
	Tables []Table `json:"tables,omitempty" yaml:"tables,omitempty"`
}

// HasParagraphs reports whether the result carries a non-empty paragraph view.
func (r *AnalysisResult) HasParagraphs() bool {
	return r != nil && len(r.Paragraphs) > 0
}

// HasTables reports whether the result carries any tables.
func (r *AnalysisResult) HasTables() bool {
	return r != nil && len(r.Tables) > 0
}

// PageCount returns the number of pages in the result.
func (r *AnalysisResult) PageCount() int {
	if r == nil {
		return 0
	}
	return len(r.Pages)
}

// Page holds the raw text lines of one page.
type Page struct {
	PageNumber int    `json:"pageNumber" yaml:"page_number"`
	Lines      []Line `json:"lines" yaml:"lines"`
}

// Line is a single span of text as laid out on the page.
type Line struct {
	Content string `json:"content" yaml:"content"`
}

// Paragraph is a block of text with an optional semantic role.
type Paragraph struct {
	Role    ParagraphRole `json:"role,omitempty" yaml:"role,omitempty"`
	Content string        `json:"content" yaml:"content"`
}

// Table is a grid of cells addressed by zero-based row and column index.
type Table struct {
	RowCount    int    `json:"rowCount" yaml:"row_count"`
	ColumnCount int    `json:"columnCount" yaml:"column_count"`
	Cells       []Cell `json:"cells" yaml:"cells"`
}

// Cell is one table cell.
type Cell struct {
	RowIndex    int    `json:"rowIndex" yaml:"row_index"`
	ColumnIndex int    `json:"columnIndex" yaml:"column_index"`
	Content     string `json:"content" yaml:"content"`
}
