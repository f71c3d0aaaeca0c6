package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"diligence/pkg/errors"
	"diligence/pkg/logger"
)

// FinalReportName and ExecutiveSummaryName are the file-level pseudo-sections
// written after the per-section files.
const (
	FinalReportName      = "Final Report"
	ExecutiveSummaryName = "Executive Summary"
)

// Writer persists numbered section files under a per-company directory. The
// files are an audit artifact; a write failure is reported but callers treat
// it as non-fatal.
type Writer struct {
	outputDir string
	log       *logger.Logger
}

// NewWriter creates a section file writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir: outputDir,
		log:       logger.With("component", "writer"),
	}
}

// WriteSection writes one section to <outputDir>/<company>/<number>.<name>.md
// with a metadata header. Empty content is skipped and returns an empty path.
func (w *Writer) WriteSection(companyName, sectionName string, number int, content, currentDate string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}

	companyDir := filepath.Join(w.outputDir, companyName)
	if err := os.MkdirAll(companyDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create output dir %s", companyDir)
	}

	filename := fmt.Sprintf("%d.%s.md", number, strings.ToLower(strings.ReplaceAll(sectionName, " ", "_")))
	path := filepath.Join(companyDir, filename)

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Company:** %s  \n", companyName)
	fmt.Fprintf(&sb, "**Section:** %s  \n", sectionName)
	fmt.Fprintf(&sb, "**Generated:** %s  \n", currentDate)
	sb.WriteString(content)

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}

	w.log.Infow("section file written", "path", path, "bytes", sb.Len())
	return path, nil
}
