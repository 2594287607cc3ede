package disposition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// writeReport renders the run summary as plain text in the report directory.
// The filename carries a second-resolution timestamp.
func (p *Processor) writeReport(startedAt time.Time, totalDecisions, totalFiles int, result Result) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Process Images Report [%s]\n", startedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Number of tasks: %d\n", totalDecisions)
	fmt.Fprintf(&b, "Number of files scanned: %d\n", totalFiles)
	fmt.Fprintf(&b, "Number of items total: %d\n", totalDecisions+totalFiles)

	section(&b, "Errors", result.Errors)
	section(&b, "Files Edited", result.FilesEdited)
	section(&b, "Files Deleted", result.FilesDeleted)
	section(&b, "Files Ignored", result.FilesIgnored)
	section(&b, "Files Copied", result.FilesCopied)

	b.WriteString("\n")
	b.WriteString(rule("End of Report"))
	b.WriteString("End of Report\n")
	b.WriteString(rule("End of Report"))

	name := fmt.Sprintf("report_%s.log", startedAt.Format("20060102_150405"))
	path := filepath.Join(p.reportDir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("disposition: write report: %w", err)
	}
	return path, nil
}

func section(b *strings.Builder, title string, lines []string) {
	b.WriteString("\n")
	b.WriteString(rule(title))
	b.WriteString(title + "\n")
	b.WriteString(rule(title))
	for _, line := range lines {
		fmt.Fprintf(b, " - %s\n", line)
	}
}

func rule(title string) string {
	return strings.Repeat("=", len(title)) + "\n"
}
