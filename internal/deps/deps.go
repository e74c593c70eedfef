package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/RabowNicholas/swna-automation/internal/config"
)

// Requirement defines an external binary swna shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ExtractionRequirements lists the text extraction binaries for cfg. OCR
// binaries are optional unless the fallback is enabled.
func ExtractionRequirements(cfg config.Extraction) []Requirement {
	return []Requirement{
		{Name: "pdftotext", Command: cfg.PdftotextBinary, Description: "Extracts the text layer of incoming PDFs"},
		{Name: "pdftoppm", Command: cfg.PdftoppmBinary, Description: "Rasterizes pages for OCR", Optional: !cfg.OCRFallback},
		{Name: "tesseract", Command: cfg.TesseractBinary, Description: "OCR for scans without a text layer", Optional: !cfg.OCRFallback},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the statuses of unavailable non-optional binaries.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
