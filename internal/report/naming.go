package report

import (
	"path/filepath"
	"strings"
)

// filenameReplacer strips characters that are illegal or risky in filenames
// on common filesystems.
var filenameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_",
	"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeFilename makes name safe to use as a single path element.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(filenameReplacer.Replace(name))
}

// OutputName derives the output filename from the baseline file and the
// target date: the baseline's stem with "-yyyymmdd" appended, same extension.
func OutputName(basePath, ymd string) string {
	base := filepath.Base(basePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return SanitizeFilename(stem + "-" + ymd + ext)
}

// OutputPath joins the output directory with the derived name. An empty dir
// places the output next to the baseline file.
func OutputPath(dir, basePath, ymd string) string {
	if dir == "" {
		dir = filepath.Dir(basePath)
	}
	return filepath.Join(dir, OutputName(basePath, ymd))
}
