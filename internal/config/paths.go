package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains the resolved application paths
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	LogsDir    string
}

// ResolvePaths turns the configured locations into absolute paths. An empty
// base directory means the executable directory.
func ResolvePaths(pc PathsConfig) (*Paths, error) {
	base := pc.BaseDir
	if base == "" {
		exeDir, err := executableDir()
		if err != nil {
			return nil, err
		}
		base = exeDir
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &Paths{
		BaseDir:    base,
		DataDir:    joinUnlessAbs(base, pc.DataDir),
		ReportsDir: joinUnlessAbs(base, pc.ReportsDir),
		LogsDir:    joinUnlessAbs(base, pc.LogsDir),
	}, nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

func joinUnlessAbs(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// ExpandDate substitutes {date} (YYYYMMDD) and {iso_date} (YYYY-MM-DD) in a
// file name pattern.
func ExpandDate(pattern string, date time.Time) string {
	r := strings.NewReplacer(
		"{date}", date.Format("20060102"),
		"{iso_date}", date.Format("2006-01-02"),
	)
	return r.Replace(pattern)
}

// SourcePath returns the dated input file path, relative names resolving
// against the data directory.
func (p *Paths) SourcePath(pattern string, date time.Time) string {
	return joinUnlessAbs(p.DataDir, ExpandDate(pattern, date))
}

// ReportPath returns the path for a report file
func (p *Paths) ReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// LogPath returns the path for a log file
func (p *Paths) LogPath(filename string) string {
	return joinUnlessAbs(p.BaseDir, filename)
}

// ClosingYieldsCSVPath returns the dated result file, e.g.
// closing_yields_20260310.csv.
func (p *Paths) ClosingYieldsCSVPath(pattern string, date time.Time) string {
	return p.ReportPath(ExpandDate(pattern, date))
}

// StatusReportPath returns the run status report for a date.
func (p *Paths) StatusReportPath(date time.Time) string {
	return p.ReportPath(fmt.Sprintf("status_%s.txt", date.Format("20060102")))
}

// MetricsPath returns the metrics text file for a configured name.
func (p *Paths) MetricsPath(name string) string {
	if name == "" {
		return ""
	}
	return joinUnlessAbs(p.ReportsDir, name)
}

// LogPathResolution logs the resolved directories.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
