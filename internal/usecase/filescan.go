package usecase

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaxScanFileSize caps uploads accepted by the scanner.
const MaxScanFileSize = 32 * 1024 * 1024

const (
	minStringLength   = 4
	maxReportStrings  = 50
	entropyHighLimit  = 7.5
	entropyModerate   = 6.5
	largeFileLimit    = 100 * 1024 * 1024
	riskSeverityHigh  = 80
	riskSeverityMed   = 50
	riskSeverityLow   = 20
)

var (
	executableExtensions = map[string]bool{
		".exe": true, ".bat": true, ".cmd": true, ".com": true, ".scr": true,
		".pif": true, ".vbs": true, ".js": true, ".jar": true, ".msi": true,
		".dll": true, ".sys": true,
	}
	archiveExtensions = map[string]bool{
		".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true, ".bz2": true,
	}
	scriptExtensions = map[string]bool{
		".js": true, ".vbs": true, ".ps1": true, ".py": true, ".sh": true, ".bat": true, ".cmd": true,
	}
	suspiciousMimeTypes = map[string]bool{
		"application/x-executable":    true,
		"application/x-msdownload":    true,
		"application/x-msi":           true,
		"application/x-dosexec":       true,
		"application/x-msdos-program": true,
	}
	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://`),
		regexp.MustCompile(`(?i)ftp://`),
		regexp.MustCompile(`(?i)cmd\.exe`),
		regexp.MustCompile(`(?i)powershell`),
		regexp.MustCompile(`(?i)regsvr32`),
		regexp.MustCompile(`(?i)rundll32`),
		regexp.MustCompile(`(?i)wscript\.exe`),
		regexp.MustCompile(`(?i)cscript\.exe`),
		regexp.MustCompile(`(?i)netcat`),
		regexp.MustCompile(`(?i)nc\.exe`),
		regexp.MustCompile(`(?i)backdoor`),
		regexp.MustCompile(`(?i)trojan`),
		regexp.MustCompile(`(?i)virus`),
		regexp.MustCompile(`(?i)malware`),
		regexp.MustCompile(`(?i)exploit`),
		regexp.MustCompile(`(?i)shellcode`),
		regexp.MustCompile(`(?i)payload`),
		regexp.MustCompile(`(?i)inject`),
		regexp.MustCompile(`(?i)keylogger`),
	}
)

type magicSignature struct {
	prefix      string
	description string
	executable  bool
}

// Ordered longest-prefix first so ZIP variants win over the bare PK match.
var magicSignatures = []magicSignature{
	{"7F454C46", "ELF executable", true},
	{"CAFEBABE", "Java class file", false},
	{"504B0304", "ZIP archive", false},
	{"504B0506", "ZIP archive", false},
	{"504B0708", "ZIP archive", false},
	{"52617221", "RAR archive", false},
	{"4D5A", "Windows executable", true},
}

// FileScanResult is the local heuristic analysis report.
type FileScanResult struct {
	Filename       string       `json:"filename"`
	FileSize       int          `json:"fileSize"`
	MimeType       string       `json:"mimeType"`
	Hashes         FileHashes   `json:"hashes"`
	RiskScore      int          `json:"riskScore"`
	Severity       string       `json:"severity"`
	Recommendation string       `json:"recommendation"`
	Threats        []string     `json:"threats"`
	Warnings       []string     `json:"warnings"`
	Analysis       FileAnalysis `json:"analysis"`
	ScannedAt      time.Time    `json:"scannedAt"`
}

type FileHashes struct {
	MD5    string `json:"md5"`
	SHA1   string `json:"sha1"`
	SHA256 string `json:"sha256"`
}

type FileAnalysis struct {
	FileType             string   `json:"fileType"`
	IsExecutable         bool     `json:"isExecutable"`
	IsArchive            bool     `json:"isArchive"`
	IsScript             bool     `json:"isScript"`
	HasSuspiciousContent bool     `json:"hasSuspiciousContent"`
	Entropy              float64  `json:"entropy"`
	Strings              []string `json:"strings"`
}

// FileScanService performs local static analysis of uploaded files:
// extension and MIME risk, Shannon entropy, string extraction and
// magic-byte identification. No external scanning service is involved.
type FileScanService struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewFileScanService constructs a FileScanService.
func NewFileScanService(logger *zap.Logger) *FileScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileScanService{logger: logger, now: time.Now}
}

// Scan analyzes the file content and returns the heuristic report.
func (s *FileScanService) Scan(filename, mimeType string, data []byte) (*FileScanResult, error) {
	if len(data) > MaxScanFileSize {
		return nil, newValidationError("file", "File size exceeds 32MB limit")
	}

	md5Sum := md5.Sum(data)
	sha1Sum := sha1.Sum(data)
	sha256Sum := sha256.Sum256(data)

	result := &FileScanResult{
		Filename: filename,
		FileSize: len(data),
		MimeType: mimeType,
		Hashes: FileHashes{
			MD5:    hex.EncodeToString(md5Sum[:]),
			SHA1:   hex.EncodeToString(sha1Sum[:]),
			SHA256: hex.EncodeToString(sha256Sum[:]),
		},
		Threats:   []string{},
		Warnings:  []string{},
		ScannedAt: s.now().UTC(),
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if executableExtensions[ext] {
		result.Analysis.IsExecutable = true
		result.RiskScore += 30
		result.Threats = append(result.Threats, "Executable file detected")
	}
	if archiveExtensions[ext] {
		result.Analysis.IsArchive = true
		result.RiskScore += 10
		result.Warnings = append(result.Warnings, "Archive file - contents should be extracted and scanned")
	}
	if scriptExtensions[ext] {
		result.Analysis.IsScript = true
		result.RiskScore += 20
		result.Threats = append(result.Threats, "Script file detected")
	}

	if suspiciousMimeTypes[mimeType] {
		result.RiskScore += 25
		result.Threats = append(result.Threats, "Suspicious MIME type detected")
	}

	if len(data) == 0 {
		result.RiskScore += 5
		result.Warnings = append(result.Warnings, "Empty file")
	} else if len(data) > largeFileLimit {
		result.RiskScore += 15
		result.Warnings = append(result.Warnings, "Very large file (>100MB)")
	}

	entropy := shannonEntropy(data)
	result.Analysis.Entropy = entropy
	if entropy > entropyHighLimit {
		result.RiskScore += 20
		result.Threats = append(result.Threats, "High entropy detected - possible encryption or packing")
	} else if entropy > entropyModerate {
		result.RiskScore += 10
		result.Warnings = append(result.Warnings, "Moderate entropy detected")
	}

	extracted := extractStrings(data)
	if len(extracted) > maxReportStrings {
		result.Analysis.Strings = extracted[:maxReportStrings]
	} else {
		result.Analysis.Strings = extracted
	}

	suspiciousCount := 0
	for _, str := range extracted {
		for _, pattern := range suspiciousPatterns {
			if pattern.MatchString(str) {
				suspiciousCount++
				sample := str
				if len(sample) > 50 {
					sample = sample[:50]
				}
				result.Threats = append(result.Threats, fmt.Sprintf("Suspicious string found: %s", sample))
				break
			}
		}
	}
	if suspiciousCount > 0 {
		result.RiskScore += suspiciousCount * 5
		result.Analysis.HasSuspiciousContent = true
	}

	headerLen := len(data)
	if headerLen > 8 {
		headerLen = 8
	}
	header := strings.ToUpper(hex.EncodeToString(data[:headerLen]))
	for _, sig := range magicSignatures {
		if strings.HasPrefix(header, sig.prefix) {
			result.Analysis.FileType = sig.description
			if sig.executable {
				result.RiskScore += 25
				result.Threats = append(result.Threats, "Executable file detected by magic number")
			}
			break
		}
	}

	switch {
	case result.RiskScore >= riskSeverityHigh:
		result.Severity = "HIGH"
		result.Recommendation = "File appears to be malicious. Do not execute."
	case result.RiskScore >= riskSeverityMed:
		result.Severity = "MEDIUM"
		result.Recommendation = "File has suspicious characteristics. Exercise caution."
	case result.RiskScore >= riskSeverityLow:
		result.Severity = "LOW"
		result.Recommendation = "File has some suspicious characteristics. Monitor behavior."
	default:
		result.Severity = "SAFE"
		result.Recommendation = "File appears to be safe."
	}

	s.logger.Info("file scanned",
		zap.String("filename", filename),
		zap.Int("size", len(data)),
		zap.Int("risk_score", result.RiskScore),
		zap.String("severity", result.Severity),
	)

	return result, nil
}

// shannonEntropy measures byte-level randomness in bits per byte.
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	entropy := 0.0
	length := float64(len(data))
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// extractStrings pulls printable ASCII runs of at least four characters.
func extractStrings(data []byte) []string {
	strs := make([]string, 0)
	var current strings.Builder

	for _, b := range data {
		if b >= 32 && b <= 126 {
			current.WriteByte(b)
			continue
		}
		if current.Len() >= minStringLength {
			strs = append(strs, current.String())
		}
		current.Reset()
	}
	if current.Len() >= minStringLength {
		strs = append(strs, current.String())
	}

	return strs
}
