package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"shoebox/internal/logging"
)

// CaptureLayout is the embedded metadata date format.
const CaptureLayout = "2006:01:02 15:04:05"

// Store reads and writes capture dates on image files. Implementations treat
// per-file failures as absence so batch operations can continue.
type Store interface {
	// IsSupportedImage reports whether the file carries a recognized image
	// signature. Unreadable files report false.
	IsSupportedImage(path string) bool
	// ReadCaptureDate returns the embedded capture date of the image, or
	// ok=false when the file has no usable date.
	ReadCaptureDate(ctx context.Context, path string) (time.Time, bool)
	// WriteCaptureDate stamps the capture date into the image metadata,
	// creating the metadata block when missing. Returns false on failure.
	WriteCaptureDate(ctx context.Context, path string, when time.Time) bool
}

// ExifStore is the concrete Store. JPEG and TIFF reads decode in process;
// PNG and WebP reads, and all writes, shell out to exiftool.
type ExifStore struct {
	binary string
	logger *slog.Logger
}

// NewExifStore returns a store invoking the given exiftool binary for the
// operations the in-process decoder cannot cover.
func NewExifStore(binary string, logger *slog.Logger) *ExifStore {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "exiftool"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ExifStore{binary: binary, logger: logger}
}

type signature struct {
	prefix []byte
	format string
}

var signatures = []signature{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpeg"},
	{[]byte{0x49, 0x49, 0x2A, 0x00}, "tiff"},
	{[]byte{0x4D, 0x4D, 0x00, 0x2A}, "tiff"},
	{[]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
}

// sniffFormat returns "jpeg", "tiff", "png", "webp", or "" from the leading
// bytes of the file.
func sniffFormat(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	header := make([]byte, 12)
	n, err := io.ReadFull(file, header)
	if err != nil && n < 3 {
		return ""
	}
	header = header[:n]

	for _, sig := range signatures {
		if bytes.HasPrefix(header, sig.prefix) {
			return sig.format
		}
	}
	// RIFF....WEBP
	if len(header) >= 12 && bytes.HasPrefix(header, []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WEBP")) {
		return "webp"
	}
	return ""
}

// IsSupportedImage implements Store.
func (s *ExifStore) IsSupportedImage(path string) bool {
	return sniffFormat(path) != ""
}

// captureTags in precedence order: when the shot was taken, when it was
// digitized, when the file last changed.
var captureTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

// ReadCaptureDate implements Store.
func (s *ExifStore) ReadCaptureDate(ctx context.Context, path string) (time.Time, bool) {
	switch sniffFormat(path) {
	case "jpeg", "tiff":
		if when, ok := readEmbedded(path); ok {
			return when, true
		}
		return time.Time{}, false
	case "png", "webp":
		return s.readWithExiftool(ctx, path)
	default:
		return time.Time{}, false
	}
}

func readEmbedded(path string) (time.Time, bool) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer file.Close()

	decoded, err := exif.Decode(file)
	if err != nil {
		return time.Time{}, false
	}

	for _, name := range captureTags {
		tag, err := decoded.Get(name)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		when, err := time.Parse(CaptureLayout, strings.TrimSpace(value))
		if err != nil {
			continue
		}
		return when, true
	}
	return time.Time{}, false
}

func (s *ExifStore) readWithExiftool(ctx context.Context, path string) (time.Time, bool) {
	args := []string{"-s3", "-d", "%Y:%m:%d %H:%M:%S",
		"-DateTimeOriginal", "-CreateDate", "-ModifyDate", "--", path}
	cmd := exec.CommandContext(ctx, s.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		s.logger.Debug("exiftool read failed",
			logging.String("path", path),
			logging.Error(err))
		return time.Time{}, false
	}

	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if when, err := time.Parse(CaptureLayout, line); err == nil {
			return when, true
		}
	}
	return time.Time{}, false
}

// WriteCaptureDate implements Store. All three date fields are stamped so
// every downstream reader agrees on the capture date.
func (s *ExifStore) WriteCaptureDate(ctx context.Context, path string, when time.Time) bool {
	stamp := when.Format(CaptureLayout)
	args := []string{
		"-overwrite_original",
		fmt.Sprintf("-DateTimeOriginal=%s", stamp),
		fmt.Sprintf("-CreateDate=%s", stamp),
		fmt.Sprintf("-ModifyDate=%s", stamp),
		"--", path,
	}
	cmd := exec.CommandContext(ctx, s.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		s.logger.Warn("exiftool write failed",
			logging.String("path", path),
			logging.String("output", strings.TrimSpace(string(output))),
			logging.Error(err))
		return false
	}
	return true
}
