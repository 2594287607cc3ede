// Package metadata reads and writes image capture dates. JPEG and TIFF
// reads decode in process; the remaining formats and all writes go through
// the exiftool binary configured for the installation.
package metadata
