package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shoebox/internal/config"
	"shoebox/internal/logging"
)

const userAgent = "Shoebox-Go/0.1.0"

// ErrDisabled is returned when the upload client is used without an enabled
// immich configuration.
var ErrDisabled = errors.New("immich upload is not enabled")

// UploadResult describes one attempted asset upload.
type UploadResult struct {
	Path   string `json:"path"`
	OK     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates a batch upload.
type Summary struct {
	Total    int           `json:"total"`
	Uploaded int           `json:"uploaded"`
	Failed   int           `json:"failed"`
	Elapsed  time.Duration `json:"elapsed"`
	Results  []UploadResult
}

// Client uploads assets to an Immich-compatible API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient builds an upload client from configuration. Returns ErrDisabled
// when the immich section is disabled or incomplete.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil || !cfg.Immich.Enabled {
		return nil, ErrDisabled
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Immich.BaseURL), "/")
	apiKey := strings.TrimSpace(cfg.Immich.APIKey)
	if baseURL == "" || apiKey == "" {
		return nil, ErrDisabled
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	timeout := time.Duration(cfg.Immich.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "immich"),
	}, nil
}

// UploadFile posts a single asset. The device asset identity derives from
// the path and mtime so retrying an unchanged file dedupes server side.
func (c *Client) UploadFile(ctx context.Context, path string) UploadResult {
	result := UploadResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	mtime := info.ModTime().UTC()
	fields := map[string]string{
		"deviceAssetId":  fmt.Sprintf("%s-%d", path, info.ModTime().Unix()),
		"deviceId":       "shoebox",
		"fileCreatedAt":  mtime.Format(time.RFC3339),
		"fileModifiedAt": mtime.Format(time.RFC3339),
		"isFavorite":     "false",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	part, err := writer.CreateFormFile("assetData", filepath.Base(path))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	file, err := os.Open(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if _, err := io.Copy(part, file); err != nil {
		file.Close()
		result.Error = err.Error()
		return result
	}
	file.Close()
	if err := writer.Close(); err != nil {
		result.Error = err.Error()
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assets", &body)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("server returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
		return result
	}

	var decoded struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(payload, &decoded)
	result.OK = true
	result.Status = decoded.Status
	return result
}

// UploadPath uploads a file, or every file in a directory. recursive walks
// subdirectories as well. Failures are per-file; the batch continues.
func (c *Client) UploadPath(ctx context.Context, path string, recursive bool) (Summary, error) {
	files, err := collectFiles(path, recursive)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(files)}
	start := time.Now()
	for _, file := range files {
		result := c.UploadFile(ctx, file)
		summary.Results = append(summary.Results, result)
		if result.OK {
			summary.Uploaded++
			c.logger.Info("asset uploaded",
				logging.String("path", file),
				logging.String("status", result.Status))
		} else {
			summary.Failed++
			c.logger.Warn("asset upload failed",
				logging.String("path", file),
				logging.String("error", result.Error))
		}
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

func collectFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("immich: stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("immich: walk %s: %w", path, err)
		}
		return files, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("immich: read dir %s: %w", path, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	return files, nil
}
