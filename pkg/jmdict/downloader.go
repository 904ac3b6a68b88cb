package jmdict

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	repoOwner = "scriptin"
	repoName  = "jmdict-simplified"
)

// EnsureDictionary checks if the dictionary file exists at path. If not, it
// discovers the latest jmdict-simplified release on GitHub, downloads the
// English common dictionary, and decompresses it to path.
func EnsureDictionary(ctx context.Context, path string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	log.Info("dictionary not found, downloading", slog.String("path", path))

	downloadURL, err := latestReleaseAssetURL(ctx)
	if err != nil {
		return fmt.Errorf("find latest dictionary release: %w", err)
	}

	log.Info("downloading dictionary", slog.String("url", downloadURL))
	return downloadAndExtract(ctx, downloadURL, path)
}

func latestReleaseAssetURL(ctx context.Context) (string, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName)
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", err
	}
	// GitHub's API requires a User-Agent.
	req.Header.Set("User-Agent", "vocabdex-cli")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github api returned status: %s", resp.Status)
	}

	var release struct {
		Assets []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	// Pattern: jmdict-eng-common-*.json.tgz
	for _, asset := range release.Assets {
		if strings.Contains(asset.Name, "jmdict-eng-common") && (strings.HasSuffix(asset.Name, ".json.tgz") || strings.HasSuffix(asset.Name, ".json.gz")) {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("no suitable dictionary asset found in latest release")
}

func downloadAndExtract(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	gzReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar archive: %w", err)
		}
		if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
			outFile, err := os.Create(destPath)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer outFile.Close()
			if _, err := io.Copy(outFile, tarReader); err != nil {
				return fmt.Errorf("write dictionary file: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("no json file found in downloaded archive")
}
