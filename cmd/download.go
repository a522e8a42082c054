package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var downloadDir string

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the configured dataset files from download.base_url",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("download"); err != nil {
			return err
		}
		dir := downloadDir
		if dir == "" {
			dir = cfg.Data.Dir
		}
		d := downloader{
			client:  http.DefaultClient,
			baseURL: cfg.Download.BaseURL,
			dir:     dir,
			limiter: rate.NewLimiter(rate.Limit(cfg.Download.RatePerSec), 1),
		}
		downloaded, skipped, err := d.run(cmd.Context(), cfg.Data.Files())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Done: %d downloaded, %d skipped\n", downloaded, skipped)
		return nil
	},
}

// downloader fetches dataset files into dir, one request at a time within
// the limiter's rate. Files already present are skipped.
type downloader struct {
	client  *http.Client
	baseURL string
	dir     string
	limiter *rate.Limiter
}

func (d downloader) run(ctx context.Context, files []string) (downloaded, skipped int, err error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return 0, 0, eris.Wrap(err, "download: create output directory")
	}
	base, err := url.Parse(d.baseURL)
	if err != nil {
		return 0, 0, eris.Wrap(err, "download: parse base url")
	}

	var failed int
	for _, name := range files {
		outPath := filepath.Join(d.dir, filepath.Base(name))
		if _, err := os.Stat(outPath); err == nil {
			zap.L().Info("skip existing file", zap.String("path", outPath))
			skipped++
			continue
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return downloaded, skipped, eris.Wrap(err, "download: rate limit")
		}

		ref, err := url.Parse(filepath.ToSlash(name))
		if err != nil {
			return downloaded, skipped, eris.Wrapf(err, "download: parse %s", name)
		}
		fullURL := base.ResolveReference(ref).String()
		zap.L().Info("downloading", zap.String("url", fullURL), zap.String("path", outPath))
		if err := d.fetch(ctx, fullURL, outPath); err != nil {
			zap.L().Error("download failed", zap.String("url", fullURL), zap.Error(err))
			failed++
			continue
		}
		downloaded++
	}
	if failed > 0 {
		return downloaded, skipped, eris.Errorf("download: %d files failed", failed)
	}
	return downloaded, skipped, nil
}

func (d downloader) fetch(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("status %d", resp.StatusCode)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return eris.Wrap(err, "write file")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return eris.Wrap(err, "close file")
	}
	return os.Rename(tmp, dest)
}

func init() {
	downloadCmd.Flags().StringVar(&downloadDir, "dir", "", "output directory (default data.dir)")
	rootCmd.AddCommand(downloadCmd)
}
