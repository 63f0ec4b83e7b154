package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"github.com/dustin/go-humanize"
)

// downloadFile fetches url into dst and returns the saved file name
func downloadFile(ctx context.Context, url, dst string) (string, error) {
	client := grab.NewClient()
	req, err := grab.NewRequest(dst, url)
	if err != nil {
		return "", err
	}
	req = req.WithContext(ctx)

	fmt.Printf("Downloading %v...\n", req.URL())
	resp := client.Do(req)
	if resp.HTTPResponse != nil {
		fmt.Printf("  %v\n", resp.HTTPResponse.Status)
	}

	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()

Loop:
	for {
		select {
		case <-t.C:
			fmt.Printf("  transferred %v / %v (%.2f%%)\t\t\r",
				humanize.Bytes(uint64(resp.BytesComplete())),
				humanize.Bytes(uint64(resp.Size())),
				100*resp.Progress())

		case <-resp.Done:
			break Loop
		}
	}

	if err := resp.Err(); err != nil {
		return "", err
	}

	fmt.Printf("Download saved to %v\n", resp.Filename)
	return resp.Filename, nil
}

// verifyUpload downloads the object at url and checks it matches localPath in size
func verifyUpload(ctx context.Context, url, localPath string) error {
	dir, err := os.MkdirTemp("", "audiostash-verify-*")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Could not remove %s: %v\n", dir, err)
		}
	}()

	downloaded, err := downloadFile(ctx, url, dir)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	local, err := os.Stat(localPath)
	if err != nil {
		return err
	}
	remote, err := os.Stat(downloaded)
	if err != nil {
		return err
	}
	if local.Size() != remote.Size() {
		return fmt.Errorf("size mismatch: local %s, remote %s",
			humanize.Bytes(uint64(local.Size())), humanize.Bytes(uint64(remote.Size())))
	}
	return nil
}
