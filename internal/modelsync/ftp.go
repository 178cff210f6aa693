package modelsync

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"
)

// FTPConfig locates a model artifact on an FTP server.
type FTPConfig struct {
	Host     string // host:port
	Path     string
	User     string
	Password string
	Timeout  time.Duration
}

type FTPFetcher struct {
	cfg FTPConfig
}

func NewFTPFetcher(cfg FTPConfig) *FTPFetcher {
	if cfg.User == "" {
		cfg.User = "anonymous"
		cfg.Password = "anonymous"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &FTPFetcher{cfg: cfg}
}

// Fetch downloads the artifact. Login and missing-file failures are
// permanent; connection failures may be retried.
func (f *FTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	conn, err := ftp.Dial(f.cfg.Host, ftp.DialWithTimeout(f.cfg.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login(f.cfg.User, f.cfg.Password); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("ftp login: %w", err))
	}

	resp, err := conn.Retr(f.cfg.Path)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("ftp retr %s: %w", f.cfg.Path, err))
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (f *FTPFetcher) String() string {
	return fmt.Sprintf("ftp://%s%s", f.cfg.Host, f.cfg.Path)
}
