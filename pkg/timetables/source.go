package timetables

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/rycus86/startpage-departures/pkg/client"
)

//go:embed inbound.txt
var bundledTimetable string

// Source supplies the raw two-row timetable text.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

type StaticSource struct {
	Text string
}

// BundledSource returns the timetable shipped with the binary.
func BundledSource() *StaticSource {
	return &StaticSource{Text: bundledTimetable}
}

func (s *StaticSource) Fetch(ctx context.Context) (string, error) {
	return s.Text, nil
}

type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	contents, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("reading timetable %s: %w", s.Path, err)
	}

	return string(contents), nil
}

type HTTPSource struct {
	client     client.Client
	url        string
	maxRetries uint64
}

func NewHTTPSource(cli client.Client, url string) *HTTPSource {
	return &HTTPSource{
		client:     cli,
		url:        url,
		maxRetries: 3,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	var contents []byte

	operation := func() error {
		body, err := s.client.FetchText(ctx, s.url)
		if err != nil {
			return err
		}

		contents = body
		return nil
	}

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = 500 * time.Millisecond
	retryBackoff.MaxElapsedTime = 30 * time.Second

	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(retryBackoff, s.maxRetries), ctx),
		func(err error, wait time.Duration) {
			log.Warn().Err(err).Str("url", s.url).Dur("retryIn", wait).Msg("Timetable download failed")
		},
	)
	if err != nil {
		return "", fmt.Errorf("fetching timetable from %s: %w", s.url, err)
	}

	return string(contents), nil
}
