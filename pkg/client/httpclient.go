package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const userAgent = "startpage-departures (https://github.com/rycus86/startpage-departures)"

type HttpClient struct {
	client *http.Client

	mu          sync.Mutex
	cachedItems map[string]cachedItem
}

type cachedItem struct {
	lastModified string
	value        []byte
}

var (
	downloadCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_download_count",
		Help: "Number of times a timetable URL was downloaded (uncached)",
	}, []string{"url"})
	cachedCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_cached_count",
		Help: "Number of times a timetable URL returned a cached response",
	}, []string{"url"})
	errorCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_error_count",
		Help: "Number of times a timetable URL returned an error",
	}, []string{"url"})
)

func init() {
	prometheus.MustRegister(downloadCount, cachedCount, errorCount)
}

func (c *HttpClient) FetchText(ctx context.Context, url string) ([]byte, error) {
	if cached := c.getCachedItem(ctx, url); cached != nil {
		cachedCount.With(prometheus.Labels{"url": url}).Inc()
		return cached, nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retError(url, err)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return retError(url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return retError(url, fmt.Errorf("failed to fetch data from %s: HTTP %d", url, response.StatusCode))
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return retError(url, err)
	}

	if lastModified := response.Header.Get("Last-Modified"); lastModified != "" {
		c.mu.Lock()
		c.cachedItems[url] = cachedItem{
			lastModified: lastModified,
			value:        body,
		}
		c.mu.Unlock()
	}

	downloadCount.With(prometheus.Labels{"url": url}).Inc()
	log.Debug().Str("url", url).Int("bytes", len(body)).Msg("Downloaded timetable")

	return body, nil
}

func retError(url string, err error) ([]byte, error) {
	errorCount.With(prometheus.Labels{"url": url}).Inc()
	return nil, err
}

func (c *HttpClient) getCachedItem(ctx context.Context, url string) []byte {
	c.mu.Lock()
	cached, ok := c.cachedItems[url]
	c.mu.Unlock()

	if !ok {
		return nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return cached.value
	}

	response, err := c.client.Do(request)
	if err != nil {
		return cached.value // use the cached item if this has failed
	}
	response.Body.Close()

	if lastModified := response.Header.Get("Last-Modified"); lastModified == cached.lastModified {
		return cached.value
	}

	return nil
}

func NewHttpClient(apiKey string) Client {
	return &HttpClient{
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: newTransport(apiKey),
		},
		cachedItems: map[string]cachedItem{},
	}
}

type apiTransport struct {
	ApiKey    string
	UserAgent string
}

func (t *apiTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	request.Header.Set("User-Agent", t.UserAgent)

	if t.ApiKey != "" {
		request.Header.Set("Authorization", fmt.Sprintf("apikey %s", t.ApiKey))
	}

	return http.DefaultTransport.RoundTrip(request)
}

func newTransport(apiKey string) http.RoundTripper {
	return &apiTransport{
		ApiKey:    apiKey,
		UserAgent: userAgent,
	}
}
