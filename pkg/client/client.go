package client

import "context"

type Client interface {
	FetchText(ctx context.Context, url string) ([]byte, error)
}
