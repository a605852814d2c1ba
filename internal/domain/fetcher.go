package domain

import "context"

// Fetcher retrieves the full body of a remote resource.
type Fetcher interface {
	// Fetch returns the response body for url. Non-success responses and
	// network failures are reported as ErrTransport.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Downloader streams a remote resource to a local file.
type Downloader interface {
	// Download writes the body of url to dest and returns the byte count.
	// dest is only created once the whole body has been received.
	Download(ctx context.Context, url, dest string) (int64, error)
}
