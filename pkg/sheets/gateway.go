package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/klokku/expensesheets/pkg/google"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	rawInput            = "RAW"
	rateLimitAttempts   = 3
)

type ClientProvider interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// GoogleGateway talks to Google Sheets and Drive with the user's delegated credential.
type GoogleGateway struct {
	clients    ClientProvider
	options    []option.ClientOption
	retryDelay time.Duration
}

// NewGoogleGateway builds a gateway. Extra options are appended to every service,
// which lets tests point the clients at a local endpoint.
func NewGoogleGateway(clients ClientProvider, opts ...option.ClientOption) *GoogleGateway {
	return &GoogleGateway{
		clients:    clients,
		options:    opts,
		retryDelay: 2 * time.Second,
	}
}

func (g *GoogleGateway) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	client, err := g.clients.HTTPClient(ctx)
	if errors.Is(err, google.ErrUnauthenticated) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("unable to prepare Google client: %w", err)
	}
	return append([]option.ClientOption{option.WithHTTPClient(client)}, g.options...), nil
}

func (g *GoogleGateway) sheetsService(ctx context.Context) (*gsheets.Service, error) {
	opts, err := g.clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	return gsheets.NewService(ctx, opts...)
}

func (g *GoogleGateway) ReadRange(ctx context.Context, storeId string, rangeSpec string) (Grid, error) {
	if storeId == "" || rangeSpec == "" {
		return nil, ErrValidation
	}
	service, err := g.sheetsService(ctx)
	if err != nil {
		return nil, err
	}

	var response *gsheets.ValueRange
	err = g.call(func() error {
		response, err = service.Spreadsheets.Values.Get(storeId, rangeSpec).Context(ctx).Do()
		return err
	})
	if err != nil {
		log.Errorf("reading %s from %s failed: %v", rangeSpec, storeId, err)
		return nil, err
	}
	return toGrid(response.Values), nil
}

func (g *GoogleGateway) AppendRows(ctx context.Context, storeId string, rangeSpec string, rows Grid) (AppendResult, error) {
	if storeId == "" || rangeSpec == "" || len(rows) == 0 {
		return AppendResult{}, ErrValidation
	}
	service, err := g.sheetsService(ctx)
	if err != nil {
		return AppendResult{}, err
	}

	values := &gsheets.ValueRange{Values: toValues(rows)}
	var response *gsheets.AppendValuesResponse
	err = g.call(func() error {
		response, err = service.Spreadsheets.Values.Append(storeId, rangeSpec, values).
			ValueInputOption(rawInput).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		log.Errorf("appending %d rows to %s failed: %v", len(rows), storeId, err)
		return AppendResult{}, err
	}

	result := AppendResult{}
	if response.Updates != nil {
		result.UpdatedRange = response.Updates.UpdatedRange
		result.UpdatedRows = response.Updates.UpdatedRows
	}
	return result, nil
}

func (g *GoogleGateway) CreateStore(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = DefaultStoreName
	}
	opts, err := g.clientOptions(ctx)
	if err != nil {
		return "", err
	}
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", err
	}

	var file *drive.File
	err = g.call(func() error {
		file, err = service.Files.Create(&drive.File{Name: name, MimeType: spreadsheetMimeType}).
			Fields("id").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		log.Errorf("creating spreadsheet %q failed: %v", name, err)
		return "", err
	}
	log.Debugf("Created spreadsheet %s (%s)", file.Id, name)
	return file.Id, nil
}

// call runs a provider request, retrying rate-limited attempts, and maps the final
// failure onto the gateway errors.
func (g *GoogleGateway) call(request func() error) error {
	err := retry.Do(
		request,
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				log.Warnf("rate limited by spreadsheet provider, will retry: %v", err)
				return true
			}
			return false
		}),
		retry.Attempts(rateLimitAttempts),
		retry.Delay(g.retryDelay),
		retry.LastErrorOnly(true),
	)
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return &RemoteError{Status: http.StatusInternalServerError, Message: err.Error()}
	}
	switch apiErr.Code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidRange, apiErr.Message)
	}
	message := apiErr.Message
	if message == "" {
		message = apiErr.Error()
	}
	return &RemoteError{Status: apiErr.Code, Message: message}
}

func toGrid(values [][]interface{}) Grid {
	grid := make(Grid, 0, len(values))
	for _, row := range values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		grid = append(grid, cells)
	}
	return grid
}

func toValues(grid Grid) [][]interface{} {
	values := make([][]interface{}, 0, len(grid))
	for _, row := range grid {
		cells := make([]interface{}, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		values = append(values, cells)
	}
	return values
}
