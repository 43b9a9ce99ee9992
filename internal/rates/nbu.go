package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"fintrack/internal/core"
)

// DefaultNBUURL is the National Bank of Ukraine daily exchange rate endpoint.
// Every entry looks like {"r030":840,"txt":"...","rate":41.2,"cc":"USD","exchangedate":"01.03.2024"}.
const DefaultNBUURL = "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange?json"

const maxResponseBytes = 1 << 20

// NBUSource reads rates against UAH from the NBU JSON API.
type NBUSource struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewNBUSource creates a source for url. An empty url means DefaultNBUURL and
// a nil client means http.DefaultClient.
func NewNBUSource(url string, client *http.Client) *NBUSource {
	if url == "" {
		url = DefaultNBUURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &NBUSource{url: url, client: client, now: time.Now}
}

func (s *NBUSource) Fetch(ctx context.Context) (*core.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamStatus, resp.Status)
	}

	var doc any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}

	rates := make(map[core.Currency]float64)
	for _, c := range core.RateCurrencies() {
		r, err := extractRate(doc, c)
		if err != nil {
			return nil, err
		}
		rates[c] = r
	}
	return core.NewSnapshot(rates, s.now())
}

// extractRate finds the rate of the entry whose cc equals c.
func extractRate(doc any, c core.Currency) (float64, error) {
	path := fmt.Sprintf(`$[?(@.cc == %q)].rate`, string(c))
	jval, err := jsonpath.Get(path, doc)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMissingRate, c, err)
	}
	// a filter yields a list of matches; keep the first one
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return 0, fmt.Errorf("%w: %s", ErrMissingRate, c)
		}
		jval = jlist[0]
	}
	rate, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s: rate is not a number: %v", ErrMissingRate, c, jval)
	}
	return rate, nil
}
