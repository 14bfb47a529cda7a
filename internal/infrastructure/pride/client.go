// Package pride implements the PRIDE Archive REST client used to fetch
// dataset metadata by ProteomeXchange accession.
package pride

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/hla-annotator/internal/config"
	"github.com/turtacn/hla-annotator/internal/domain/annotation"
	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/hla-annotator/pkg/errors"
)

// Public archive endpoints. The v3 API is preferred; v2 stays as the fallback
// because v3 availability has been spotty for older projects.
const (
	DefaultBaseURLV3 = "https://www.ebi.ac.uk/pride/ws/archive/v3"
	DefaultBaseURLV2 = "https://www.ebi.ac.uk/pride/ws/archive/v2"
)

var ErrProjectNotFound = errors.New(errors.ErrCodeNotFound, "project not found in archive")

// Client fetches project metadata from the PRIDE archive. Safe for concurrent
// use; the worker pool shares one instance.
type Client struct {
	httpClient *http.Client
	baseURLV3  string
	baseURLV2  string
	userAgent  string
	// delay is the politeness pause inserted after every archive request.
	delay  time.Duration
	logger logging.Logger
}

type Option func(*Client)

// WithBaseURLs overrides both endpoints; used by tests to point at a local
// server.
func WithBaseURLs(v3, v2 string) Option {
	return func(c *Client) {
		c.baseURLV3 = strings.TrimSuffix(v3, "/")
		c.baseURLV2 = strings.TrimSuffix(v2, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds an archive client from the fetch configuration.
func NewClient(cfg config.FetchConfig, log logging.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURLV3:  DefaultBaseURLV3,
		baseURLV2:  DefaultBaseURLV2,
		userAgent:  cfg.UserAgent,
		delay:      cfg.Delay,
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Supported reports whether the accession belongs to a source this client can
// fetch. Only ProteomeXchange (PXD) accessions resolve through PRIDE;
// everything else must be served from prior annotations.
func Supported(accession string) bool {
	return strings.HasPrefix(accession, "PXD")
}

// cvParam is the archive's ontology-term shape; only the human-readable name
// matters for classification.
type cvParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// projectResponse covers the metadata fields shared by the v2 and v3 project
// endpoints. Unknown fields are ignored.
type projectResponse struct {
	Accession            string    `json:"accession"`
	Title                string    `json:"title"`
	ProjectDescription   string    `json:"projectDescription"`
	Keywords             []string  `json:"keywords"`
	SampleProcessing     string    `json:"sampleProcessingProtocol"`
	DataProcessing       string    `json:"dataProcessingProtocol"`
	Organisms            []cvParam `json:"organisms"`
	OrganismParts        []cvParam `json:"organismParts"`
	Diseases             []cvParam `json:"diseases"`
	AdditionalAttributes []cvParam `json:"additionalAttributes"`
}

func (p *projectResponse) toRecord(accession string) *annotation.Record {
	rec := &annotation.Record{
		Accession:   accession,
		Title:       p.Title,
		Description: p.ProjectDescription,
		Keywords:    p.Keywords,
	}
	for _, attr := range p.AdditionalAttributes {
		rec.Attributes = append(rec.Attributes, annotation.Attribute{Key: attr.Name, Value: attr.Value})
	}
	// Protocol text and sample ontology terms carry most of the HLA and
	// disease signal for sparsely described projects.
	for _, s := range []string{p.SampleProcessing, p.DataProcessing} {
		if s != "" {
			rec.SampleAttributes = append(rec.SampleAttributes, s)
		}
	}
	for _, group := range [][]cvParam{p.Organisms, p.OrganismParts, p.Diseases} {
		for _, term := range group {
			if term.Name != "" {
				rec.SampleAttributes = append(rec.SampleAttributes, term.Name)
			}
		}
	}
	return rec
}

// FetchProject retrieves metadata for one accession, trying v3 first and
// falling back to v2 when v3 yields anything but a usable project. The
// politeness delay is applied once per FetchProject call, after the last
// request it made.
func (c *Client) FetchProject(ctx context.Context, accession string) (*annotation.Record, error) {
	if !Supported(accession) {
		return nil, errors.Newf(errors.ErrCodeAccessionUnsupported,
			"accession %s is not a ProteomeXchange identifier", accession)
	}
	defer c.pause(ctx)

	rec, errV3 := c.fetchFrom(ctx, c.baseURLV3, accession)
	if errV3 == nil {
		return rec, nil
	}
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "fetch canceled")
	}

	c.logger.Debug("v3 fetch failed, falling back to v2",
		logging.String("accession", accession),
		logging.Err(errV3),
	)

	rec, errV2 := c.fetchFrom(ctx, c.baseURLV2, accession)
	if errV2 == nil {
		return rec, nil
	}
	if errors.IsCode(errV3, errors.ErrCodeNotFound) && errors.IsCode(errV2, errors.ErrCodeNotFound) {
		return nil, ErrProjectNotFound
	}
	return nil, errors.Wrap(errV2, errors.ErrCodeFetchFailed,
		fmt.Sprintf("both archive endpoints failed for %s", accession))
}

func (c *Client) fetchFrom(ctx context.Context, baseURL, accession string) (*annotation.Record, error) {
	url := baseURL + "/projects/" + accession
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFetchFailed, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFetchFailed, "archive request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrProjectNotFound
	default:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, errors.Newf(errors.ErrCodeFetchFailed, "archive returned HTTP %d for %s", resp.StatusCode, accession)
	}

	var project projectResponse
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode project response")
	}
	if project.Title == "" && project.ProjectDescription == "" {
		// Some v3 responses are empty shells; treat them as missing so the
		// v2 fallback gets a chance.
		return nil, ErrProjectNotFound
	}
	return project.toRecord(accession), nil
}

func (c *Client) pause(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
	}
}
