package connector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"events-hub/internal/config"
	"events-hub/internal/domain"

	"github.com/emersion/go-ical"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// SourceGetInvolved is the source value written to every row this
// connector produces.
const SourceGetInvolved = "getinvolved"

// getInvolvedAPIResponse Campus Labs discovery API page. Results are
// wrapped under "value" with a totalItems count.
type getInvolvedAPIResponse struct {
	Value      []getInvolvedAPIEvent `json:"value"`
	TotalItems int                   `json:"totalItems"`
}

type getInvolvedAPIEvent struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	StartsOn         string   `json:"startsOn"`
	EndsOn           string   `json:"endsOn"`
	Location         string   `json:"location"`
	OrganizationName string   `json:"organizationName"`
	OrganizationID   int64    `json:"organizationId"`
	CategoryNames    []string `json:"categoryNames"`
	CategoryName     string   `json:"categoryName"`
}

// GetInvolved scrapes the Campus Labs getINVOLVED portal. It prefers the
// REST discovery API and falls back to the public iCal feed when the API
// refuses (403/429) or errors.
type GetInvolved struct {
	http      *resty.Client
	apiURL    string
	icalURL   string
	pageSize  int
	pageDelay time.Duration
	logger    *zap.Logger

	// now is swappable in tests (the endsAfter query param depends on it).
	now func() time.Time
}

func NewGetInvolved(cfg config.ScraperConfig, logger *zap.Logger) *GetInvolved {
	client := resty.New().
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", cfg.UserAgent)

	return &GetInvolved{
		http:      client,
		apiURL:    cfg.APIURL,
		icalURL:   cfg.ICalURL,
		pageSize:  cfg.PageSize,
		pageDelay: cfg.PageDelay,
		logger:    logger,
		now:       time.Now,
	}
}

var _ Connector = (*GetInvolved)(nil)

func (g *GetInvolved) Source() string { return SourceGetInvolved }

// Fetch collects upcoming events, reporting which path produced them.
func (g *GetInvolved) Fetch(ctx context.Context) ([]*domain.Event, string, error) {
	events, err := g.fetchViaAPI(ctx)
	if err == nil {
		g.logger.Info("getINVOLVED API fetch complete", zap.Int("events", len(events)))
		return events, ViaAPI, nil
	}
	g.logger.Warn("getINVOLVED API fetch failed, falling back to iCal", zap.Error(err))

	events, icalErr := g.fetchViaICal(ctx)
	if icalErr != nil {
		g.logger.Error("getINVOLVED iCal fallback failed", zap.Error(icalErr))
		return nil, ViaNone, fmt.Errorf("api fetch failed (%v); ical fallback failed: %w", err, icalErr)
	}
	g.logger.Info("getINVOLVED iCal fetch complete", zap.Int("events", len(events)))
	return events, ViaICal, nil
}

// fetchViaAPI pages through the discovery API with a polite delay between
// requests.
func (g *GetInvolved) fetchViaAPI(ctx context.Context) ([]*domain.Event, error) {
	today := g.now().UTC().Format("2006-01-02")

	var events []*domain.Event
	page := 0

	for {
		if page > 0 && g.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.pageDelay):
			}
		}

		skip := page * g.pageSize
		g.logger.Debug("getINVOLVED API page", zap.Int("page", page), zap.Int("skip", skip))

		var body getInvolvedAPIResponse
		resp, err := g.http.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			SetQueryParams(map[string]string{
				"endsAfter":        today,
				"orderByField":     "endsOn",
				"orderByDirection": "ascending",
				"status":           "Approved",
				"take":             strconv.Itoa(g.pageSize),
				"skip":             strconv.Itoa(skip),
			}).
			SetResult(&body).
			Get(g.apiURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch API page %d: %w", page, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("API page %d returned status %d", page, resp.StatusCode())
		}

		total := body.TotalItems
		if total == 0 {
			total = len(body.Value)
		}

		for i := range body.Value {
			if event, ok := g.normalizeAPIEvent(&body.Value[i]); ok {
				events = append(events, event)
			}
		}

		page++
		if len(events) >= total || len(body.Value) == 0 {
			break
		}
	}

	return events, nil
}

func (g *GetInvolved) normalizeAPIEvent(raw *getInvolvedAPIEvent) (*domain.Event, bool) {
	title := strings.TrimSpace(raw.Name)
	if title == "" {
		return nil, false
	}

	start, ok := parseEventTime(raw.StartsOn)
	if !ok {
		return nil, false
	}

	var end *time.Time
	if t, ok := parseEventTime(raw.EndsOn); ok {
		end = &t
	}

	location := strings.TrimSpace(raw.Location)

	// Organization name preferred; the numeric id is a last-resort label.
	org := strings.TrimSpace(raw.OrganizationName)
	if org == "" && raw.OrganizationID != 0 {
		org = strconv.FormatInt(raw.OrganizationID, 10)
	}

	categories := raw.CategoryNames
	if len(categories) == 0 && raw.CategoryName != "" {
		categories = []string{raw.CategoryName}
	}
	var nonEmpty []string
	for _, c := range categories {
		if c != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	category := strings.Join(nonEmpty, ", ")

	sourceURL := g.apiURL
	if raw.ID != 0 {
		sourceURL = "https://rutgers.campuslabs.com/engage/event/" + strconv.FormatInt(raw.ID, 10)
	}

	return &domain.Event{
		EventID:      MakeEventID(title, start, SourceGetInvolved),
		Source:       SourceGetInvolved,
		Title:        title,
		Description:  StripHTML(raw.Description),
		StartTime:    start,
		EndTime:      end,
		Location:     location,
		Campus:       InferCampus(location),
		Organization: org,
		Category:     category,
		SourceURL:    sourceURL,
	}, true
}

// fetchViaICal downloads and parses the public calendar feed.
func (g *GetInvolved) fetchViaICal(ctx context.Context) ([]*domain.Event, error) {
	g.logger.Info("Fetching getINVOLVED iCal feed", zap.String("url", g.icalURL))

	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader("Accept", "text/calendar").
		Get(g.icalURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch iCal feed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("iCal feed returned status %d", resp.StatusCode())
	}

	var events []*domain.Event
	dec := ical.NewDecoder(bytes.NewReader(resp.Body()))
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse iCal feed: %w", err)
		}
		for _, component := range cal.Events() {
			if event, ok := g.normalizeICalEvent(&component); ok {
				events = append(events, event)
			}
		}
	}

	return events, nil
}

func (g *GetInvolved) normalizeICalEvent(component *ical.Event) (*domain.Event, bool) {
	summary, err := component.Props.Text(ical.PropSummary)
	if err != nil {
		return nil, false
	}
	title := strings.TrimSpace(summary)
	if title == "" {
		return nil, false
	}

	start, err := component.DateTimeStart(time.UTC)
	if err != nil || start.IsZero() {
		return nil, false
	}
	start = start.UTC()

	var end *time.Time
	if t, err := component.DateTimeEnd(time.UTC); err == nil && !t.IsZero() {
		u := t.UTC()
		end = &u
	}

	location, _ := component.Props.Text(ical.PropLocation)
	location = strings.TrimSpace(location)

	description, _ := component.Props.Text(ical.PropDescription)

	url, _ := component.Props.Text(ical.PropURL)
	url = strings.TrimSpace(url)
	if url == "" {
		url = g.icalURL
	}

	// The feed carries a UID, but hashing keeps ids consistent with the
	// API path so the two never duplicate the same event.
	return &domain.Event{
		EventID:     MakeEventID(title, start, SourceGetInvolved),
		Source:      SourceGetInvolved,
		Title:       title,
		Description: StripHTML(strings.TrimSpace(description)),
		StartTime:   start,
		EndTime:     end,
		Location:    location,
		Campus:      InferCampus(location),
		SourceURL:   url,
	}, true
}

// parseEventTime accepts the timestamp shapes the API has been seen to
// return and normalizes to UTC.
func parseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
