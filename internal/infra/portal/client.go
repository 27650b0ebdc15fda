// Package portal is the REST client for the training portal's API gateway.
// Every call is a single request with no retry; callers decide how a failed
// call degrades the cycle.
package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"enrollment_notifier/internal/domain/enrollment"

	"github.com/sendgrid/rest"
	"github.com/sirupsen/logrus"
)

var (
	// ErrPageFetch marks a class-listing page that could not be fetched or decoded.
	ErrPageFetch = errors.New("class page fetch failed")
	// ErrUnexpectedStatus is wrapped by StatusError.
	ErrUnexpectedStatus = errors.New("unexpected portal status")
	// ErrMissingPagination marks a listing page without an isLast flag.
	ErrMissingPagination = errors.New("class page has no pagination metadata")
)

// StatusError reports a non-200 response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d", ErrUnexpectedStatus, e.Endpoint, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Config holds the gateway coordinates and request policy.
type Config struct {
	ClassAPIURL string // .../classManagement/v2
	OrgAPIURL   string // .../orgManagement/v1
	Origin      string // interactive site URL, sent as origin/referer
	ParentID    int64
	ExtID       string
	TokenHeader string
	PageSize    int
	Location    *time.Location
	Timeout     time.Duration
}

const (
	instructorRoleID   = 17
	instructorRoleName = "INSTRUCTOR"
	lookupPageSize     = 10
	userAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
)

// Client implements the five portal read operations.
type Client struct {
	cfg    Config
	http   *rest.Client
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewClient builds a portal client. A nil Location defaults to UTC.
func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.TokenHeader == "" {
		cfg.TokenHeader = "x-jwt-token"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &rest.Client{HTTPClient: &http.Client{Timeout: cfg.Timeout}},
		logger: logger,
		now:    time.Now,
	}
}

// ListClasses fetches one listing page, dropping classes without occupied seats.
func (c *Client) ListClasses(ctx context.Context, token string, page int) (enrollment.ClassPage, error) {
	result := enrollment.ClassPage{Number: page}

	body, err := json.Marshal(map[string]any{"classFilters": c.classFilters(page)})
	if err != nil {
		return result, fmt.Errorf("%w: encode filters: %v", ErrPageFetch, err)
	}
	req := c.request(rest.Post, c.cfg.ClassAPIURL+"/getClasses", token, map[string]string{
		"size": strconv.Itoa(c.cfg.PageSize),
		"page": strconv.Itoa(page),
		"sort": "startDateTime,desc",
	})
	req.Body = body

	var resp classListResponse
	if err := c.do(ctx, "getClasses", req, &resp); err != nil {
		return result, fmt.Errorf("%w: page %d: %w", ErrPageFetch, page, err)
	}

	last, ok := resp.isLast()
	if !ok {
		return result, fmt.Errorf("%w: page %d: %w", ErrPageFetch, page, ErrMissingPagination)
	}
	result.IsLast = last
	for _, item := range resp.items() {
		if item.occupiedSeats() <= 0 || item.classID() == "" {
			continue
		}
		result.Classes = append(result.Classes, enrollment.ClassSummary{
			ClassID:        item.classID(),
			InstructorID:   item.instructorID(),
			InstructorName: item.instructorName(),
			OccupiedSeats:  item.occupiedSeats(),
		})
	}
	return result, nil
}

// GetClassDetail fetches and flattens the class schedule and address.
func (c *Client) GetClassDetail(ctx context.Context, token, classID string) (enrollment.ClassDetail, error) {
	req := c.request(rest.Get, c.cfg.ClassAPIURL+"/classes/"+url.PathEscape(classID), token, nil)

	var resp classDetailResponse
	if err := c.do(ctx, "classes/"+classID, req, &resp); err != nil {
		return enrollment.ClassDetail{}, err
	}

	detail := enrollment.ClassDetail{Location: resp.address().location()}
	if ms := resp.startMillis(); ms > 0 {
		detail.Date = FormatClassDate(time.UnixMilli(ms), c.cfg.Location)
	}
	return detail, nil
}

// GetRoster fetches enrolled, in-progress students of a class in a single
// page of the configured listing size.
func (c *Client) GetRoster(ctx context.Context, token, classID string) ([]enrollment.StudentContact, error) {
	req := c.request(rest.Get, c.cfg.ClassAPIURL+"/classes/"+url.PathEscape(classID)+"/students", token, map[string]string{
		"page":             "1",
		"sort":             "firstName,asc",
		"size":             strconv.Itoa(c.cfg.PageSize),
		"enrollmentStatus": "ENROLLED",
		"status":           "IN_PROGRESS",
	})

	var resp rosterResponse
	if err := c.do(ctx, "classes/"+classID+"/students", req, &resp); err != nil {
		return nil, err
	}

	items := resp.items()
	students := make([]enrollment.StudentContact, 0, len(items))
	for _, s := range items {
		if s == nil {
			continue
		}
		students = append(students, enrollment.StudentContact{Name: s.name(), Email: s.email(), Phone: s.phone()})
	}
	return students, nil
}

// GetInstructor looks up the instructor's alignment. It returns nil when no
// active alignment exposes an email. An empty ID would match every
// instructor under the parent organisation, so it is answered with nil
// without a request.
func (c *Client) GetInstructor(ctx context.Context, token, instructorID string) (*enrollment.Instructor, error) {
	instructorID = strings.TrimSpace(instructorID)
	if instructorID == "" {
		return nil, nil
	}
	req := c.request(rest.Get, c.cfg.OrgAPIURL+"/organisation/alignments", token, map[string]string{
		"page":                      "1",
		"nameOrEmailOrInstructorId": instructorID,
		"roleId":                    strconv.Itoa(instructorRoleID),
		"roleName":                  instructorRoleName,
		"parentId":                  strconv.FormatInt(c.cfg.ParentID, 10),
		"expiryStatus":              "ACTIVE",
		"sort":                      "lastName,asc",
		"size":                      strconv.Itoa(lookupPageSize),
	})

	var resp alignmentResponse
	if err := c.do(ctx, "organisation/alignments", req, &resp); err != nil {
		return nil, err
	}
	for _, item := range resp.items() {
		if email := item.email(); email != "" {
			return &enrollment.Instructor{Email: email, OrgType: string(item.OrgType), OrgCode: string(item.OrgCode)}, nil
		}
	}
	return nil, nil
}

// GetCoordinatorEmail resolves the training-site coordinator of an
// organisation. It returns "" when no profile carries a coordinator email.
func (c *Client) GetCoordinatorEmail(ctx context.Context, token, orgType, orgCode string) (string, error) {
	if orgType == "" || orgCode == "" {
		return "", nil
	}
	req := c.request(rest.Get, c.cfg.OrgAPIURL+"/organisation/profiles", token, map[string]string{
		"orgType": orgType,
		"orgCode": orgCode,
		"page":    "1",
		"size":    strconv.Itoa(lookupPageSize),
	})

	var resp profileResponse
	if err := c.do(ctx, "organisation/profiles", req, &resp); err != nil {
		return "", err
	}
	for _, item := range resp.items() {
		if email := item.coordinatorEmail(); email != "" {
			return email, nil
		}
	}
	return "", nil
}

func (c *Client) request(method rest.Method, endpoint, token string, query map[string]string) rest.Request {
	headers := map[string]string{
		"accept":          "application/json",
		"accept-language": "en-US,en;q=0.9",
		"content-type":    "application/json",
		"user-agent":      userAgent,
		c.cfg.TokenHeader: token,
	}
	if c.cfg.Origin != "" {
		headers["origin"] = c.cfg.Origin
		headers["referer"] = c.cfg.Origin
	}
	if c.cfg.ExtID != "" {
		headers["ext_id"] = c.cfg.ExtID
	}
	return rest.Request{
		Method:      method,
		BaseURL:     endpoint,
		Headers:     headers,
		QueryParams: query,
	}
}

func (c *Client) do(ctx context.Context, name string, req rest.Request, out any) error {
	start := time.Now()
	res, err := c.http.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("request %s: %w", name, err)
	}
	c.logger.WithFields(logrus.Fields{
		"endpoint": name,
		"status":   res.StatusCode,
		"elapsed":  time.Since(start).Round(time.Millisecond).String(),
	}).Debug("portal request completed")

	if res.StatusCode != http.StatusOK {
		return &StatusError{Endpoint: name, StatusCode: res.StatusCode, Body: truncate(res.Body, 512)}
	}
	if err := json.Unmarshal([]byte(res.Body), out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// classFilters is the listing request body: every class from today through
// Dec 31 of the current year in the portal's time zone.
func (c *Client) classFilters(page int) map[string]any {
	r := NewDateRange(c.now(), c.cfg.Location)
	return map[string]any{
		"isFirstTsSelected": true,
		"courseId":          nil,
		"disciplineCodes":   nil,
		"seatAvailability":  nil,
		"langCode":          nil,
		"location":          nil,
		"classStatus":       nil,
		"isPrivate":         nil,
		"applyFilter":       nil,
		"applyTsFilter":     nil,
		"page":              page,
		"pageNumber":        page,
		"parentId":          c.cfg.ParentID,
		"size":              c.cfg.PageSize,
		"instructorIds":     []string{},
		"classStartDate":    r.Start.UnixMilli(),
		"classEndDate":      r.End.UnixMilli(),
		"fromDate":          r.Start.Format(time.DateOnly),
		"toDate":            r.End.Format(time.DateOnly),
		"selectedSort":      "startDateTime",
		"sortOrder":         "desc",
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
