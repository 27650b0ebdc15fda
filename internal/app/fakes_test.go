package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"enrollment_notifier/internal/domain/browser"
	"enrollment_notifier/internal/domain/enrollment"
)

// fakeDriver answers WaitVisible from per-locator scripts; the last answer repeats.
type fakeDriver struct {
	visible     map[string][]bool
	navigateErr error
	evalResult  string
	evalErr     error
	actions     []string
	closed      int
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.actions = append(d.actions, "navigate "+url)
	return d.navigateErr
}

func (d *fakeDriver) WaitVisible(_ context.Context, loc browser.Locator, _ time.Duration) bool {
	script := d.visible[loc.Value]
	if len(script) == 0 {
		return false
	}
	v := script[0]
	if len(script) > 1 {
		d.visible[loc.Value] = script[1:]
	}
	return v
}

func (d *fakeDriver) Click(_ context.Context, loc browser.Locator) error {
	d.actions = append(d.actions, "click "+loc.Value)
	return nil
}

func (d *fakeDriver) Type(_ context.Context, loc browser.Locator, text string) error {
	d.actions = append(d.actions, fmt.Sprintf("type %s %s", loc.Value, text))
	return nil
}

func (d *fakeDriver) Hover(_ context.Context, loc browser.Locator) error {
	d.actions = append(d.actions, "hover "+loc.Value)
	return nil
}

func (d *fakeDriver) EvalString(_ context.Context, js string) (string, error) {
	d.actions = append(d.actions, "eval "+js)
	return d.evalResult, d.evalErr
}

func (d *fakeDriver) Close() error {
	d.closed++
	return nil
}

func (d *fakeDriver) did(prefix string) bool {
	for _, a := range d.actions {
		if strings.HasPrefix(a, prefix) {
			return true
		}
	}
	return false
}

type fakeOpener struct {
	driver *fakeDriver
	err    error
}

func (o *fakeOpener) Open(context.Context) (browser.Driver, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.driver, nil
}

// memoryStore is an in-memory NotifiedRepository.
type memoryStore struct {
	mu       sync.Mutex
	ids      map[string]int // id -> number of Add calls
	addErr   error
	checkErr error
}

func newMemoryStore(ids ...string) *memoryStore {
	s := &memoryStore{ids: map[string]int{}}
	for _, id := range ids {
		s.ids[id] = 1
	}
	return s
}

func (s *memoryStore) Contains(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkErr != nil {
		return false, s.checkErr
	}
	_, ok := s.ids[id]
	return ok, nil
}

func (s *memoryStore) Add(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	s.ids[id]++
	return nil
}

func (s *memoryStore) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// fakePortal serves a fixed set of pages and per-class lookups.
type fakePortal struct {
	pages       []enrollment.ClassPage
	pageErr     map[int]error
	details     map[string]enrollment.ClassDetail
	detailErr   error
	rosters     map[string][]enrollment.StudentContact
	instructors map[string]*enrollment.Instructor
	coordinator map[string]string // orgCode -> email
	coordErr    error

	listCalls  []int
	classCalls map[string]int
}

func (p *fakePortal) track(classID string) {
	if p.classCalls == nil {
		p.classCalls = map[string]int{}
	}
	p.classCalls[classID]++
}

func (p *fakePortal) ListClasses(_ context.Context, _ string, page int) (enrollment.ClassPage, error) {
	p.listCalls = append(p.listCalls, page)
	if err := p.pageErr[page]; err != nil {
		return enrollment.ClassPage{}, err
	}
	if page >= len(p.pages) {
		return enrollment.ClassPage{Number: page, IsLast: true}, nil
	}
	return p.pages[page], nil
}

func (p *fakePortal) GetClassDetail(_ context.Context, _ string, classID string) (enrollment.ClassDetail, error) {
	p.track(classID)
	if p.detailErr != nil {
		return enrollment.ClassDetail{}, p.detailErr
	}
	return p.details[classID], nil
}

func (p *fakePortal) GetRoster(_ context.Context, _ string, classID string) ([]enrollment.StudentContact, error) {
	p.track(classID)
	return p.rosters[classID], nil
}

func (p *fakePortal) GetInstructor(_ context.Context, _ string, instructorID string) (*enrollment.Instructor, error) {
	return p.instructors[instructorID], nil
}

func (p *fakePortal) GetCoordinatorEmail(_ context.Context, _ string, _ string, orgCode string) (string, error) {
	if p.coordErr != nil {
		return "", p.coordErr
	}
	return p.coordinator[orgCode], nil
}

type sentMail struct {
	to   string
	name string
	body string
}

type fakeSender struct {
	mu   sync.Mutex
	fail map[string]bool
	sent []sentMail
}

func (s *fakeSender) Send(_ context.Context, to, name, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[to] {
		return errors.New("provider rejected " + to)
	}
	s.sent = append(s.sent, sentMail{to: to, name: name, body: body})
	return nil
}

func (s *fakeSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, m := range s.sent {
		out = append(out, m.to)
	}
	return out
}

type stubRenderer struct {
	calls int
	err   error
}

func (r *stubRenderer) Render(n enrollment.Notification) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return fmt.Sprintf("<p>%s: %d students</p>", n.ClassID, len(n.Students)), nil
}

func noPause(context.Context, time.Duration) {}
