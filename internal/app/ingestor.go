package app

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"enrollment_notifier/internal/domain/enrollment"

	"github.com/sirupsen/logrus"
)

// PortalClient is the subset of the portal API the ingestor reads.
type PortalClient interface {
	ListClasses(ctx context.Context, token string, page int) (enrollment.ClassPage, error)
	GetClassDetail(ctx context.Context, token, classID string) (enrollment.ClassDetail, error)
	GetRoster(ctx context.Context, token, classID string) ([]enrollment.StudentContact, error)
	GetInstructor(ctx context.Context, token, instructorID string) (*enrollment.Instructor, error)
	GetCoordinatorEmail(ctx context.Context, token, orgType, orgCode string) (string, error)
}

// Dispatcher hands one aggregated class to delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, n enrollment.Notification) (Outcome, error)
}

// IngestStats counts what one ingestion pass did.
type IngestStats struct {
	Pages      int
	Seen       int
	Skipped    int // already notified, or the store could not be read
	Dispatched int
	Deferred   int // missing instructor or incomplete class data
	Failed     int // dispatcher errors
}

// maxPagesPerCycle bounds one pass even if the portal never reports a last page.
const maxPagesPerCycle = 500

// ClassIngestor pages through the class listing and feeds new classes to the dispatcher.
type ClassIngestor struct {
	portal     PortalClient
	notified   enrollment.NotifiedRepository
	dispatcher Dispatcher
	delayMin   time.Duration
	delayMax   time.Duration
	maxPages   int
	logger     logrus.FieldLogger
	pause      func(ctx context.Context, d time.Duration)
}

func NewClassIngestor(
	portal PortalClient,
	notified enrollment.NotifiedRepository,
	dispatcher Dispatcher,
	delayMin, delayMax time.Duration,
	logger logrus.FieldLogger,
) *ClassIngestor {
	if delayMax < delayMin {
		delayMax = delayMin
	}
	return &ClassIngestor{
		portal:     portal,
		notified:   notified,
		dispatcher: dispatcher,
		delayMin:   delayMin,
		delayMax:   delayMax,
		maxPages:   maxPagesPerCycle,
		logger:     logger,
		pause:      sleepCtx,
	}
}

// Run processes pages 0, 1, ... until the portal reports the last page, a
// page cannot be fetched, or ctx is cancelled. Page failures end the pass
// without an error; the next cycle starts over from page 0.
func (i *ClassIngestor) Run(ctx context.Context, token string) (IngestStats, error) {
	var stats IngestStats

	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if page >= i.maxPages {
			i.logger.WithField("pages", page).Warn("Page limit reached without a last page, stopping")
			return stats, nil
		}

		result, err := i.portal.ListClasses(ctx, token, page)
		if err != nil {
			i.logger.WithError(err).WithField("page", page).Error("Failed to fetch class page, stopping")
			return stats, nil
		}
		stats.Pages++
		i.logger.WithFields(logrus.Fields{
			"page":    page,
			"classes": len(result.Classes),
			"is_last": result.IsLast,
		}).Info("Fetched class page")

		for _, summary := range result.Classes {
			stats.Seen++
			i.process(ctx, token, summary, &stats)
		}

		if result.IsLast {
			return stats, nil
		}
		i.pause(ctx, i.courtesyDelay())
	}
}

func (i *ClassIngestor) process(ctx context.Context, token string, summary enrollment.ClassSummary, stats *IngestStats) {
	log := i.logger.WithField("class_id", summary.ClassID)

	done, err := i.notified.Contains(ctx, summary.ClassID)
	if err != nil {
		log.WithError(err).Error("Failed to check notified store, skipping class")
		stats.Skipped++
		return
	}
	if done {
		log.Debug("Skipping already processed class")
		stats.Skipped++
		return
	}

	var instructor *enrollment.Instructor
	if strings.TrimSpace(summary.InstructorID) != "" {
		instructor, err = i.portal.GetInstructor(ctx, token, summary.InstructorID)
		if err != nil {
			log.WithError(err).Warn("Instructor lookup failed")
		}
	}
	if instructor == nil {
		log.WithField("instructor_id", summary.InstructorID).Info("No email found for instructor")
		stats.Deferred++
		return
	}

	detail, err := i.portal.GetClassDetail(ctx, token, summary.ClassID)
	if err != nil {
		log.WithError(err).Warn("Class detail lookup failed")
		detail = enrollment.ClassDetail{}
	}
	roster, err := i.portal.GetRoster(ctx, token, summary.ClassID)
	if err != nil {
		log.WithError(err).Warn("Roster lookup failed")
		roster = nil
	}
	coordinator, err := i.portal.GetCoordinatorEmail(ctx, token, instructor.OrgType, instructor.OrgCode)
	if err != nil {
		log.WithError(err).Warn("Coordinator lookup failed")
		coordinator = ""
	}

	outcome, err := i.dispatcher.Dispatch(ctx, enrollment.Notification{
		ClassID:          summary.ClassID,
		InstructorName:   summary.InstructorName,
		InstructorEmail:  instructor.Email,
		CoordinatorEmail: coordinator,
		Detail:           detail,
		Students:         roster,
	})
	if err != nil {
		log.WithError(err).Error("Failed to dispatch notification")
		stats.Failed++
		return
	}
	if outcome == OutcomeDeferred {
		stats.Deferred++
		return
	}
	stats.Dispatched++
}

func (i *ClassIngestor) courtesyDelay() time.Duration {
	spread := i.delayMax - i.delayMin
	if spread <= 0 {
		return i.delayMin
	}
	return i.delayMin + time.Duration(rand.Int63n(int64(spread+1)))
}
