package portal

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The portal returns loosely shaped JSON: any level may be null or missing
// and identifiers arrive as strings or numbers depending on the endpoint.
// Each response shape below is decoded into pointer-linked structs whose
// accessors are nil-safe and return the zero value when a level is absent.

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number, numeric string or null.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

// --- class listing ---

type classListResponse struct {
	Data *struct {
		Items      []*classListItem `json:"items"`
		Pagination *struct {
			IsLast *bool `json:"isLast"`
		} `json:"pagination"`
	} `json:"data"`
}

type classListItem struct {
	ClassID           flexString `json:"classId"`
	OccupiedSeats     flexInt    `json:"occupiedSeats"`
	PrimaryInstructor *struct {
		InstructorID   flexString `json:"instructorId"`
		InstructorName string     `json:"instructorName"`
	} `json:"primaryInstructor"`
}

func (r *classListResponse) items() []*classListItem {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Items
}

// isLast reports the pagination flag; ok is false when the metadata is missing.
func (r *classListResponse) isLast() (last, ok bool) {
	if r == nil || r.Data == nil || r.Data.Pagination == nil || r.Data.Pagination.IsLast == nil {
		return false, false
	}
	return *r.Data.Pagination.IsLast, true
}

func (i *classListItem) classID() string {
	if i == nil {
		return ""
	}
	return string(i.ClassID)
}

func (i *classListItem) occupiedSeats() int {
	if i == nil {
		return 0
	}
	return int(i.OccupiedSeats)
}

func (i *classListItem) instructorID() string {
	if i == nil || i.PrimaryInstructor == nil {
		return ""
	}
	return string(i.PrimaryInstructor.InstructorID)
}

func (i *classListItem) instructorName() string {
	if i == nil || i.PrimaryInstructor == nil {
		return ""
	}
	return strings.TrimSpace(i.PrimaryInstructor.InstructorName)
}

// --- class detail ---

type classDetailResponse struct {
	Data *struct {
		Class *struct {
			LocationDetails *struct {
				AddressDetails *addressDetails `json:"addressDetails"`
			} `json:"locationDetails"`
			ScheduleInfoDetails *struct {
				ClassStartDate flexInt `json:"classStartDate"`
			} `json:"scheduleInfoDetails"`
		} `json:"class"`
	} `json:"data"`
}

type addressDetails struct {
	StreetLine1 string `json:"streetLine1"`
	StreetLine2 string `json:"streetLine2"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
}

func (r *classDetailResponse) address() *addressDetails {
	if r == nil || r.Data == nil || r.Data.Class == nil || r.Data.Class.LocationDetails == nil {
		return nil
	}
	return r.Data.Class.LocationDetails.AddressDetails
}

// startMillis returns the class start as epoch milliseconds, 0 when absent.
func (r *classDetailResponse) startMillis() int64 {
	if r == nil || r.Data == nil || r.Data.Class == nil || r.Data.Class.ScheduleInfoDetails == nil {
		return 0
	}
	return int64(r.Data.Class.ScheduleInfoDetails.ClassStartDate)
}

// location joins the non-empty address components with ", ".
func (a *addressDetails) location() string {
	if a == nil {
		return ""
	}
	street := strings.TrimSpace(a.StreetLine1)
	if line2 := strings.TrimSpace(a.StreetLine2); line2 != "" {
		street = strings.TrimSpace(street + " " + line2)
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{street, a.City, a.State, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// --- roster ---

type rosterResponse struct {
	Data *struct {
		Students *struct {
			Items []*rosterItem `json:"items"`
		} `json:"students"`
	} `json:"data"`
}

type rosterItem struct {
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	EmailID     string     `json:"emailId"`
	PhoneNumber flexString `json:"phoneNumber"`
}

func (r *rosterResponse) items() []*rosterItem {
	if r == nil || r.Data == nil || r.Data.Students == nil {
		return nil
	}
	return r.Data.Students.Items
}

func (s *rosterItem) name() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
}

func (s *rosterItem) email() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.EmailID)
}

func (s *rosterItem) phone() string {
	if s == nil {
		return ""
	}
	return string(s.PhoneNumber)
}

// --- instructor alignment ---

type alignmentResponse struct {
	Data *struct {
		Items []*alignmentItem `json:"items"`
	} `json:"data"`
}

type alignmentItem struct {
	Email   string     `json:"email"`
	OrgType flexString `json:"orgType"`
	OrgCode flexString `json:"orgCode"`
}

func (r *alignmentResponse) items() []*alignmentItem {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Items
}

func (a *alignmentItem) email() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.Email)
}

// --- coordinator ---

type profileResponse struct {
	Data *struct {
		Items []*profileItem `json:"items"`
	} `json:"data"`
}

type profileItem struct {
	OrganisationProfile *struct {
		Coordinator *struct {
			Email string `json:"email"`
		} `json:"coordinator"`
	} `json:"organisationProfile"`
}

func (r *profileResponse) items() []*profileItem {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Items
}

func (p *profileItem) coordinatorEmail() string {
	if p == nil || p.OrganisationProfile == nil || p.OrganisationProfile.Coordinator == nil {
		return ""
	}
	return strings.TrimSpace(p.OrganisationProfile.Coordinator.Email)
}
