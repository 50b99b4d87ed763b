package types

// Incident is a field report. Timestamps are epoch milliseconds.
type Incident struct {
	ID             string       `firestore:"id" json:"id"`
	UserID         string       `firestore:"userId,omitempty" json:"userId,omitempty"`
	Type           string       `firestore:"type" json:"type"`
	Severity       int          `firestore:"severity" json:"severity"`
	Latitude       float64      `firestore:"latitude" json:"latitude"`
	Longitude      float64      `firestore:"longitude" json:"longitude"`
	Timestamp      int64        `firestore:"timestamp" json:"timestamp"`
	SyncStatus     string       `firestore:"status" json:"status"`
	ActionStatus   ActionStatus `firestore:"actionStatus" json:"actionStatus"`
	Location       string       `firestore:"location,omitempty" json:"location,omitempty"`
	Description    string       `firestore:"description,omitempty" json:"description,omitempty"`
	CloudImageURLs []string     `firestore:"cloudImageUrls" json:"cloudImageUrls"`
	CreatedAtMs    int64        `firestore:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAtMs    int64        `firestore:"updated_at,omitempty" json:"updated_at,omitempty"`
}

func (i Incident) RecordID() string                { return i.ID }
func (i Incident) Coordinates() (float64, float64) { return i.Latitude, i.Longitude }
func (i Incident) CreatedAt() int64                { return i.Timestamp }
func (i Incident) Rank() int                       { return i.Severity }
func (i Incident) Progress() ActionStatus          { return NormalizeActionStatus(i.ActionStatus) }

// AidRequest asks HQ for supplies or help at a location.
type AidRequest struct {
	ID             string       `firestore:"id" json:"id"`
	UserID         string       `firestore:"userId,omitempty" json:"userId,omitempty"`
	AidTypes       []string     `firestore:"aid_types" json:"aid_types"`
	Description    string       `firestore:"description,omitempty" json:"description,omitempty"`
	PriorityLevel  int          `firestore:"priority_level" json:"priority_level"`
	Latitude       float64      `firestore:"latitude" json:"latitude"`
	Longitude      float64      `firestore:"longitude" json:"longitude"`
	SyncStatus     string       `firestore:"status" json:"status"`
	AidStatus      ActionStatus `firestore:"aidStatus" json:"aidStatus"`
	RequesterName  string       `firestore:"requester_name,omitempty" json:"requester_name,omitempty"`
	ContactNumber  string       `firestore:"contact_number,omitempty" json:"contact_number,omitempty"`
	NumberOfPeople int          `firestore:"number_of_people,omitempty" json:"number_of_people,omitempty"`
	CreatedAtMs    int64        `firestore:"created_at" json:"created_at"`
	UpdatedAtMs    int64        `firestore:"updated_at,omitempty" json:"updated_at,omitempty"`
}

func (a AidRequest) RecordID() string                { return a.ID }
func (a AidRequest) Coordinates() (float64, float64) { return a.Latitude, a.Longitude }
func (a AidRequest) CreatedAt() int64                { return a.CreatedAtMs }
func (a AidRequest) Rank() int                       { return a.PriorityLevel }
func (a AidRequest) Progress() ActionStatus          { return NormalizeActionStatus(a.AidStatus) }

// DetentionCamp is a shelter. Occupancy and status are edited independently;
// status is never derived from occupancy.
type DetentionCamp struct {
	ID               string     `firestore:"id" json:"id"`
	UserID           string     `firestore:"userId,omitempty" json:"userId,omitempty"`
	Name             string     `firestore:"name" json:"name"`
	Latitude         float64    `firestore:"latitude" json:"latitude"`
	Longitude        float64    `firestore:"longitude" json:"longitude"`
	Capacity         int        `firestore:"capacity" json:"capacity"`
	CurrentOccupancy int        `firestore:"current_occupancy" json:"current_occupancy"`
	Facilities       []string   `firestore:"facilities" json:"facilities"`
	CampStatus       CampStatus `firestore:"campStatus" json:"campStatus"`
	AdminApproved    bool       `firestore:"adminApproved" json:"adminApproved"`
	ContactPerson    string     `firestore:"contact_person,omitempty" json:"contact_person,omitempty"`
	ContactPhone     string     `firestore:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	Description      string     `firestore:"description,omitempty" json:"description,omitempty"`
	CreatedAtMs      int64      `firestore:"created_at" json:"created_at"`
	UpdatedAtMs      int64      `firestore:"updated_at" json:"updated_at"`
}

func (c DetentionCamp) RecordID() string                { return c.ID }
func (c DetentionCamp) Coordinates() (float64, float64) { return c.Latitude, c.Longitude }
func (c DetentionCamp) CreatedAt() int64                { return c.CreatedAtMs }

// OccupancyPercent rounds to the nearest whole percent; zero capacity reads as 0.
func (c DetentionCamp) OccupancyPercent() int {
	if c.Capacity <= 0 {
		return 0
	}
	return int(float64(c.CurrentOccupancy)*100/float64(c.Capacity) + 0.5)
}

// Volunteer is a registration awaiting or holding approval. Not geotagged.
type Volunteer struct {
	ID               string   `firestore:"id" json:"id"`
	UserID           string   `firestore:"userId,omitempty" json:"userId,omitempty"`
	UserEmail        string   `firestore:"user_email" json:"user_email"`
	FullName         string   `firestore:"full_name" json:"full_name"`
	PhoneNumber      string   `firestore:"phone_number" json:"phone_number"`
	Districts        []string `firestore:"district" json:"district"`
	Skills           []string `firestore:"skills" json:"skills"`
	Availability     []string `firestore:"availability" json:"availability"`
	PreferredTasks   []string `firestore:"preferred_tasks" json:"preferred_tasks"`
	EmergencyContact string   `firestore:"emergency_contact,omitempty" json:"emergency_contact,omitempty"`
	EmergencyPhone   string   `firestore:"emergency_phone,omitempty" json:"emergency_phone,omitempty"`
	Approved         bool     `firestore:"approved" json:"approved"`
	CreatedAtMs      int64    `firestore:"created_at" json:"created_at"`
	UpdatedAtMs      int64    `firestore:"updated_at" json:"updated_at"`
}
