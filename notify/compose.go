package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lankasafe-hq/districts"
	"lankasafe-hq/types"
)

const dateLayout = "Jan 2, 2006, 3:04 PM"

var ErrUnsupportedRecord = errors.New("record type cannot be routed")

// Message is one officer alert, ready for a relay.
type Message struct {
	To       string
	Subject  string
	Body     string
	District string
	RecordID string
}

// OfficerAddress is the district officer's mailbox: the district name lower-cased
// with whitespace removed, at domain. Unknown has no officer.
func OfficerAddress(district, domain string) string {
	if district == "" || district == districts.Unknown {
		return ""
	}
	local := strings.Join(strings.Fields(strings.ToLower(district)), "")
	return local + "@" + domain
}

// MailtoURI builds a mailto link with subject and body percent-encoded.
func MailtoURI(to, subject, body string) string {
	return "mailto:" + to + "?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(body)
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Compose renders the subject and body for a routed record.
func Compose(record any, district string, loc *time.Location) (subject, body string, err error) {
	if loc == nil {
		loc = time.UTC
	}
	switch r := record.(type) {
	case types.Incident:
		subject, body = composeIncident(r, district, loc)
	case *types.Incident:
		subject, body = composeIncident(*r, district, loc)
	case types.AidRequest:
		subject, body = composeAidRequest(r, district, loc)
	case *types.AidRequest:
		subject, body = composeAidRequest(*r, district, loc)
	default:
		return "", "", fmt.Errorf("%w: %T", ErrUnsupportedRecord, record)
	}
	return subject, body, nil
}

func mapsURL(lat, lng float64) string {
	return "https://www.google.com/maps?q=" + strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

func fixed6(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func reportedAt(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(dateLayout)
}

func writeLocation(b *strings.Builder, lat, lng float64) {
	b.WriteString("LOCATION:\n---------\n")
	fmt.Fprintf(b, "Coordinates: %s, %s\n", fixed6(lat), fixed6(lng))
	fmt.Fprintf(b, "Google Maps: %s\n\n", mapsURL(lat, lng))
}

func writeFooter(b *strings.Builder) {
	b.WriteString("\n---\nThis is an automated alert from LankaSafe HQ\nEmergency Response System")
}

func composeIncident(i types.Incident, district string, loc *time.Location) (string, string) {
	label := types.IncidentAlertLabel(i.Severity)
	subject := fmt.Sprintf("[%s] %s Incident in %s District", label, i.Type, district)

	var b strings.Builder
	b.WriteString("Dear District Officer,\n\n")
	b.WriteString("An incident has been reported in your district that requires immediate attention.\n\n")
	b.WriteString("INCIDENT DETAILS:\n-----------------\n")
	fmt.Fprintf(&b, "Type: %s\n", i.Type)
	fmt.Fprintf(&b, "Severity: %s (%d/5)\n", label, i.Severity)
	fmt.Fprintf(&b, "District: %s\n", district)
	fmt.Fprintf(&b, "Reported At: %s\n", reportedAt(i.Timestamp, loc))
	if i.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", i.Location)
	}
	if i.Description != "" {
		fmt.Fprintf(&b, "\nDescription:\n%s\n", i.Description)
	}
	b.WriteString("\n")
	writeLocation(&b, i.Latitude, i.Longitude)
	fmt.Fprintf(&b, "INCIDENT ID: %s\n\n", i.ID)
	b.WriteString("Please take necessary action and update the incident status in the LankaSafe HQ Dashboard.\n")
	if n := len(i.CloudImageURLs); n > 0 {
		fmt.Fprintf(&b, "\nImages Available: %d photo(s) attached to this incident\n", n)
	}
	writeFooter(&b)
	return subject, b.String()
}

func composeAidRequest(a types.AidRequest, district string, loc *time.Location) (string, string) {
	label := types.AidAlertLabel(a.PriorityLevel)
	subject := fmt.Sprintf("[%s PRIORITY] Aid Request in %s District", label, district)

	var b strings.Builder
	b.WriteString("Dear District Officer,\n\n")
	b.WriteString("An aid request has been submitted in your district that requires assistance.\n\n")
	b.WriteString("AID REQUEST DETAILS:\n-------------------\n")
	fmt.Fprintf(&b, "Priority: %s (%d/5)\n", label, a.PriorityLevel)
	fmt.Fprintf(&b, "District: %s\n", district)
	fmt.Fprintf(&b, "Requested At: %s\n\n", reportedAt(a.CreatedAtMs, loc))
	b.WriteString("Required Aid:\n")
	for _, t := range a.AidTypes {
		fmt.Fprintf(&b, "• %s\n", t)
	}
	if a.Description != "" {
		fmt.Fprintf(&b, "\nAdditional Information:\n%s\n", a.Description)
	}
	if a.RequesterName != "" || a.ContactNumber != "" {
		b.WriteString("\nCONTACT INFORMATION:\n-------------------\n")
		if a.RequesterName != "" {
			fmt.Fprintf(&b, "Contact Person: %s\n", a.RequesterName)
		}
		if a.ContactNumber != "" {
			fmt.Fprintf(&b, "Phone: %s\n", a.ContactNumber)
		}
		if a.NumberOfPeople > 0 {
			fmt.Fprintf(&b, "Number of People: %d\n", a.NumberOfPeople)
		}
	}
	b.WriteString("\n")
	writeLocation(&b, a.Latitude, a.Longitude)
	fmt.Fprintf(&b, "REQUEST ID: %s\n\n", a.ID)
	b.WriteString("Please coordinate with the requesting party and provide necessary assistance.\n")
	writeFooter(&b)
	return subject, b.String()
}
