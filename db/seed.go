package db

import (
	"fmt"
	"time"
)

// Seed fills a MemoryStore with a small demo data set around now.
func Seed(m *MemoryStore, now time.Time) {
	ago := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }

	incidents := []map[string]any{
		{"type": "Flood", "severity": int64(5), "latitude": 6.9271, "longitude": 79.8612, "timestamp": ago(20 * time.Minute),
			"description": "Water rising fast near the canal", "cloudImageUrls": `["https://example.org/flood1.jpg"]`},
		{"type": "Trapped Civilians", "severity": int64(5), "latitude": 7.2906, "longitude": 80.6337, "timestamp": ago(2 * time.Hour),
			"actionStatus": "taking action", "description": "Landslide on the hill road\nPeople trapped: 6"},
		{"type": "Road Block", "severity": int64(3), "latitude": 6.0535, "longitude": 80.2210, "timestamp": ago(5 * time.Hour),
			"description": "Fallen trees across the highway"},
		{"type": "Landslide", "severity": int64(4), "latitude": 6.6828, "longitude": 80.3992, "timestamp": ago(26 * time.Hour),
			"actionStatus": "completed"},
		{"type": "Power Outage", "severity": int64(2), "latitude": 9.6615, "longitude": 80.0255, "timestamp": ago(3 * 24 * time.Hour)},
		{"type": "Flood", "severity": int64(1), "latitude": 5.2, "longitude": 80.0, "timestamp": ago(4 * 24 * time.Hour),
			"description": "Reported offshore"},
	}
	for i, data := range incidents {
		id := fmt.Sprintf("incident_demo_%d", i+1)
		data["id"] = id
		data["status"] = "synced"
		m.Put(IncidentsCollection, id, data)
	}

	aid := []map[string]any{
		{"aid_types": `["Food","Water"]`, "priority_level": int64(5), "latitude": 6.9350, "longitude": 79.8500,
			"requester_name": "S. Perera", "contact_number": "0771234567", "number_of_people": int64(40), CreatedAtField: ago(45 * time.Minute)},
		{"aid_types": `["Medical"]`, "priority_level": int64(3), "latitude": 7.4818, "longitude": 80.3609,
			"aidStatus": "taking action", "number_of_people": int64(5), CreatedAtField: ago(6 * time.Hour)},
		{"aid_types": "not json", "priority_level": int64(2), "latitude": 8.5874, "longitude": 81.2152,
			CreatedAtField: ago(30 * time.Hour)},
	}
	for i, data := range aid {
		id := fmt.Sprintf("aid_demo_%d", i+1)
		data["id"] = id
		data["status"] = "synced"
		m.Put(AidRequestsCollection, id, data)
	}

	camps := []map[string]any{
		{"name": "Colombo Town Hall", "latitude": 6.9147, "longitude": 79.8633, "capacity": int64(300), "current_occupancy": int64(120),
			"facilities": `["Medical Clinic","Food Distribution","Water Supply"]`, "campStatus": "operational", "adminApproved": true},
		{"name": "Kandy Central School", "latitude": 7.2955, "longitude": 80.6356, "capacity": int64(150), "current_occupancy": int64(150),
			"facilities": `["Shelter","Sanitation"]`, "campStatus": "full", "adminApproved": true},
		{"name": "Galle Temple Grounds", "latitude": 6.0329, "longitude": 80.2168, "capacity": int64(80), "current_occupancy": int64(10),
			"facilities": `["Shelter"]`, "adminApproved": false},
	}
	for i, data := range camps {
		id := fmt.Sprintf("camp_demo_%d", i+1)
		data["id"] = id
		data[CreatedAtField] = ago(time.Duration(i+1) * 24 * time.Hour)
		data[UpdatedAtField] = data[CreatedAtField]
		m.Put(CampsCollection, id, data)
	}

	volunteers := []map[string]any{
		{"full_name": "Nimal Silva", "user_email": "nimal@example.org", "phone_number": "0712345678",
			"district": `["Colombo","Gampaha"]`, "skills": `["First Aid","Driving"]`, "availability": `["Weekends"]`,
			"preferred_tasks": `["Distribution"]`, "approved": false},
		{"full_name": "Fathima Rizwan", "user_email": "fathima@example.org", "phone_number": "0759876543",
			"district": `["Kandy"]`, "skills": `["Medical"]`, "availability": `["Weekdays"]`,
			"preferred_tasks": `["Medical Support"]`, "approved": true},
	}
	for i, data := range volunteers {
		id := fmt.Sprintf("volunteer_demo_%d", i+1)
		data["id"] = id
		data[CreatedAtField] = ago(time.Duration(i+2) * time.Hour)
		data[UpdatedAtField] = data[CreatedAtField]
		m.Put(VolunteersCollection, id, data)
	}

	m.Put(PresenceCollection, "field_user_1", map[string]any{"lastSeenAt": ago(30 * time.Second)})
	m.Put(PresenceCollection, "field_user_2", map[string]any{"lastSeenAt": ago(time.Hour)})
}
