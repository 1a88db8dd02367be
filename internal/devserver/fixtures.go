package devserver

import (
	"time"

	"github.com/google/uuid"

	"github.com/wolfeidau/reception/internal/models"
)

// Account is a user known to the development server.
type Account struct {
	Profile  models.UserProfile
	Password string
}

// DefaultAccounts returns the accounts served when none are configured.
func DefaultAccounts() []Account {
	company := "Acme Events"
	return []Account{
		{
			Profile: models.UserProfile{
				ID:       "1",
				Email:    "ann@example.com",
				FullName: "Ann Smith",
				Company:  &company,
				IsActive: true,
			},
			Password: "reception",
		},
		{
			Profile: models.UserProfile{
				ID:       "2",
				Email:    "bob@example.com",
				FullName: "Bob Jones",
				IsActive: true,
			},
			Password: "reception",
		},
	}
}

// DefaultMeetings returns a day of meetings for each account, starting on day.
func DefaultMeetings(accounts []Account, day time.Time) map[models.ID][]models.Meeting {
	start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.Local)

	rooms := []string{"Harbour", "Summit", "Atrium"}
	titles := []string{"Registration briefing", "Keynote rehearsal", "Sponsor walkthrough"}

	meetings := make(map[models.ID][]models.Meeting, len(accounts))

	for _, acc := range accounts {
		for n, title := range titles {
			begin := start.Add(time.Duration(n*2) * time.Hour)
			meetings[acc.Profile.ID] = append(meetings[acc.Profile.ID], models.Meeting{
				ID:        models.ID(uuid.NewString()),
				Title:     title,
				StartTime: models.LocalTime{Time: begin},
				EndTime:   models.LocalTime{Time: begin.Add(45 * time.Minute)},
				RoomName:  rooms[n%len(rooms)],
				Hosts:     []string{acc.Profile.FullName},
				Status:    "scheduled",
			})
		}
	}

	return meetings
}
