package client

import (
	"context"

	"github.com/wolfeidau/reception/internal/models"
)

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.UserProfile, error) {
	profile, err := Do[models.UserProfile](ctx, c, Get("/users/me"))
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Meetings lists the meetings of the authenticated user.
func (c *Client) Meetings(ctx context.Context) ([]models.Meeting, error) {
	meetings, err := Do[[]models.Meeting](ctx, c, Get("/meetings/"))
	if err != nil {
		return nil, err
	}
	return meetings, nil
}
