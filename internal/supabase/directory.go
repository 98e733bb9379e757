package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
	"influencer-hub-backend/internal/models"
)

// DirectoryClient reads public profile rows through the Supabase REST API.
// It backs influencer search; writes go through DatabaseClient.
type DirectoryClient struct {
	client *supabase.Client
	table  string
}

func NewDirectoryClient(supabaseURL, publishableKey string) (*DirectoryClient, error) {
	client, err := supabase.NewClient(supabaseURL, publishableKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &DirectoryClient{client: client, table: "profiles"}, nil
}

func (d *DirectoryClient) ListByRole(ctx context.Context, role models.Role) ([]models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var profiles []models.Profile
	_, err := d.client.From(d.table).
		Select("*", "", false).
		Eq("role", string(role)).
		ExecuteTo(&profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	return profiles, nil
}
